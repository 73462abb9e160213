package terminology

import "github.com/rs/zerolog"

// AllergyCodeService translates between the clinic's internal allergy
// catalogue codes and SNOMED CT codes. The backing table is
// semicolon-delimited with columns internal-code;snomed-code. The delimiter
// differs from the procedure table, which is why TableSpec carries it.
type AllergyCodeService struct {
	codes *CodeMap
	log   zerolog.Logger
}

// NewAllergyCodeService creates an allergy code service over the given
// reference table path.
func NewAllergyCodeService(tablePath string, log zerolog.Logger) *AllergyCodeService {
	spec := TableSpec{
		Path:       tablePath,
		Delimiter:  ';',
		KeyColumn:  0,
		CodeColumn: 1,
	}
	return &AllergyCodeService{
		codes: NewCodeMap(spec, log),
		log:   log,
	}
}

// StandardCode returns the SNOMED CT code for an internal catalogue code, or
// "" when unmapped.
func (s *AllergyCodeService) StandardCode(internalCode string) (string, error) {
	return s.codes.Forward(internalCode)
}

// InternalCode returns the catalogue code mapped to a SNOMED CT code, or ""
// when no entry carries that code.
func (s *AllergyCodeService) InternalCode(standardCode string) (string, error) {
	return s.codes.Reverse(standardCode)
}
