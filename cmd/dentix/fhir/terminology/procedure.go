package terminology

import "github.com/rs/zerolog"

// ProcedureCodeService translates between intervention-type names and CDT
// dental procedure codes. The backing table is comma-delimited with columns
// name,code.
type ProcedureCodeService struct {
	codes *CodeMap
	log   zerolog.Logger
}

// NewProcedureCodeService creates a procedure code service over the given
// reference table path.
func NewProcedureCodeService(tablePath string, log zerolog.Logger) *ProcedureCodeService {
	spec := TableSpec{
		Path:       tablePath,
		Delimiter:  ',',
		KeyColumn:  0,
		CodeColumn: 1,
	}
	return &ProcedureCodeService{
		codes: NewCodeMap(spec, log),
		log:   log,
	}
}

// CodeForName returns the CDT code for a procedure name, or "" when the name
// is unmapped.
func (s *ProcedureCodeService) CodeForName(name string) (string, error) {
	return s.codes.Forward(name)
}

// NameForCode returns the procedure name mapped to a CDT code, or "" when no
// entry carries that code.
func (s *ProcedureCodeService) NameForCode(code string) (string, error) {
	return s.codes.Reverse(code)
}
