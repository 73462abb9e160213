package terminology

import "fmt"

// FDI two-digit tooth notation: the tens digit is the quadrant (1-8), the
// units digit the position within the quadrant. Quadrants 1-4 are the
// permanent dentition, 5-8 the temporary one.
var (
	permanentTeeth = []string{
		"central incisor",
		"lateral incisor",
		"canine",
		"first premolar",
		"second premolar",
		"first molar",
		"second molar",
		"third molar",
	}
	temporaryTeeth = []string{
		"central incisor",
		"lateral incisor",
		"canine",
		"first molar",
		"second molar",
	}
)

// ToothName maps an FDI tooth code to a human-readable description of the
// form "<tooth name> <side> <permanent|temporary>", e.g. 11 -> "central
// incisor upper right permanent". Codes outside the valid FDI range return
// an error.
func ToothName(code int) (string, error) {
	quadrant := code / 10
	position := code % 10

	if quadrant < 1 || quadrant > 8 {
		return "", fmt.Errorf("invalid tooth code %d: quadrant must be 1-8", code)
	}

	teeth := permanentTeeth
	dentition := "permanent"
	if quadrant > 4 {
		teeth = temporaryTeeth
		dentition = "temporary"
	}
	if position < 1 || position > len(teeth) {
		return "", fmt.Errorf("invalid tooth code %d: position %d out of range for quadrant %d", code, position, quadrant)
	}

	// Sides cycle every four quadrants.
	var side string
	switch quadrant % 4 {
	case 1:
		side = "upper right"
	case 2:
		side = "upper left"
	case 3:
		side = "lower left"
	case 0:
		side = "lower right"
	}

	return fmt.Sprintf("%s %s %s", teeth[position-1], side, dentition), nil
}
