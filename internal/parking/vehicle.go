package parking

import (
	"regexp"
	"strings"
)

// Vehicle is keyed by its normalized plate. SpotID is a weak back-reference
// for lookup only; the occupying side is owned by the Spot.
type Vehicle struct {
	ID     int64
	Plate  string
	Model  string
	SpotID int64
}

func (v *Vehicle) Parked() bool { return v.SpotID != 0 }

// Mercosul plate format; the legacy AAA0000 shape matches it as well.
var platePattern = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z0-9][0-9]{2}$`)

// NormalizePlate uppercases the plate, strips separators and validates the
// result. Returns ErrInvalidPlate when the cleaned plate does not match.
func NormalizePlate(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(raw)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	plate := b.String()
	if !platePattern.MatchString(plate) {
		return "", ErrInvalidPlate
	}
	return plate, nil
}
