package identity

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPhone is returned when a phone number is not a valid Ghana number.
var ErrInvalidPhone = errors.New("invalid phone number")

var ghanaPhone = regexp.MustCompile(`^\+233\d{9}$`)

// NormalizePhone converts local (0XXXXXXXXX), international (233XXXXXXXXX,
// +233XXXXXXXXX) or bare nine-digit forms to +233XXXXXXXXX.
func NormalizePhone(phone string) (string, error) {
	p := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))

	switch {
	case strings.HasPrefix(p, "+233"):
	case strings.HasPrefix(p, "233"):
		p = "+" + p
	case strings.HasPrefix(p, "0") && len(p) == 10:
		p = "+233" + p[1:]
	case len(p) == 9:
		p = "+233" + p
	}

	if !ghanaPhone.MatchString(p) {
		return "", ErrInvalidPhone
	}
	return p, nil
}
