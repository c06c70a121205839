package task

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	MinTitleLength       = 5
	MinDescriptionLength = 20
)

// ValidateTitle rejects titles shorter than MinTitleLength characters.
func ValidateTitle(title string) error {
	if utf8.RuneCountInString(strings.TrimSpace(title)) < MinTitleLength {
		return Invalid(fmt.Sprintf("title must be at least %d characters", MinTitleLength))
	}
	return nil
}

// ValidateDescription rejects descriptions shorter than MinDescriptionLength characters.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(strings.TrimSpace(description)) < MinDescriptionLength {
		return Invalid(fmt.Sprintf("description must be at least %d characters", MinDescriptionLength))
	}
	return nil
}

// ValidatePrice rejects prices below MinPrice.
func ValidatePrice(price Money) error {
	if price < MinPrice {
		return Invalid(fmt.Sprintf("price must be at least %s %s", MinPrice, Currency))
	}
	return nil
}

// PriceFromGHS converts a cedi amount supplied by a client. The minimum is
// checked on the raw amount so that rounding cannot lift 9.996 to 10.00.
func PriceFromGHS(ghs float64) (Money, error) {
	if math.IsNaN(ghs) || math.IsInf(ghs, 0) || ghs < MinPrice.GHS() {
		return 0, Invalid(fmt.Sprintf("price must be at least %s %s", MinPrice, Currency))
	}
	return MoneyFromGHS(ghs), nil
}

// ValidateDuration rejects non-positive duration estimates.
func ValidateDuration(mins int) error {
	if mins <= 0 {
		return Invalid("durationEstMins must be greater than 0")
	}
	return nil
}

// ValidateReference rejects an empty identifier for the named field.
func ValidateReference(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return Invalid(field + " is required")
	}
	return nil
}

// ValidatePriority rejects unknown priorities.
func ValidatePriority(p Priority) error {
	if !p.Valid() {
		return Invalid(fmt.Sprintf("unknown priority %q", p))
	}
	return nil
}

// ValidateStatus rejects unknown statuses.
func ValidateStatus(s Status) error {
	if !s.Valid() {
		return Invalid(fmt.Sprintf("unknown status %q", s))
	}
	return nil
}
