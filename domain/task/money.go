package task

import (
	"fmt"
	"math"
)

// Money is an amount in pesewas (1/100 GHS). Integer storage keeps fee
// arithmetic exact.
type Money int64

// MoneyFromGHS converts a cedi amount to the nearest pesewa.
func MoneyFromGHS(ghs float64) Money {
	return Money(math.Round(ghs * 100))
}

// GHS returns the amount in cedis.
func (m Money) GHS() float64 {
	return float64(m) / 100
}

// String formats the amount with two decimal places.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
