package task

const (
	// MinPrice is the lowest price a task may be posted for (10.00 GHS).
	MinPrice Money = 1000

	// feeBasisPoints is the platform commission: 5%.
	feeBasisPoints = 500
)

// ComputeFee returns the platform fee for price, rounded half-up to the
// nearest pesewa. It is pure and never fails; price validation belongs to
// the caller.
func ComputeFee(price Money) Money {
	if price <= 0 {
		return 0
	}
	return (price*feeBasisPoints + 5000) / 10000
}
