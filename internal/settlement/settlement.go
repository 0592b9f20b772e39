// Package settlement computes the monetary side of a recorded session:
// the fee charged and the platform commission on it.
//
// All amounts are int64 minor units (cents). Keeping the arithmetic in
// integers avoids the currency drift binary floating point would introduce.
package settlement

import "errors"

const (
	// DefaultRateBps is the platform commission rate in basis points (10%).
	DefaultRateBps = 1000

	// bpsDenominator converts basis points to a fraction.
	bpsDenominator = 10000
)

// ErrInvalidRate is returned for a commission rate outside [0, 100%].
var ErrInvalidRate = errors.New("commission rate must be between 0 and 10000 basis points")

// Settlement is the computed monetary outcome of one session.
// HalfFee is exposed alongside the full fee so the validator's draw policy
// can choose between them; the calculator itself takes no position.
type Settlement struct {
	FeeCharged int64
	HalfFee    int64
	Commission int64
	RateBps    int
}

// Calculator computes settlements at a fixed commission rate.
type Calculator struct {
	rateBps int64
}

// NewCalculator creates a Calculator with the given commission rate in
// basis points.
func NewCalculator(rateBps int) (*Calculator, error) {
	if rateBps < 0 || rateBps > bpsDenominator {
		return nil, ErrInvalidRate
	}
	return &Calculator{rateBps: int64(rateBps)}, nil
}

// RateBps returns the configured commission rate.
func (c *Calculator) RateBps() int {
	return int(c.rateBps)
}

// Compute returns the settlement for a session fee. The full fee is charged
// regardless of outcome; the commission is floored to the cent.
func (c *Calculator) Compute(fee int64) Settlement {
	half, _ := SplitHalves(fee)
	return Settlement{
		FeeCharged: fee,
		HalfFee:    half,
		Commission: fee * c.rateBps / bpsDenominator,
		RateBps:    int(c.rateBps),
	}
}

// SplitHalves divides a fee into two shares that sum exactly to the fee.
// An odd cent goes to the first share.
func SplitHalves(fee int64) (int64, int64) {
	second := fee / 2
	return fee - second, second
}
