package domain

import (
	"fmt"
	"math"
)

// Price is a fixed-precision value backed by an integer tick count. All
// comparisons operate on the raw ticks directly, never on a float
// conversion, so two prices at the same precision compare exactly.
type Price struct {
	raw       int64
	precision uint8
}

// Quantity is the order-size counterpart of Price, same raw-tick
// representation.
type Quantity struct {
	raw       int64
	precision uint8
}

func pow10(precision uint8) int64 {
	return int64(math.Pow10(int(precision)))
}

// NewPrice builds a Price from a decimal value at the given precision,
// e.g. NewPrice(101.10, 2) -> raw 10110.
func NewPrice(value float64, precision uint8) Price {
	return Price{raw: int64(math.Round(value * float64(pow10(precision)))), precision: precision}
}

// PriceFromRaw builds a Price directly from its raw tick count.
func PriceFromRaw(raw int64, precision uint8) Price {
	return Price{raw: raw, precision: precision}
}

func NewQuantity(value float64, precision uint8) Quantity {
	return Quantity{raw: int64(math.Round(value * float64(pow10(precision)))), precision: precision}
}

func QuantityFromRaw(raw int64, precision uint8) Quantity {
	return Quantity{raw: raw, precision: precision}
}

func (p Price) Raw() int64        { return p.raw }
func (p Price) Precision() uint8  { return p.precision }
func (p Price) AsFloat() float64  { return float64(p.raw) / float64(pow10(p.precision)) }
func (p Price) IsZero() bool      { return p.raw == 0 }

func (p Price) Equal(o Price) bool      { return p.raw == o.raw }
func (p Price) LessThan(o Price) bool   { return p.raw < o.raw }
func (p Price) GreaterThan(o Price) bool { return p.raw > o.raw }
func (p Price) LessOrEqual(o Price) bool { return p.raw <= o.raw }
func (p Price) GreaterOrEqual(o Price) bool { return p.raw >= o.raw }

func (p Price) Add(o Price) Price { return Price{raw: p.raw + o.raw, precision: p.precision} }
func (p Price) Sub(o Price) Price { return Price{raw: p.raw - o.raw, precision: p.precision} }

func (p Price) String() string {
	return fmt.Sprintf("%.*f", p.precision, p.AsFloat())
}

func (q Quantity) Raw() int64       { return q.raw }
func (q Quantity) Precision() uint8 { return q.precision }
func (q Quantity) AsFloat() float64 { return float64(q.raw) / float64(pow10(q.precision)) }
func (q Quantity) IsZero() bool     { return q.raw == 0 }
func (q Quantity) IsPositive() bool { return q.raw > 0 }

func (q Quantity) Equal(o Quantity) bool    { return q.raw == o.raw }
func (q Quantity) LessThan(o Quantity) bool { return q.raw < o.raw }

func (q Quantity) Add(o Quantity) Quantity { return Quantity{raw: q.raw + o.raw, precision: q.precision} }
func (q Quantity) Sub(o Quantity) Quantity { return Quantity{raw: q.raw - o.raw, precision: q.precision} }

func (q Quantity) String() string {
	return fmt.Sprintf("%.*f", q.precision, q.AsFloat())
}

// PriceIncrement is the minimum tick step for an instrument, expressed in
// the same fixed-precision representation as Price.
type PriceIncrement = Price
