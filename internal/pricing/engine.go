package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// FirstPrice returns the first positive candidate, or zero when none is set.
// A zero price is treated the same as an unset one so that placeholder rows
// fall through to the next candidate.
func FirstPrice(candidates ...Money) Money {
	for _, c := range candidates {
		if c > 0 {
			return c
		}
	}
	return 0
}

// Line describes a cart line used for total calculation.
type Line struct {
	Qty       int
	UnitPrice Money
}

// LineTotal computes the extended price for a single line. Non-positive
// quantities contribute nothing.
func LineTotal(l Line) Money {
	if l.Qty <= 0 {
		return 0
	}
	return Money(l.Qty) * l.UnitPrice
}

// Subtotal sums the extended price of every line.
func Subtotal(lines []Line) Money {
	var total Money
	for _, l := range lines {
		total += LineTotal(l)
	}
	return total
}

// Percentage computes value percent of base, truncating toward zero.
func Percentage(base Money, value int64) Money {
	return base * Money(value) / 100
}

// ClampDiscount bounds a raw discount to the cap (when positive) and to the
// payable base so a discount can never push the total negative.
func ClampDiscount(discount, cap, base Money) Money {
	if cap > 0 && discount > cap {
		discount = cap
	}
	if discount > base {
		discount = base
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// Summary aggregates the computed totals for a cart.
type Summary struct {
	Subtotal   Money `json:"subtotal"`
	Discount   Money `json:"discount"`
	FinalTotal Money `json:"finalTotal"`
}

// Summarize applies the discount to the subtotal, flooring the result at zero.
func Summarize(subtotal, discount Money) Summary {
	final := subtotal - discount
	if final < 0 {
		final = 0
	}
	return Summary{Subtotal: subtotal, Discount: discount, FinalTotal: final}
}
