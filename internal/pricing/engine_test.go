package pricing

import "testing"

func TestFirstPriceSkipsZero(t *testing.T) {
	if got := FirstPrice(0, 0, 45_000, 50_000); got != 45_000 {
		t.Fatalf("expected 45000, got %d", got)
	}
}

func TestFirstPriceAllUnset(t *testing.T) {
	if got := FirstPrice(0, 0, 0, 0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestFirstPriceNegativeTreatedAsUnset(t *testing.T) {
	if got := FirstPrice(-100, 30_000); got != 30_000 {
		t.Fatalf("expected 30000, got %d", got)
	}
}

func TestLineTotalNonPositiveQty(t *testing.T) {
	if got := LineTotal(Line{Qty: 0, UnitPrice: 10_000}); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := LineTotal(Line{Qty: -2, UnitPrice: 10_000}); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestSubtotal(t *testing.T) {
	lines := []Line{
		{Qty: 2, UnitPrice: 10_000},
		{Qty: 1, UnitPrice: 5_000},
	}
	if got := Subtotal(lines); got != 25_000 {
		t.Fatalf("expected 25000, got %d", got)
	}
}

func TestPercentageTruncates(t *testing.T) {
	if got := Percentage(999, 10); got != 99 {
		t.Fatalf("expected 99, got %d", got)
	}
}

func TestClampDiscountCap(t *testing.T) {
	if got := ClampDiscount(5_000, 3_000, 50_000); got != 3_000 {
		t.Fatalf("expected 3000, got %d", got)
	}
}

func TestClampDiscountNoCap(t *testing.T) {
	if got := ClampDiscount(5_000, 0, 50_000); got != 5_000 {
		t.Fatalf("expected 5000, got %d", got)
	}
}

func TestClampDiscountBoundedBySubtotal(t *testing.T) {
	if got := ClampDiscount(100_000, 0, 20_000); got != 20_000 {
		t.Fatalf("expected 20000, got %d", got)
	}
}

func TestSummarizeFloorsAtZero(t *testing.T) {
	s := Summarize(20_000, 100_000)
	if s.FinalTotal != 0 {
		t.Fatalf("expected final total 0, got %d", s.FinalTotal)
	}
	if s.Discount != 100_000 {
		t.Fatalf("expected discount preserved, got %d", s.Discount)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(50_000, 5_000)
	if s.Subtotal != 50_000 || s.Discount != 5_000 || s.FinalTotal != 45_000 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}
