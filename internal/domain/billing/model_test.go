package billing

import "testing"

func TestToCents_Rounds(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{0.1 + 0.2, 30},
		{19.999, 2000},
		{1500.5, 150050},
	}
	for _, tt := range tests {
		if got := toCents(tt.in); got != tt.want {
			t.Errorf("toCents(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestInvoice_Balance(t *testing.T) {
	inv := &Invoice{Total: 100.10, AmountPaid: 33.37}
	if got := inv.Balance(); got != 66.73 {
		t.Errorf("Balance() = %v, want 66.73", got)
	}

	paid := &Invoice{Total: 20, AmountPaid: 20}
	if got := paid.Balance(); got != 0 {
		t.Errorf("Balance() = %v, want 0", got)
	}
}
