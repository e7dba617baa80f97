package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateCashBound(t *testing.T) {
	t.Parallel()

	// risk cash 1000; per-unit loss at the stop 105*0.01 = 1.05
	// allows 952 units, but capital only buys 476
	r := Calculate(Inputs{Capital: 50_000, RiskPct: 0.02, Price: 105, StopLoss: 0.01})
	assert.Equal(t, int64(476), r.Quantity)
	assert.InDelta(t, 1000.0, r.RiskAmount, 1e-9)
}

func TestCalculateRiskBound(t *testing.T) {
	t.Parallel()

	// wide stop: the risk budget is the binding constraint
	r := Calculate(Inputs{Capital: 50_000, RiskPct: 0.02, Price: 100, StopLoss: 0.05})
	assert.Equal(t, int64(200), r.Quantity)
}

func TestCalculateZeroWhenUnaffordable(t *testing.T) {
	t.Parallel()

	r := Calculate(Inputs{Capital: 50, RiskPct: 0.02, Price: 100, StopLoss: 0.01})
	assert.Equal(t, int64(0), r.Quantity)
}

func TestCalculateDegenerateInputs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), Calculate(Inputs{Capital: 1000, RiskPct: 0.02, Price: 0, StopLoss: 0.01}).Quantity)
	assert.Equal(t, int64(0), Calculate(Inputs{Capital: 1000, RiskPct: 0.02, Price: 100, StopLoss: 0}).Quantity)
	assert.Equal(t, int64(0), Calculate(Inputs{Capital: -500, RiskPct: 0.02, Price: 100, StopLoss: 0.01}).Quantity)
}
