// Package risk sizes positions from a fixed risk fraction of capital.
package risk

import "math"

type Inputs struct {
	Capital  float64
	RiskPct  float64 // e.g. 0.02
	Price    float64 // intended entry price
	StopLoss float64 // stop distance as a fraction of entry price
}

type Result struct {
	Quantity   int64   // whole units; fractional lots are never permitted
	RiskAmount float64 // capital put at risk if the stop is hit
}

// Calculate returns the largest whole quantity whose loss at the stop does
// not exceed RiskPct of capital, capped by what the capital can buy
// outright. Quantity is 0 when either bound rounds down to nothing.
func Calculate(in Inputs) Result {
	riskAmt := in.Capital * in.RiskPct

	if in.Price <= 0 || in.StopLoss <= 0 {
		return Result{RiskAmount: riskAmt}
	}

	byRisk := math.Floor(riskAmt / (in.Price * in.StopLoss))
	byCash := math.Floor(in.Capital / in.Price)

	qty := math.Min(byRisk, byCash)
	if qty < 0 {
		qty = 0
	}

	return Result{
		Quantity:   int64(qty),
		RiskAmount: riskAmt,
	}
}
