package utils

import (
	"errors"
	"fmt"
)

// TradeResult represents the result of a trade operation
type TradeResult struct {
	GetAmount            float64
	CostAmount           float64
	PriceBeforeSwap      float64
	VSolAfterSwap        float64
	VTokenAfterSwap      float64
	PriceAfterSwap       float64
	ChangeRatioAfterSwap float64
}

// PumpFeeRate is the bonding curve trading fee.
const PumpFeeRate = 0.01

// GetVirtualReserves calculates virtual SOL and token reserves based on
// the tokens still held by the curve.
// vToken = 1073000000 - (1000000000 - tokenAmount)
// vSol = 32190000000 / vToken
func GetVirtualReserves(tokenAmount float64) (vSol float64, vToken float64) {
	vToken = 1073000000.0 - (1000000000.0 - tokenAmount)
	vSol = 32190000000.0 / vToken
	return vSol, vToken
}

// InitialVirtualReserves are the reserves of a freshly created curve.
func InitialVirtualReserves() (vSol float64, vToken float64) {
	return GetVirtualReserves(1000000000.0)
}

func tradeResult(amount, cost, vSOL, vToken, newVSOL, newVToken float64) *TradeResult {
	priceBefore := vSOL / vToken
	priceAfter := newVSOL / newVToken
	return &TradeResult{
		GetAmount:            amount,
		CostAmount:           cost,
		PriceBeforeSwap:      priceBefore,
		VSolAfterSwap:        newVSOL,
		VTokenAfterSwap:      newVToken,
		PriceAfterSwap:       priceAfter,
		ChangeRatioAfterSwap: (priceAfter - priceBefore) / priceBefore,
	}
}

// SimulateBuyWithSOL returns the tokens bought for amountIn SOL.
func SimulateBuyWithSOL(amountIn, vSOL, vToken, feeRate float64) (*TradeResult, error) {
	if amountIn <= 0 {
		return nil, fmt.Errorf("buy amount must be positive, got %f", amountIn)
	}
	solAfterFee := amountIn * (1 - feeRate)

	k := vSOL * vToken
	newVSOL := vSOL + solAfterFee
	newVToken := k / newVSOL
	return tradeResult(vToken-newVToken, amountIn, vSOL, vToken, newVSOL, newVToken), nil
}

// SimulateBuyForTokens returns the SOL needed to buy amountOut tokens.
func SimulateBuyForTokens(amountOut, vSOL, vToken, feeRate float64) (*TradeResult, error) {
	if amountOut <= 0 {
		return nil, fmt.Errorf("token amount must be positive, got %f", amountOut)
	}
	if amountOut >= vToken {
		return nil, fmt.Errorf("output amount exceeds virtual token reserves")
	}

	k := vSOL * vToken
	newVToken := vToken - amountOut
	newVSOL := k / newVToken
	solInput := (newVSOL - vSOL) / (1 - feeRate)
	return tradeResult(amountOut, solInput, vSOL, vToken, newVSOL, newVToken), nil
}

// LaunchBuy is one buy in a launch. Exactly one of SOL or Tokens is set.
type LaunchBuy struct {
	SOL    float64
	Tokens float64
}

// LaunchEstimate summarizes the buys executed against a new curve.
type LaunchEstimate struct {
	Trades      []TradeResult
	TotalSOL    float64
	TotalTokens float64
	FinalPrice  float64
}

// EstimateLaunchBuys replays buys in order against a fresh curve.
func EstimateLaunchBuys(buys []LaunchBuy, feeRate float64) (*LaunchEstimate, error) {
	if len(buys) == 0 {
		return nil, errors.New("no buys to estimate")
	}

	vSOL, vToken := InitialVirtualReserves()
	estimate := &LaunchEstimate{Trades: make([]TradeResult, 0, len(buys))}
	for i, buy := range buys {
		var (
			res *TradeResult
			err error
		)
		switch {
		case buy.SOL > 0 && buy.Tokens == 0:
			res, err = SimulateBuyWithSOL(buy.SOL, vSOL, vToken, feeRate)
		case buy.Tokens > 0 && buy.SOL == 0:
			res, err = SimulateBuyForTokens(buy.Tokens, vSOL, vToken, feeRate)
		default:
			err = errors.New("exactly one of SOL or Tokens must be set")
		}
		if err != nil {
			return nil, fmt.Errorf("buy %d: %w", i, err)
		}

		estimate.TotalSOL += res.CostAmount
		estimate.TotalTokens += res.GetAmount
		estimate.Trades = append(estimate.Trades, *res)
		vSOL, vToken = res.VSolAfterSwap, res.VTokenAfterSwap
	}
	estimate.FinalPrice = vSOL / vToken
	return estimate, nil
}
