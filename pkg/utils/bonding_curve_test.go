package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialVirtualReserves(t *testing.T) {
	vSol, vToken := InitialVirtualReserves()
	assert.InDelta(t, 30.0, vSol, 1e-9)
	assert.InDelta(t, 1073000000.0, vToken, 1e-6)
}

func TestSimulateBuyRoundTrip(t *testing.T) {
	vSol, vToken := InitialVirtualReserves()

	bought, err := SimulateBuyWithSOL(1, vSol, vToken, PumpFeeRate)
	require.NoError(t, err)
	assert.Greater(t, bought.GetAmount, 30_000_000.0)
	assert.Less(t, bought.GetAmount, 36_000_000.0)
	assert.Greater(t, bought.PriceAfterSwap, bought.PriceBeforeSwap)

	cost, err := SimulateBuyForTokens(bought.GetAmount, vSol, vToken, PumpFeeRate)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cost.CostAmount, 1e-6)

	_, err = SimulateBuyForTokens(vToken, vSol, vToken, PumpFeeRate)
	assert.Error(t, err)
	_, err = SimulateBuyWithSOL(0, vSol, vToken, PumpFeeRate)
	assert.Error(t, err)
}

func TestEstimateLaunchBuys(t *testing.T) {
	estimate, err := EstimateLaunchBuys([]LaunchBuy{
		{Tokens: 10_000_000},
		{Tokens: 10_000_000},
		{Tokens: 10_000_000},
	}, PumpFeeRate)
	require.NoError(t, err)
	require.Len(t, estimate.Trades, 3)

	assert.InDelta(t, 30_000_000.0, estimate.TotalTokens, 1e-6)
	// later buys pay more for the same amount
	assert.Greater(t, estimate.Trades[2].CostAmount, estimate.Trades[0].CostAmount)
	assert.Equal(t, estimate.Trades[2].PriceAfterSwap, estimate.FinalPrice)

	_, err = EstimateLaunchBuys(nil, PumpFeeRate)
	assert.Error(t, err)
	_, err = EstimateLaunchBuys([]LaunchBuy{{SOL: 1, Tokens: 1}}, PumpFeeRate)
	assert.Error(t, err)
}
