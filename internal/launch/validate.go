package launch

import (
	"fmt"
	"unicode/utf8"

	tlsolana "tokenlaunch/pkg/solana"
	"tokenlaunch/pkg/solana/pumpfun"
)

const (
	MaxNameLength   = 32
	MaxSymbolLength = 8
	MaxDecimals     = 9

	MinDevBuySOL      = 0.1
	MaxDevBuySOL      = 10.0
	MinSlippage       = 1.0
	MaxSlippage       = 50.0
	MinPriorityFeeSOL = 0.0001
	MaxPriorityFeeSOL = 0.01
)

// Validate checks an intent before any network call is made.
func Validate(intent Intent) error {
	if intent == nil {
		return configurationError("No token details were provided.")
	}
	if err := validateDetails(intent.Details()); err != nil {
		return err
	}
	if bc, ok := intent.(*BondingCurveIntent); ok {
		return validateBondingCurve(bc)
	}
	return nil
}

func validateDetails(d *TokenDetails) error {
	switch {
	case d.Name == "":
		return configurationError("Token name is required.")
	case utf8.RuneCountInString(d.Name) > MaxNameLength:
		return configurationError(fmt.Sprintf("Token name must be at most %d characters.", MaxNameLength))
	case d.Symbol == "":
		return configurationError("Token symbol is required.")
	case utf8.RuneCountInString(d.Symbol) > MaxSymbolLength:
		return configurationError(fmt.Sprintf("Token symbol must be at most %d characters.", MaxSymbolLength))
	case d.Decimals > MaxDecimals:
		return configurationError(fmt.Sprintf("Decimals must be between 0 and %d.", MaxDecimals))
	case d.Supply == 0:
		return configurationError("Total supply must be greater than zero.")
	case d.Logo == nil || len(d.Logo.Data) == 0:
		return configurationError("Please upload a token logo.")
	}

	if _, err := tlsolana.MintAmount(d.Supply, d.Decimals); err != nil {
		return configurationError("Total supply is too large for the selected decimals.")
	}
	return nil
}

func inRange(v, lo, hi float64) bool {
	return v == 0 || (v >= lo && v <= hi)
}

func validateBondingCurve(bc *BondingCurveIntent) error {
	switch {
	case !inRange(bc.DevBuySOL, MinDevBuySOL, MaxDevBuySOL):
		return configurationError(fmt.Sprintf("Dev buy must be between %g and %g SOL.", MinDevBuySOL, MaxDevBuySOL))
	case !inRange(bc.SlippagePercent, MinSlippage, MaxSlippage):
		return configurationError(fmt.Sprintf("Slippage must be between %g%% and %g%%.", MinSlippage, MaxSlippage))
	case !inRange(bc.PriorityFeeSOL, MinPriorityFeeSOL, MaxPriorityFeeSOL):
		return configurationError(fmt.Sprintf("Priority fee must be between %g and %g SOL.", MinPriorityFeeSOL, MaxPriorityFeeSOL))
	case len(bc.SignerAddresses) > pumpfun.MaxBundleSigners:
		return &Error{Kind: KindConfiguration, Message: signerCountMessage, Cause: pumpfun.ErrSignerCount}
	case !bc.UseJitoBundling && len(bc.SignerAddresses) > 1:
		return configurationError("Multiple signers require Jito bundling.")
	}
	return nil
}
