package launch

import (
	"context"
	"errors"

	"tokenlaunch/internal/models"
	"tokenlaunch/pkg/solana/pumpfun"
	"tokenlaunch/pkg/utils"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
)

const warnAuthoritiesIgnored = "Authority settings do not apply to bonding-curve launches and were ignored."

func (l *Launcher) launchBondingCurve(ctx context.Context, intent *BondingCurveIntent) (*Result, error) {
	if l.deps.BondingCurve == nil {
		return nil, configurationError("Bonding-curve launches are not configured.")
	}
	d := intent.Details()

	signers, err := l.bondingCurveSigners(ctx, intent)
	if err != nil {
		return nil, err
	}
	creator := signers[0].PublicKey()

	if err := l.checkBalance(ctx, creator); err != nil {
		return nil, err
	}

	mintKey, err := l.deps.NewMintKey()
	if err != nil {
		return nil, &Error{Kind: KindBuild, Message: messageBuildFailed, Cause: err}
	}

	opts := pumpfun.LaunchOptions{
		Name:            d.Name,
		Symbol:          d.Symbol,
		Description:     d.Description,
		Twitter:         d.Links.Twitter,
		Telegram:        d.Links.Telegram,
		Website:         d.Links.Website,
		Image:           d.Logo.Data,
		ImageName:       d.Logo.FileName,
		DevBuySOL:       intent.DevBuySOL,
		SlippagePercent: intent.SlippagePercent,
		PriorityFeeSOL:  intent.PriorityFeeSOL,
	}

	var launched *pumpfun.LaunchResult
	if intent.UseJitoBundling {
		launched, err = l.deps.BondingCurve.CreateWithBundle(ctx, opts, signers, mintKey)
	} else {
		launched, err = l.deps.BondingCurve.CreateSingle(ctx, opts, signers[0], mintKey)
	}
	if err != nil {
		return nil, classifyBondingCurveError(err)
	}

	result := newResult(d, intent.Protocol(), l.deps.Network, creator.String())
	result.Mint = launched.Mint.String()
	result.BondingCurve = launched.BondingCurve.String()
	for _, sig := range launched.Signatures {
		result.Signatures = append(result.Signatures, sig.String())
	}

	if intent.UseJitoBundling {
		result.BundleID = launched.BundleID
		result.LandingStatus = models.LandingPending
	} else {
		conf, err := l.deps.Conn.ConfirmTransaction(ctx, launched.Signatures[0])
		if err != nil {
			return nil, ClassifySubmitError(err)
		}
		if conf.Failed() {
			return nil, confirmationError(conf)
		}
		result.LandingStatus = models.LandingLanded
	}

	if !d.Mintable || !d.Updateable || d.Freezeable {
		result.warn(warnAuthoritiesIgnored)
	}
	result.ExpectedDevBuyTokens = expectedCreatorTokens(intent, len(signers))
	return result, nil
}

// bondingCurveSigners resolves the configured signer keys, falling back
// to the payer's own key.
func (l *Launcher) bondingCurveSigners(ctx context.Context, intent *BondingCurveIntent) ([]solana.PrivateKey, error) {
	if len(intent.SignerAddresses) == 0 {
		holder, ok := l.deps.Wallet.(keyHolder)
		if !ok {
			return nil, configurationError("Bonding-curve launches need a signer keypair.")
		}
		return []solana.PrivateKey{holder.PrivateKey()}, nil
	}

	if l.deps.Signers == nil {
		return nil, configurationError("Signer keystore is not configured.")
	}
	signers, err := l.deps.Signers.ResolveSigners(ctx, intent.SignerAddresses)
	if err != nil {
		return nil, &Error{Kind: KindConfiguration, Message: "Signer keypairs could not be loaded.", Cause: err}
	}
	if len(signers) == 0 || len(signers) > pumpfun.MaxBundleSigners {
		return nil, &Error{Kind: KindConfiguration, Message: signerCountMessage, Cause: pumpfun.ErrSignerCount}
	}
	return signers, nil
}

func classifyBondingCurveError(err error) *Error {
	switch {
	case errors.Is(err, context.Canceled):
		return ClassifySubmitError(err)
	case errors.Is(err, pumpfun.ErrSignerCount):
		return &Error{Kind: KindConfiguration, Message: signerCountMessage, Cause: err}
	case errors.Is(err, pumpfun.ErrMetadataUpload):
		return uploadError(messageMetadataUploadFail, err)
	}
	return ClassifySubmitError(err)
}

// expectedCreatorTokens estimates the tokens the creator receives from the
// launch buy against a fresh curve.
func expectedCreatorTokens(intent *BondingCurveIntent, signerCount int) float64 {
	var buys []utils.LaunchBuy
	if intent.UseJitoBundling {
		for i := 0; i < signerCount; i++ {
			buys = append(buys, utils.LaunchBuy{Tokens: pumpfun.BundleTokenAmount})
		}
	} else {
		sol := intent.DevBuySOL
		if sol <= 0 {
			sol = pumpfun.DefaultDevBuySOL
		}
		buys = append(buys, utils.LaunchBuy{SOL: sol})
	}

	estimate, err := utils.EstimateLaunchBuys(buys, utils.PumpFeeRate)
	if err != nil {
		log.WithError(err).Warn("Failed to estimate dev buy")
		return 0
	}
	return estimate.Trades[0].GetAmount
}
