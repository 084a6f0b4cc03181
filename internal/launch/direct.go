package launch

import (
	"context"
	"encoding/json"
	"errors"

	tlsolana "tokenlaunch/pkg/solana"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
)

const (
	warnSupplyDeferred  = "Initial supply could not be minted; the mint authority was kept so it can be minted later."
	warnRevocationBuild = "Authority revocation could not be prepared; the authorities are still held by the payer."
	warnRevocationSend  = "Authority revocation failed; the authorities are still held by the payer."
)

func (l *Launcher) launchDirect(ctx context.Context, intent *DirectMintIntent) (*Result, error) {
	d := intent.Details()
	payer := l.deps.Wallet.PublicKey()

	if err := l.checkBalance(ctx, payer); err != nil {
		return nil, err
	}

	logoURI, err := l.deps.Uploader.Upload(ctx, d.Logo.FileName, d.Logo.ContentType, d.Logo.Data)
	if err != nil {
		log.WithError(err).Error("Logo upload failed")
		return nil, uploadError(messageLogoUploadFailed, err)
	}

	doc, err := json.Marshal(NewMetadataDocument(d, logoURI))
	if err != nil {
		return nil, &Error{Kind: KindBuild, Message: messageBuildFailed, Cause: err}
	}
	metadataURI, err := l.deps.Uploader.Upload(ctx, "metadata.json", "application/json", doc)
	if err != nil {
		log.WithError(err).Error("Metadata upload failed")
		return nil, uploadError(messageMetadataUploadFail, err)
	}

	mintKey, err := l.deps.NewMintKey()
	if err != nil {
		return nil, &Error{Kind: KindBuild, Message: messageBuildFailed, Cause: err}
	}

	desc, err := tlsolana.BuildTokenCreationTx(ctx, l.deps.Conn, tlsolana.TokenParams{
		Name:       d.Name,
		Symbol:     d.Symbol,
		URI:        metadataURI,
		Decimals:   d.Decimals,
		Supply:     d.Supply,
		Freezeable: d.Freezeable,
		Updateable: d.Updateable,
		MintKey:    mintKey,
	}, payer)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, ClassifySubmitError(err)
		}
		return nil, &Error{Kind: KindBuild, Message: messageBuildFailed, Cause: err}
	}

	sig, err := l.submit(ctx, desc)
	if err != nil {
		return nil, err
	}

	post, cancel := detached(ctx)
	defer cancel()

	result := newResult(d, intent.Protocol(), l.deps.Network, payer.String())
	result.Mint = desc.Mint.String()
	result.Signatures = []string{sig.String()}
	result.MetadataURI = metadataURI

	mintable := d.Mintable
	if desc.SupplyDeferred {
		supplySig, err := l.mintDeferredSupply(post, desc)
		if err != nil {
			log.WithError(err).WithField("mint", result.Mint).Warn("Deferred supply mint failed")
			result.warn(warnSupplyDeferred)
			mintable = true
		} else {
			result.SupplySignature = supplySig.String()
		}
	}

	l.revokeAuthorities(post, result, desc.Mint, tlsolana.RevocationFlags{
		Updateable: d.Updateable,
		Mintable:   mintable,
	})
	return result, nil
}

// submit signs desc with the wallet, sends it and waits for confirmation.
// Every failure is classified.
func (l *Launcher) submit(ctx context.Context, desc *tlsolana.TransactionDescriptor) (solana.Signature, error) {
	if err := l.deps.Wallet.SignTransaction(ctx, desc.Transaction, desc.Signers...); err != nil {
		return solana.Signature{}, ClassifySubmitError(err)
	}

	sig, err := l.deps.Conn.SendTransaction(ctx, desc.Transaction)
	if err != nil {
		return solana.Signature{}, ClassifySubmitError(err)
	}
	log.WithFields(log.Fields{
		"signature": sig.String(),
		"mint":      desc.Mint.String(),
	}).Info("Transaction submitted")

	conf, err := l.deps.Conn.ConfirmTransaction(ctx, sig)
	if err != nil {
		return sig, ClassifySubmitError(err)
	}
	if conf.Failed() {
		return sig, confirmationError(conf)
	}
	return sig, nil
}

func (l *Launcher) mintDeferredSupply(ctx context.Context, creation *tlsolana.TransactionDescriptor) (solana.Signature, error) {
	desc, err := tlsolana.BuildSupplyMintTx(ctx, l.deps.Conn, creation.Mint, creation.FeePayer, creation.MintAmount)
	if err != nil {
		return solana.Signature{}, err
	}
	return l.submit(ctx, desc)
}

// revokeAuthorities sends the revocation transaction when flags ask for
// it. Creation already succeeded, so failures are recorded as warnings.
func (l *Launcher) revokeAuthorities(ctx context.Context, result *Result, mint solana.PublicKey, flags tlsolana.RevocationFlags) {
	if flags.Updateable && flags.Mintable {
		return
	}

	logger := log.WithFields(log.Fields{
		"mint":       mint.String(),
		"updateable": flags.Updateable,
		"mintable":   flags.Mintable,
	})

	desc, err := tlsolana.BuildAuthorityRevocationTx(ctx, l.deps.Conn, flags, l.deps.Wallet.PublicKey(), mint)
	if err != nil {
		logger.WithError(err).Warn("Failed to build authority revocation")
		result.warn(warnRevocationBuild)
		return
	}
	if desc.Empty() {
		return
	}

	sig, err := l.submit(ctx, desc)
	if err != nil {
		logger.WithError(err).Warn("Authority revocation failed")
		result.warn(warnRevocationSend)
		return
	}
	result.RevocationSignature = sig.String()
	logger.WithField("signature", sig.String()).Info("Authorities revoked")
}
