package launch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tlsolana "tokenlaunch/pkg/solana"
)

// Kind classifies a launch failure.
type Kind string

const (
	KindConfiguration     Kind = "configuration"
	KindPrecondition      Kind = "precondition"
	KindUpload            Kind = "upload"
	KindBuild             Kind = "build"
	KindCancelled         Kind = "cancelled"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindNetworkCongestion Kind = "network_congestion"
	KindSimulationFailed  Kind = "simulation_failed"
	KindConfirmation      Kind = "confirmation"
	KindUnknown           Kind = "unknown"
)

// Retryable reports whether running the same intent again is safe and
// likely to help.
func (k Kind) Retryable() bool {
	switch k {
	case KindUpload, KindNetworkCongestion, KindSimulationFailed:
		return true
	}
	return false
}

// Error is the single user facing failure of a launch.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

const (
	messageCancelled          = "Transaction was canceled by the user."
	messageInsufficientFunds  = "Insufficient SOL balance to complete the transaction. Please add more SOL to your wallet."
	messageNetworkCongestion  = "Network congestion detected. Please try again in a few moments."
	messageSimulationFailed   = "Transaction simulation failed. This might be due to insufficient funds or network issues. Please check your balance and try again."
	messageConfirmTimeout     = "Transaction was not confirmed in time. Check the explorer before trying again."
	messageLogoUploadFailed   = "Token logo upload failed to IPFS. Please retry."
	messageMetadataUploadFail = "Token metadata upload failed to IPFS. Please retry."
	messageBuildFailed        = "Error while building the token creation transaction."
	messageWalletMissing      = "Wallet not connected. Connect a wallet to create a token."
	messageInProgress         = "A token creation is already in progress for this wallet."
	signerCountMessage        = "Must provide 1-5 signer keypairs for bundling."
)

func configurationError(message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message}
}

// KindOf extracts the kind of err, KindUnknown when it is not an *Error.
func KindOf(err error) Kind {
	var launchErr *Error
	if errors.As(err, &launchErr) {
		return launchErr.Kind
	}
	return KindUnknown
}

// IsCancelled reports whether err is a deliberate user cancellation.
func IsCancelled(err error) bool {
	return KindOf(err) == KindCancelled
}

// ClassifySubmitError maps an error from signing, submission or
// confirmation into a typed launch error. Messages of unrecognised errors
// are passed through.
func ClassifySubmitError(err error) *Error {
	if err == nil {
		return nil
	}
	var launchErr *Error
	if errors.As(err, &launchErr) {
		return launchErr
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindCancelled, Message: "Token creation was canceled.", Cause: err}
	case errors.Is(err, tlsolana.ErrConfirmationTimeout), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindConfirmation, Message: messageConfirmTimeout, Cause: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "user rejected"):
		return &Error{Kind: KindCancelled, Message: messageCancelled, Cause: err}
	case strings.Contains(msg, "insufficient funds"), strings.Contains(msg, "insufficient lamports"):
		return &Error{Kind: KindInsufficientFunds, Message: messageInsufficientFunds, Cause: err}
	case strings.Contains(msg, "blockhash not found"):
		return &Error{Kind: KindNetworkCongestion, Message: messageNetworkCongestion, Cause: err}
	case strings.Contains(msg, "simulation failed"):
		return &Error{Kind: KindSimulationFailed, Message: messageSimulationFailed, Cause: err}
	}
	return &Error{Kind: KindUnknown, Message: fmt.Sprintf("Transaction failed: %s", err.Error()), Cause: err}
}

// confirmationError reports a transaction that landed with an error.
func confirmationError(conf *tlsolana.Confirmation) *Error {
	return &Error{
		Kind:    KindConfirmation,
		Message: fmt.Sprintf("Transaction failed during confirmation: %s", conf.ErrorJSON()),
	}
}
