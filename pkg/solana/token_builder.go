package solana

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	log "github.com/sirupsen/logrus"
)

const (
	// MaxTransactionSize is the serialized packet ceiling for a transaction.
	MaxTransactionSize = 1232
	// supplyHeadroom is the space that must remain free before the
	// account creation and supply instructions are folded into the
	// creation transaction.
	supplyHeadroom = 300
	signatureSize  = 64
)

var (
	// ErrBuildFailed wraps every failure to assemble a transaction.
	ErrBuildFailed = errors.New("failed to build transaction")
	// ErrSupplyOverflow means supply scaled by decimals does not fit the
	// token program's amount field.
	ErrSupplyOverflow = errors.New("supply exceeds 10^19 base units")
)

var maxRawSupply = new(big.Int).Exp(big.NewInt(10), big.NewInt(19), nil)

// MintAmount returns supply * 10^decimals computed exactly.
func MintAmount(supply uint64, decimals uint8) (uint64, error) {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	amount := new(big.Int).Mul(new(big.Int).SetUint64(supply), scale)
	if amount.Cmp(maxRawSupply) > 0 || !amount.IsUint64() {
		return 0, ErrSupplyOverflow
	}
	return amount.Uint64(), nil
}

// TokenParams describes the mint the creation transaction sets up.
type TokenParams struct {
	Name     string
	Symbol   string
	URI      string
	Decimals uint8
	Supply   uint64

	Freezeable bool
	Updateable bool

	// MintKey is used as the new mint when set; otherwise one is generated.
	MintKey solana.PrivateKey
}

// TransactionDescriptor is an unsigned transaction plus what is needed to
// sign and report on it. Signers lists keys other than the fee payer that
// must sign.
type TransactionDescriptor struct {
	Transaction  *solana.Transaction
	Instructions []solana.Instruction
	Signers      []solana.PrivateKey
	FeePayer     solana.PublicKey
	Blockhash    solana.Hash
	Mint         solana.PublicKey
	Size         int

	// SupplyDeferred is set when the token account creation and initial
	// mint did not fit and must be sent separately.
	SupplyDeferred bool
	MintAmount     uint64
}

// Empty reports whether the descriptor carries no instructions.
func (d *TransactionDescriptor) Empty() bool {
	return d == nil || len(d.Instructions) == 0
}

// Kinds lists the instruction kinds in order.
func (d *TransactionDescriptor) Kinds() []InstructionKind {
	kinds := make([]InstructionKind, len(d.Instructions))
	for i, ix := range d.Instructions {
		kinds[i] = KindOf(ix)
	}
	return kinds
}

// SignerGetter resolves the descriptor's extra signers for tx.Sign.
func (d *TransactionDescriptor) SignerGetter(payer *solana.PrivateKey) func(solana.PublicKey) *solana.PrivateKey {
	return func(key solana.PublicKey) *solana.PrivateKey {
		if payer != nil && key.Equals(payer.PublicKey()) {
			return payer
		}
		for i := range d.Signers {
			if key.Equals(d.Signers[i].PublicKey()) {
				return &d.Signers[i]
			}
		}
		return nil
	}
}

// SerializedSize returns the wire size of tx once fully signed.
func SerializedSize(tx *solana.Transaction) (int, error) {
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n := int(tx.Message.Header.NumRequiredSignatures)
	return compactU16Len(n) + n*signatureSize + len(msg), nil
}

func compactU16Len(n int) int {
	switch {
	case n < 0x80:
		return 1
	case n < 0x4000:
		return 2
	default:
		return 3
	}
}

func newDescriptor(ixs []solana.Instruction, blockhash solana.Hash, payer solana.PublicKey) (*TransactionDescriptor, error) {
	tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}
	size, err := SerializedSize(tx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}
	return &TransactionDescriptor{
		Transaction:  tx,
		Instructions: ixs,
		FeePayer:     payer,
		Blockhash:    blockhash,
		Size:         size,
	}, nil
}

// BuildTokenCreationTx assembles the Token-2022 mint creation transaction:
// create account, metadata pointer, initialize mint, initialize metadata,
// then the payer's token account and the initial supply when they fit.
func BuildTokenCreationTx(ctx context.Context, conn ChainQuerier, params TokenParams, payer solana.PublicKey) (*TransactionDescriptor, error) {
	amount, err := MintAmount(params.Supply, params.Decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	mintKey := params.MintKey
	if len(mintKey) == 0 {
		mintKey, err = solana.NewRandomPrivateKey()
		if err != nil {
			return nil, fmt.Errorf("%w: generate mint: %v", ErrBuildFailed, err)
		}
	}
	mint := mintKey.PublicKey()

	mintLen := MintSizeWithMetadataPointer
	metadataLen := TokenMetadataLen(params.Name, params.Symbol, params.URI)
	lamports, err := conn.GetMinimumBalanceForRentExemption(ctx, uint64(mintLen+extensionHeaderSize+metadataLen))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	blockhash, err := conn.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	var freezeAuthority *solana.PublicKey
	if params.Freezeable {
		freezeAuthority = &payer
	}
	var pointerAuthority *solana.PublicKey
	if params.Updateable {
		pointerAuthority = &payer
	}

	createAccount, err := system.NewCreateAccountInstruction(lamports, uint64(mintLen), Token2022ProgramID, payer, mint).ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	ixs := []solana.Instruction{
		createAccount,
		NewInitializeMetadataPointerInstruction(mint, pointerAuthority, mint),
		NewInitializeMintInstruction(mint, params.Decimals, payer, freezeAuthority),
		NewInitializeTokenMetadataInstruction(mint, payer, payer, params.Name, params.Symbol, params.URI),
	}

	desc, err := newDescriptor(ixs, blockhash, payer)
	if err != nil {
		return nil, err
	}

	if desc.Size < MaxTransactionSize-supplyHeadroom {
		supplyIxs, _, err := supplyInstructions(payer, mint, amount)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
		}
		full, err := newDescriptor(append(append([]solana.Instruction{}, ixs...), supplyIxs...), blockhash, payer)
		if err != nil {
			return nil, err
		}
		if full.Size <= MaxTransactionSize {
			desc = full
		} else {
			desc.SupplyDeferred = true
		}
	} else {
		desc.SupplyDeferred = true
	}

	desc.Signers = []solana.PrivateKey{mintKey}
	desc.Mint = mint
	desc.MintAmount = amount

	fields := log.Fields{
		"mint":         mint.String(),
		"size":         desc.Size,
		"instructions": len(desc.Instructions),
	}
	if desc.SupplyDeferred {
		log.WithFields(fields).Warn("Initial supply does not fit in the creation transaction, minting separately")
	} else {
		log.WithFields(fields).Info("Built token creation transaction")
	}

	return desc, nil
}

func supplyInstructions(payer, mint solana.PublicKey, amount uint64) ([]solana.Instruction, solana.PublicKey, error) {
	createATA, ata, err := NewCreateAssociatedToken2022AccountInstruction(payer, payer, mint)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	return []solana.Instruction{
		createATA,
		NewMintToInstruction(mint, ata, payer, amount),
	}, ata, nil
}

// BuildSupplyMintTx creates the payer's token account and mints amount
// into it. It is the follow-up for a creation transaction whose supply was
// deferred.
func BuildSupplyMintTx(ctx context.Context, conn ChainQuerier, mint, payer solana.PublicKey, amount uint64) (*TransactionDescriptor, error) {
	blockhash, err := conn.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	ixs, _, err := supplyInstructions(payer, mint, amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	desc, err := newDescriptor(ixs, blockhash, payer)
	if err != nil {
		return nil, err
	}
	desc.Mint = mint
	desc.MintAmount = amount
	return desc, nil
}

// RevocationFlags selects the authorities to give up after creation.
type RevocationFlags struct {
	Updateable bool
	Mintable   bool
}

// BuildAuthorityRevocationTx removes the metadata update authority when
// the token is not updateable and the mint authority when it is not
// mintable. With nothing to revoke the returned descriptor is Empty and
// carries no transaction.
func BuildAuthorityRevocationTx(ctx context.Context, conn ChainQuerier, flags RevocationFlags, payer, mint solana.PublicKey) (*TransactionDescriptor, error) {
	var ixs []solana.Instruction
	if !flags.Updateable {
		ixs = append(ixs, NewUpdateTokenMetadataAuthorityInstruction(mint, payer, nil))
	}
	if !flags.Mintable {
		ixs = append(ixs, NewSetAuthorityInstruction(mint, payer, AuthorityMintTokens, nil))
	}
	if len(ixs) == 0 {
		return &TransactionDescriptor{FeePayer: payer, Mint: mint}, nil
	}

	blockhash, err := conn.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	desc, err := newDescriptor(ixs, blockhash, payer)
	if err != nil {
		return nil, err
	}
	desc.Mint = mint
	return desc, nil
}
