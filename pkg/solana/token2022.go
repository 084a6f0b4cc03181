package solana

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Token-2022 instruction tags.
const (
	token2022InitializeMint           byte = 0
	token2022SetAuthority             byte = 6
	token2022MintTo                   byte = 7
	token2022MetadataPointerExtension byte = 39
	metadataPointerInitialize         byte = 0
)

// AuthorityType selects which authority SetAuthority replaces.
type AuthorityType byte

const (
	AuthorityMintTokens    AuthorityType = 0
	AuthorityFreezeAccount AuthorityType = 1
)

// Account sizes used for rent and space calculation.
const (
	tokenAccountSize       = 165
	accountTypeSize        = 1
	extensionHeaderSize    = 4 // u16 type + u16 length
	metadataPointerDataLen = 64

	// MintSizeWithMetadataPointer is the mint account space with the
	// metadata pointer extension enabled.
	MintSizeWithMetadataPointer = tokenAccountSize + accountTypeSize + extensionHeaderSize + metadataPointerDataLen
)

var (
	tokenMetadataInitializeDiscriminator      = interfaceDiscriminator("spl_token_metadata_interface:initialize_account")
	tokenMetadataUpdateAuthorityDiscriminator = interfaceDiscriminator("spl_token_metadata_interface:update_the_authority")
)

func interfaceDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte(name))
	return sum[:8]
}

// TokenMetadataLen is the packed size of an on-chain metadata entry with no
// additional key/value pairs.
func TokenMetadataLen(name, symbol, uri string) int {
	return solana.PublicKeyLength + // update authority
		solana.PublicKeyLength + // mint
		4 + len(name) +
		4 + len(symbol) +
		4 + len(uri) +
		4 // empty additional metadata vec
}

// NewInitializeMetadataPointerInstruction points the mint's metadata at
// metadataAddress. A nil authority leaves the pointer unchangeable.
func NewInitializeMetadataPointerInstruction(mint solana.PublicKey, authority *solana.PublicKey, metadataAddress solana.PublicKey) solana.Instruction {
	data := bytes.Join([][]byte{
		{token2022MetadataPointerExtension, metadataPointerInitialize},
		serializeOptionalNonZeroPubkey(authority),
		metadataAddress.Bytes(),
	}, nil)

	accounts := []*solana.AccountMeta{
		{PublicKey: mint, IsWritable: true, IsSigner: false},
	}
	return solana.NewInstruction(Token2022ProgramID, accounts, data)
}

// NewInitializeMintInstruction initializes a Token-2022 mint. A nil
// freezeAuthority creates a mint whose accounts can never be frozen.
func NewInitializeMintInstruction(mint solana.PublicKey, decimals uint8, mintAuthority solana.PublicKey, freezeAuthority *solana.PublicKey) solana.Instruction {
	data := bytes.Join([][]byte{
		{token2022InitializeMint, decimals},
		mintAuthority.Bytes(),
		serializeCOptionPubkey(freezeAuthority),
	}, nil)

	accounts := []*solana.AccountMeta{
		{PublicKey: mint, IsWritable: true, IsSigner: false},
		{PublicKey: SysvarRentPubkey, IsWritable: false, IsSigner: false},
	}
	return solana.NewInstruction(Token2022ProgramID, accounts, data)
}

// NewInitializeTokenMetadataInstruction writes name, symbol and uri into
// the metadata stored on the mint itself.
func NewInitializeTokenMetadataInstruction(mint, updateAuthority, mintAuthority solana.PublicKey, name, symbol, uri string) solana.Instruction {
	data := bytes.Join([][]byte{
		tokenMetadataInitializeDiscriminator,
		serializeString(name),
		serializeString(symbol),
		serializeString(uri),
	}, nil)

	accounts := []*solana.AccountMeta{
		{PublicKey: mint, IsWritable: true, IsSigner: false},
		{PublicKey: updateAuthority, IsWritable: false, IsSigner: false},
		{PublicKey: mint, IsWritable: false, IsSigner: false},
		{PublicKey: mintAuthority, IsWritable: false, IsSigner: true},
	}
	return solana.NewInstruction(Token2022ProgramID, accounts, data)
}

// NewUpdateTokenMetadataAuthorityInstruction replaces the metadata update
// authority. A nil newAuthority makes the metadata immutable.
func NewUpdateTokenMetadataAuthorityInstruction(metadata, currentAuthority solana.PublicKey, newAuthority *solana.PublicKey) solana.Instruction {
	data := bytes.Join([][]byte{
		tokenMetadataUpdateAuthorityDiscriminator,
		serializeOptionalNonZeroPubkey(newAuthority),
	}, nil)

	accounts := []*solana.AccountMeta{
		{PublicKey: metadata, IsWritable: true, IsSigner: false},
		{PublicKey: currentAuthority, IsWritable: false, IsSigner: true},
	}
	return solana.NewInstruction(Token2022ProgramID, accounts, data)
}

// NewSetAuthorityInstruction replaces an authority on a mint or token
// account. A nil newAuthority revokes it permanently.
func NewSetAuthorityInstruction(account, currentAuthority solana.PublicKey, authorityType AuthorityType, newAuthority *solana.PublicKey) solana.Instruction {
	data := bytes.Join([][]byte{
		{token2022SetAuthority, byte(authorityType)},
		serializeCOptionPubkey(newAuthority),
	}, nil)

	accounts := []*solana.AccountMeta{
		{PublicKey: account, IsWritable: true, IsSigner: false},
		{PublicKey: currentAuthority, IsWritable: false, IsSigner: true},
	}
	return solana.NewInstruction(Token2022ProgramID, accounts, data)
}

func NewMintToInstruction(mint, destination, authority solana.PublicKey, amount uint64) solana.Instruction {
	data := append([]byte{token2022MintTo}, serializeU64(amount)...)

	accounts := []*solana.AccountMeta{
		{PublicKey: mint, IsWritable: true, IsSigner: false},
		{PublicKey: destination, IsWritable: true, IsSigner: false},
		{PublicKey: authority, IsWritable: false, IsSigner: true},
	}
	return solana.NewInstruction(Token2022ProgramID, accounts, data)
}

// FindAssociatedToken2022Address derives owner's associated account for a
// Token-2022 mint.
func FindAssociatedToken2022Address(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{owner.Bytes(), Token2022ProgramID.Bytes(), mint.Bytes()},
		AssociatedTokenProgramID,
	)
	return addr, err
}

// NewCreateAssociatedToken2022AccountInstruction creates owner's associated
// account for mint, funded by payer.
func NewCreateAssociatedToken2022AccountInstruction(payer, owner, mint solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	ata, err := FindAssociatedToken2022Address(owner, mint)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: payer, IsWritable: true, IsSigner: true},
		{PublicKey: ata, IsWritable: true, IsSigner: false},
		{PublicKey: owner, IsWritable: false, IsSigner: false},
		{PublicKey: mint, IsWritable: false, IsSigner: false},
		{PublicKey: SystemProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: Token2022ProgramID, IsWritable: false, IsSigner: false},
	}
	return solana.NewInstruction(AssociatedTokenProgramID, accounts, []byte{}), ata, nil
}

// InstructionKind names the operations the launch builders emit.
type InstructionKind string

const (
	KindCreateAccount           InstructionKind = "create_account"
	KindInitMetadataPointer     InstructionKind = "initialize_metadata_pointer"
	KindInitMint                InstructionKind = "initialize_mint"
	KindInitTokenMetadata       InstructionKind = "initialize_token_metadata"
	KindUpdateMetadataAuthority InstructionKind = "update_metadata_authority"
	KindSetAuthority            InstructionKind = "set_authority"
	KindMintTo                  InstructionKind = "mint_to"
	KindCreateATA               InstructionKind = "create_associated_token_account"
	KindUnknown                 InstructionKind = "unknown"
)

// KindOf classifies an instruction built by this package.
func KindOf(ix solana.Instruction) InstructionKind {
	data, err := ix.Data()
	if err != nil {
		return KindUnknown
	}

	switch ix.ProgramID() {
	case SystemProgramID:
		if len(data) >= 4 && binary.LittleEndian.Uint32(data) == 0 {
			return KindCreateAccount
		}
	case AssociatedTokenProgramID:
		return KindCreateATA
	case Token2022ProgramID:
		if len(data) >= 8 {
			switch {
			case bytes.Equal(data[:8], tokenMetadataInitializeDiscriminator):
				return KindInitTokenMetadata
			case bytes.Equal(data[:8], tokenMetadataUpdateAuthorityDiscriminator):
				return KindUpdateMetadataAuthority
			}
		}
		if len(data) == 0 {
			return KindUnknown
		}
		switch data[0] {
		case token2022InitializeMint:
			return KindInitMint
		case token2022SetAuthority:
			return KindSetAuthority
		case token2022MintTo:
			return KindMintTo
		case token2022MetadataPointerExtension:
			return KindInitMetadataPointer
		}
	}
	return KindUnknown
}
