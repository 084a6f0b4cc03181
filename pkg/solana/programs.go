package solana

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Program IDs
var (
	PumpFunProgramID         = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	Token2022ProgramID       = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	AssociatedTokenProgramID = solana.SPLAssociatedTokenAccountProgramID
	SystemProgramID          = solana.SystemProgramID
	SysvarRentPubkey         = solana.SysVarRentPubkey
)

// Seeds for PDAs
var (
	SeedBondingCurve = []byte("bonding-curve")
)

// GetBondingCurvePDA derives the pump.fun bonding curve account for a mint.
func GetBondingCurvePDA(mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{SeedBondingCurve, mint.Bytes()},
		PumpFunProgramID,
	)
}

// Serialization helpers

func serializeString(str string) []byte {
	strBytes := []byte(str)
	lengthBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(lengthBytes, uint32(len(strBytes)))
	return append(lengthBytes, strBytes...)
}

func serializeU64(value uint64) []byte {
	bytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(bytes, value)
	return bytes
}

// serializeOptionalNonZeroPubkey encodes an absent key as 32 zero bytes.
func serializeOptionalNonZeroPubkey(pubkey *solana.PublicKey) []byte {
	if pubkey == nil {
		return make([]byte, solana.PublicKeyLength)
	}
	return pubkey.Bytes()
}

// serializeCOptionPubkey encodes a one byte presence flag followed by the key.
func serializeCOptionPubkey(pubkey *solana.PublicKey) []byte {
	out := make([]byte, 1+solana.PublicKeyLength)
	if pubkey != nil {
		out[0] = 1
		copy(out[1:], pubkey.Bytes())
	}
	return out
}
