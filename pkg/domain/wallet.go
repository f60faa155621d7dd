package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	dErrors "keystone/pkg/domain-errors"
)

// WalletAddress is an EVM account address in canonical form: 0x-prefixed,
// 40 lowercase hex digits.
//
// Construct via ParseWalletAddress at trust boundaries; every map key, ledger
// call and stored document uses the canonical form so two spellings of the same
// account never diverge.
type WalletAddress string

// ParseWalletAddress validates and canonicalizes external input.
func ParseWalletAddress(s string) (WalletAddress, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "wallet address is required")
	}
	if !common.IsHexAddress(s) || !strings.HasPrefix(strings.ToLower(s), "0x") {
		return "", dErrors.New(dErrors.CodeValidation, "wallet address must be a 0x-prefixed 20-byte hex address")
	}
	return WalletAddress(strings.ToLower(s)), nil
}

// MustWalletAddress is ParseWalletAddress for constants and tests.
func MustWalletAddress(s string) WalletAddress {
	addr, err := ParseWalletAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// AddressFromCommon converts a go-ethereum address.
func AddressFromCommon(a common.Address) WalletAddress {
	return WalletAddress(strings.ToLower(a.Hex()))
}

func (a WalletAddress) String() string { return string(a) }

// Common returns the go-ethereum representation.
func (a WalletAddress) Common() common.Address {
	return common.HexToAddress(string(a))
}

func (a WalletAddress) IsZero() bool { return a == "" }

// Equal compares addresses case-insensitively so uncanonicalized values still match.
func (a WalletAddress) Equal(other WalletAddress) bool {
	return strings.EqualFold(string(a), string(other))
}
