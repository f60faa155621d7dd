// Package walletsig verifies EIP-191 personal_sign signatures, which is how
// third parties prove they act for a wallet before reading its status.
package walletsig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"

	"keystone/pkg/domain"
	dErrors "keystone/pkg/domain-errors"
)

// ChallengeMessage is the text wallets sign to authorize a status check.
const ChallengeMessage = "Allow this dApp to check my verification status."

const signatureLength = 65

// HashMessage returns keccak256("\x19Ethereum Signed Message:\n" + len(msg) + msg).
func HashMessage(msg []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte("\x19Ethereum Signed Message:\n" + strconv.Itoa(len(msg))))
	h.Write(msg)
	return h.Sum(nil)
}

// Recover returns the wallet that produced signature over message. The recovery
// byte may be 0/1 or 27/28.
func Recover(message, signature string) (domain.WalletAddress, error) {
	sigHex := strings.TrimSpace(signature)
	if !strings.HasPrefix(sigHex, "0x") && !strings.HasPrefix(sigHex, "0X") {
		sigHex = "0x" + sigHex
	}
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return "", fmt.Errorf("decode signature: %w", err)
	}
	if len(sig) != signatureLength {
		return "", fmt.Errorf("signature must be %d bytes, got %d", signatureLength, len(sig))
	}
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return "", fmt.Errorf("invalid recovery id %d", sig[64])
	}

	pub, err := crypto.SigToPub(HashMessage([]byte(message)), sig)
	if err != nil {
		return "", fmt.Errorf("recover public key: %w", err)
	}
	return domain.AddressFromCommon(crypto.PubkeyToAddress(*pub)), nil
}

// Verifier checks signatures over a fixed challenge.
type Verifier struct {
	message string
}

func NewVerifier(message string) *Verifier {
	if message == "" {
		message = ChallengeMessage
	}
	return &Verifier{message: message}
}

// Verify returns a signature_invalid error unless signature was made by addr.
func (v *Verifier) Verify(addr domain.WalletAddress, signature string) error {
	signer, err := Recover(v.message, signature)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeSignatureInvalid, "Invalid signature")
	}
	if !signer.Equal(addr) {
		return dErrors.New(dErrors.CodeSignatureInvalid, "Signature does not match wallet address")
	}
	return nil
}
