package handler

import (
	"strings"

	"keystone/pkg/domain"
	dErrors "keystone/pkg/domain-errors"
)

// VerifyRequest is the body of POST /verify and POST /start-verification.
type VerifyRequest struct {
	WalletAddress    string `json:"walletAddress"`
	VerificationType string `json:"verificationType"`

	address domain.WalletAddress
	vtype   domain.VerificationType
}

func (r *VerifyRequest) Validate() error {
	if strings.TrimSpace(r.WalletAddress) == "" {
		return dErrors.New(dErrors.CodeValidation, "walletAddress is required")
	}
	addr, err := domain.ParseWalletAddress(r.WalletAddress)
	if err != nil {
		return err
	}
	t, err := domain.ParseVerificationType(r.VerificationType)
	if err != nil {
		return err
	}
	r.address, r.vtype = addr, t
	return nil
}

// requiredAddress parses a required address query parameter.
func requiredAddress(value, name string) (domain.WalletAddress, error) {
	if strings.TrimSpace(value) == "" {
		return "", dErrors.New(dErrors.CodeValidation, name+" parameter is required")
	}
	return domain.ParseWalletAddress(value)
}
