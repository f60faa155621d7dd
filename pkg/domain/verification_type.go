package domain

import (
	"strings"

	dErrors "keystone/pkg/domain-errors"
)

// VerificationType names a kind of verification held in a composite document.
//
// The well-known types get typed payloads; any other well-formed name is accepted
// and carried through as a generic record.
type VerificationType string

const (
	VerificationIdentity   VerificationType = "identity-verification"
	VerificationStudent    VerificationType = "student"
	VerificationAddress    VerificationType = "proof-of-address"
	VerificationSelfie     VerificationType = "selfie"
	VerificationEmployment VerificationType = "employment"

	// DefaultVerificationType is used when a request omits the type.
	DefaultVerificationType = VerificationIdentity
)

const maxVerificationTypeLen = 64

var knownVerificationTypes = map[VerificationType]bool{
	VerificationIdentity:   true,
	VerificationStudent:    true,
	VerificationAddress:    true,
	VerificationSelfie:     true,
	VerificationEmployment: true,
}

// ParseVerificationType validates a type name from external input. Blank input
// yields the default type.
func ParseVerificationType(s string) (VerificationType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultVerificationType, nil
	}
	if len(s) > maxVerificationTypeLen {
		return "", dErrors.New(dErrors.CodeValidation, "verificationType is too long")
	}
	for _, r := range s {
		if !isTypeRune(r) {
			return "", dErrors.New(dErrors.CodeValidation, "verificationType contains invalid characters")
		}
	}
	return VerificationType(s), nil
}

func isTypeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_', r == '.':
		return true
	}
	return false
}

// IsKnown reports whether the type has a dedicated payload shape.
func (t VerificationType) IsKnown() bool {
	return knownVerificationTypes[t]
}

func (t VerificationType) String() string { return string(t) }
