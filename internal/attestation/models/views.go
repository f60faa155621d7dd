package models

import (
	"time"

	"keystone/pkg/domain"
)

// Verification is a type plus the record to store under it.
type Verification struct {
	Type   domain.VerificationType
	Record Record
}

// NewVerification builds a verification from a typed payload.
func NewVerification(p Payload, status Status, verifiedAt time.Time) Verification {
	return Verification{Type: p.Type(), Record: NewRecord(p, status, verifiedAt)}
}

// AnchorResult is the outcome of a successful RecordVerification.
type AnchorResult struct {
	// CID is the latest successfully uploaded document: the proof-bearing copy if
	// the second upload worked, the anchored provisional copy otherwise.
	CID string
	// AnchoredCID is the CID the ledger points at.
	AnchoredCID     string
	TransactionHash string
	VerifiedAt      time.Time
	ProofPublished  bool
}

// DegradedDetail is the error text for list entries whose document could not be read.
const DegradedDetail = "details unavailable"

// VerificationView is one entry of ListVerifications.
type VerificationView struct {
	Type       domain.VerificationType
	IsVerified bool
	CID        string
	Consented  bool
	// Record and Payload are nil for degraded entries.
	Record  *Record
	Payload Payload
	Error   string
}

// Degraded reports whether the document behind this entry could not be read.
func (v VerificationView) Degraded() bool { return v.Record == nil }

// StatusResult answers "is this wallet verified" checks.
type StatusResult struct {
	IsVerified bool
	CID        string
}
