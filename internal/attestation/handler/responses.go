package handler

import (
	"maps"
	"time"

	"keystone/internal/attestation/ledger"
	"keystone/internal/attestation/models"
	"keystone/pkg/domain"
)

const (
	anonymousRequester = "anonymous"
	missingProof       = "N/A"
)

type VerifyResponse struct {
	Success          bool   `json:"success"`
	CID              string `json:"cid"`
	TransactionHash  string `json:"transactionHash"`
	VerificationType string `json:"verification_type"`
	VerifiedAt       string `json:"verified_at"`
}

// StartVerificationResponse extends VerifyResponse with the fields the wallet
// UI reads.
type StartVerificationResponse struct {
	VerifyResponse
	Status        string `json:"status"`
	WalletAddress string `json:"walletAddress"`
	BaseTxHash    string `json:"baseTxHash"`
}

type VerificationsResponse struct {
	WalletAddress string           `json:"walletAddress"`
	Verifications []map[string]any `json:"verifications"`
	RequestedBy   string           `json:"requestedBy"`
}

type StatusResponse struct {
	IsVerified bool   `json:"isVerified"`
	CID        string `json:"cid,omitempty"`
	Message    string `json:"message,omitempty"`
}

type AnchorStatusResponse struct {
	TransactionHash string `json:"transactionHash"`
	Status          string `json:"status"`
	BlockNumber     uint64 `json:"blockNumber,omitempty"`
}

func toVerifyResponse(t domain.VerificationType, res *models.AnchorResult) VerifyResponse {
	return VerifyResponse{
		Success:          true,
		CID:              res.CID,
		TransactionHash:  res.TransactionHash,
		VerificationType: t.String(),
		VerifiedAt:       res.VerifiedAt.UTC().Format(time.RFC3339Nano),
	}
}

// toVerificationEntry flattens a view: record fields first, then the typed
// payload fields, then the entry keys. Known types always carry their full
// field set.
func toVerificationEntry(v models.VerificationView) map[string]any {
	entry := map[string]any{}
	if v.Record != nil {
		entry = v.Record.Wire()
		payload := v.Payload
		if payload == nil {
			payload = models.PayloadFor(v.Type, v.Record.Fields)
		}
		maps.Copy(entry, payload.Fields())
	}
	entry["verification_type"] = v.Type.String()
	entry["is_verified"] = v.IsVerified
	entry["cid"] = v.CID
	entry["consented"] = v.Consented

	if v.Degraded() {
		entry["baseTxHash"] = missingProof
		entry["error"] = v.Error
		return entry
	}
	if proof := v.Record.ProofTxHash(); proof != "" {
		entry["baseTxHash"] = proof
	}
	return entry
}

func toStatusResponse(res *models.StatusResult) StatusResponse {
	return StatusResponse{IsVerified: res.IsVerified, CID: res.CID}
}

func toAnchorStatusResponse(s *ledger.AnchorStatus) AnchorStatusResponse {
	return AnchorStatusResponse{
		TransactionHash: s.TxHash,
		Status:          string(s.Status),
		BlockNumber:     s.BlockNumber,
	}
}
