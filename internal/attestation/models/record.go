package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Status is the outcome recorded for a verification.
type Status string

const (
	StatusVerified   Status = "Verified"
	StatusUnverified Status = "Unverified"
)

// Wire keys owned by Record itself; everything else belongs to the payload.
const (
	keyStatus          = "status"
	keyVerifiedAt      = "verified_at"
	keyBaseTxHash      = "baseTxHash"
	keyTransactionHash = "transactionHash"
)

// Record is one verification entry inside a composite document. It is encoded as
// a flat JSON object: status, verified_at, baseTxHash and the payload fields side
// by side. Fields keeps payload keys verbatim, including ones this service does
// not understand.
type Record struct {
	Status     Status
	VerifiedAt time.Time
	// BaseTxHash is set only once the ledger write that anchored this record succeeded.
	BaseTxHash string
	Fields     map[string]any
}

// NewRecord builds a record from a typed payload.
func NewRecord(p Payload, status Status, verifiedAt time.Time) Record {
	return Record{
		Status:     status,
		VerifiedAt: verifiedAt.UTC(),
		Fields:     p.Fields(),
	}
}

func (r Record) IsVerified() bool { return r.Status == StatusVerified }

// ProofTxHash returns BaseTxHash, falling back to the legacy transactionHash key.
func (r Record) ProofTxHash() string {
	if r.BaseTxHash != "" {
		return r.BaseTxHash
	}
	if s, ok := r.Fields[keyTransactionHash].(string); ok {
		return s
	}
	return ""
}

// Clone returns a deep-enough copy for independent mutation.
func (r Record) Clone() Record {
	r.Fields = maps.Clone(r.Fields)
	return r
}

// Wire returns the flat key/value form used on the wire.
func (r Record) Wire() map[string]any {
	out := make(map[string]any, len(r.Fields)+3)
	maps.Copy(out, r.Fields)
	out[keyStatus] = string(r.Status)
	if !r.VerifiedAt.IsZero() {
		out[keyVerifiedAt] = r.VerifiedAt.UTC().Format(time.RFC3339Nano)
	}
	if r.BaseTxHash != "" {
		out[keyBaseTxHash] = r.BaseTxHash
	}
	return out
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Wire())
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("verification record must be an object")
	}

	var rec Record
	if v, ok := raw[keyStatus]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("status must be a string")
		}
		rec.Status = Status(s)
	}
	if v, ok := raw[keyVerifiedAt]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("verified_at must be a string")
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("verified_at: %w", err)
		}
		rec.VerifiedAt = t.UTC()
	}
	if v, ok := raw[keyBaseTxHash].(string); ok {
		rec.BaseTxHash = v
	}

	delete(raw, keyStatus)
	delete(raw, keyVerifiedAt)
	delete(raw, keyBaseTxHash)
	rec.Fields = raw
	*r = rec
	return nil
}
