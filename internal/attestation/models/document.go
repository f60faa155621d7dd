package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"keystone/pkg/domain"
)

// Document is the composite attestation document stored under one CID.
//
// Invariants:
//   - at most one record per verification type
//   - merging a record never drops records of other types
//   - a document is immutable once uploaded; a change is a new upload
type Document struct {
	WalletAddress domain.WalletAddress                `json:"walletAddress"`
	Verifications map[domain.VerificationType]Record `json:"verifications"`
	LastUpdated   time.Time                           `json:"last_updated"`
}

// NewDocument returns an empty document for addr.
func NewDocument(addr domain.WalletAddress, now time.Time) *Document {
	return &Document{
		WalletAddress: addr,
		Verifications: make(map[domain.VerificationType]Record),
		LastUpdated:   now.UTC(),
	}
}

// Put inserts or fully replaces the record for t.
func (d *Document) Put(t domain.VerificationType, rec Record, now time.Time) {
	if d.Verifications == nil {
		d.Verifications = make(map[domain.VerificationType]Record)
	}
	d.Verifications[t] = rec.Clone()
	d.LastUpdated = now.UTC()
}

// AttachProof stamps the anchoring transaction hash on the record for t.
func (d *Document) AttachProof(t domain.VerificationType, txHash string, now time.Time) bool {
	rec, ok := d.Verifications[t]
	if !ok {
		return false
	}
	rec.BaseTxHash = txHash
	d.Verifications[t] = rec
	d.LastUpdated = now.UTC()
	return true
}

// Record returns the record for t.
func (d *Document) Record(t domain.VerificationType) (Record, bool) {
	rec, ok := d.Verifications[t]
	return rec, ok
}

// Types returns the verification types present in the document.
func (d *Document) Types() []domain.VerificationType {
	return sortedKeys(d.Verifications)
}

// Encode produces the canonical serialization: object keys sorted, no
// insignificant whitespace.
func (d *Document) Encode() ([]byte, error) {
	return json.Marshal(d)
}

// DecodeDocument parses stored content and checks its shape.
func DecodeDocument(data []byte) (*Document, error) {
	var wire struct {
		WalletAddress string                     `json:"walletAddress"`
		Verifications map[string]json.RawMessage `json:"verifications"`
		LastUpdated   *time.Time                 `json:"last_updated"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if wire.Verifications == nil {
		return nil, fmt.Errorf("decode document: verifications must be an object")
	}

	doc := &Document{
		// Stored documents may predate canonical addresses.
		WalletAddress: domain.WalletAddress(strings.ToLower(strings.TrimSpace(wire.WalletAddress))),
		Verifications: make(map[domain.VerificationType]Record, len(wire.Verifications)),
	}
	if wire.LastUpdated != nil {
		doc.LastUpdated = wire.LastUpdated.UTC()
	}
	for t, raw := range wire.Verifications {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode document: verification %q: %w", t, err)
		}
		doc.Verifications[domain.VerificationType(t)] = rec
	}
	return doc, nil
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}
