package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keystone/pkg/domain"
)

var (
	testAddr = domain.MustWalletAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	t0       = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
)

func TestDocumentPutPreservesOtherTypes(t *testing.T) {
	doc := NewDocument(testAddr, t0)
	doc.Put(domain.VerificationIdentity, NewRecord(IdentityPayload{IsOver18: true, Country: "US"}, StatusVerified, t0), t0)
	doc.Put(domain.VerificationStudent, NewRecord(StudentPayload{University: "MIT"}, StatusVerified, t0), t0.Add(time.Minute))

	assert.Equal(t, []domain.VerificationType{domain.VerificationIdentity, domain.VerificationStudent}, doc.Types())
	assert.Equal(t, t0.Add(time.Minute), doc.LastUpdated)
}

func TestDocumentPutOverwrites(t *testing.T) {
	doc := NewDocument(testAddr, t0)
	first := NewRecord(StudentPayload{University: "MIT"}, StatusVerified, t0)
	first.BaseTxHash = "0x01"
	doc.Put(domain.VerificationStudent, first, t0)
	doc.Put(domain.VerificationStudent, NewRecord(StudentPayload{University: "Stanford"}, StatusVerified, t0), t0)

	rec, ok := doc.Record(domain.VerificationStudent)
	require.True(t, ok)
	assert.Equal(t, "Stanford", rec.Fields["university"])
	assert.Empty(t, rec.BaseTxHash, "overwrite replaces the whole record")
	assert.Len(t, doc.Verifications, 1)
}

func TestDocumentEncodeIsCanonical(t *testing.T) {
	doc := NewDocument(testAddr, t0)
	doc.Put(domain.VerificationStudent, NewRecord(StudentPayload{University: "MIT", StudentID: "12345", GraduationYear: "2025"}, StatusVerified, t0), t0)
	doc.AttachProof(domain.VerificationStudent, "0xabc", t0)

	a, err := doc.Encode()
	require.NoError(t, err)
	decoded, err := DecodeDocument(a)
	require.NoError(t, err)
	b, err := decoded.Encode()
	require.NoError(t, err)
	assert.Equal(t, a, b, "decoding and re-encoding is stable")

	assert.JSONEq(t, `{
		"walletAddress": "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"last_updated": "2025-05-01T10:00:00Z",
		"verifications": {
			"student": {
				"status": "Verified",
				"verified_at": "2025-05-01T10:00:00Z",
				"baseTxHash": "0xabc",
				"university": "MIT",
				"student_id": "12345",
				"graduation_year": "2025"
			}
		}
	}`, string(a))
}

func TestDecodeDocument(t *testing.T) {
	t.Run("keeps unknown fields and legacy timestamps", func(t *testing.T) {
		raw := `{
			"walletAddress": "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
			"last_updated": "2024-12-01T08:30:00.123Z",
			"verifications": {
				"credit-score": {"status": "Verified", "verified_at": "2024-12-01T08:30:00.123Z", "score": 712, "bureau": "X"}
			}
		}`
		doc, err := DecodeDocument([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, testAddr, doc.WalletAddress)

		rec, ok := doc.Record("credit-score")
		require.True(t, ok)
		assert.True(t, rec.IsVerified())
		assert.Equal(t, float64(712), rec.Fields["score"])

		out, err := doc.Encode()
		require.NoError(t, err)
		var round map[string]any
		require.NoError(t, json.Unmarshal(out, &round))
		assert.Equal(t, "X", round["verifications"].(map[string]any)["credit-score"].(map[string]any)["bureau"])
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		_, err := DecodeDocument([]byte(`{"walletAddress":`))
		assert.Error(t, err)
	})

	t.Run("rejects missing verifications", func(t *testing.T) {
		_, err := DecodeDocument([]byte(`{"walletAddress":"0x1"}`))
		assert.Error(t, err)
	})

	t.Run("rejects non-object record", func(t *testing.T) {
		_, err := DecodeDocument([]byte(`{"walletAddress":"0x1","verifications":{"student":"yes"}}`))
		assert.Error(t, err)
	})

	t.Run("rejects bad timestamp", func(t *testing.T) {
		_, err := DecodeDocument([]byte(`{"verifications":{"student":{"status":"Verified","verified_at":"yesterday"}}}`))
		assert.Error(t, err)
	})
}

func TestProofTxHashLegacyKey(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"status":"Verified","transactionHash":"0xold"}`), &rec))
	assert.Equal(t, "0xold", rec.ProofTxHash())

	rec.BaseTxHash = "0xnew"
	assert.Equal(t, "0xnew", rec.ProofTxHash())
}

func TestPayloadFor(t *testing.T) {
	t.Run("typed view of known type", func(t *testing.T) {
		p := PayloadFor(domain.VerificationSelfie, map[string]any{"biometric_verified": true, "liveness_score": 0.95})
		assert.Equal(t, SelfiePayload{BiometricVerified: true, LivenessScore: 0.95}, p)
	})

	t.Run("wrong field type falls back to generic", func(t *testing.T) {
		fields := map[string]any{"university": 42}
		p := PayloadFor(domain.VerificationStudent, fields)
		g, ok := p.(GenericPayload)
		require.True(t, ok)
		assert.Equal(t, domain.VerificationStudent, g.Type())
		assert.Equal(t, fields, g.Fields())
	})

	t.Run("unknown type is generic", func(t *testing.T) {
		p := PayloadFor("kyb", map[string]any{"company_number": "123"})
		assert.Equal(t, domain.VerificationType("kyb"), p.Type())
		assert.Equal(t, "123", p.Fields()["company_number"])
	})

	t.Run("round trip through fields", func(t *testing.T) {
		in := EmploymentPayload{Company: "Tech Corp", Position: "Software Engineer", SalaryRange: "100k-150k"}
		assert.Equal(t, in, PayloadFor(in.Type(), in.Fields()))
	})
}

func TestNewVerification(t *testing.T) {
	v := NewVerification(StudentPayload{University: "MIT"}, StatusVerified, t0)
	assert.Equal(t, domain.VerificationStudent, v.Type)
	assert.Equal(t, StatusVerified, v.Record.Status)
	assert.Equal(t, t0, v.Record.VerifiedAt)
}
