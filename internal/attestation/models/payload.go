package models

import (
	"maps"

	"keystone/pkg/domain"
)

// Payload is the type-specific part of a verification record. The set of
// implementations is closed; unknown verification types use GenericPayload.
type Payload interface {
	Type() domain.VerificationType
	// Fields returns the payload as wire key/values.
	Fields() map[string]any
	isPayload()
}

type IdentityPayload struct {
	IsOver18     bool
	Country      string
	DocumentType string
}

func (IdentityPayload) Type() domain.VerificationType { return domain.VerificationIdentity }
func (IdentityPayload) isPayload()                    {}
func (p IdentityPayload) Fields() map[string]any {
	return map[string]any{
		"is_over_18":    p.IsOver18,
		"country":       p.Country,
		"document_type": p.DocumentType,
	}
}

type StudentPayload struct {
	University     string
	StudentID      string
	GraduationYear string
}

func (StudentPayload) Type() domain.VerificationType { return domain.VerificationStudent }
func (StudentPayload) isPayload()                    {}
func (p StudentPayload) Fields() map[string]any {
	return map[string]any{
		"university":      p.University,
		"student_id":      p.StudentID,
		"graduation_year": p.GraduationYear,
	}
}

type AddressPayload struct {
	Address      string
	DocumentType string
}

func (AddressPayload) Type() domain.VerificationType { return domain.VerificationAddress }
func (AddressPayload) isPayload()                    {}
func (p AddressPayload) Fields() map[string]any {
	return map[string]any{
		"address":       p.Address,
		"document_type": p.DocumentType,
	}
}

type SelfiePayload struct {
	BiometricVerified bool
	LivenessScore     float64
}

func (SelfiePayload) Type() domain.VerificationType { return domain.VerificationSelfie }
func (SelfiePayload) isPayload()                    {}
func (p SelfiePayload) Fields() map[string]any {
	return map[string]any{
		"biometric_verified": p.BiometricVerified,
		"liveness_score":     p.LivenessScore,
	}
}

type EmploymentPayload struct {
	Company     string
	Position    string
	SalaryRange string
}

func (EmploymentPayload) Type() domain.VerificationType { return domain.VerificationEmployment }
func (EmploymentPayload) isPayload()                    {}
func (p EmploymentPayload) Fields() map[string]any {
	return map[string]any{
		"company":      p.Company,
		"position":     p.Position,
		"salary_range": p.SalaryRange,
	}
}

// GenericPayload carries fields for types without a dedicated shape, verbatim.
type GenericPayload struct {
	VerificationType domain.VerificationType
	Values           map[string]any
}

func (p GenericPayload) Type() domain.VerificationType { return p.VerificationType }
func (GenericPayload) isPayload()                      {}
func (p GenericPayload) Fields() map[string]any {
	if p.Values == nil {
		return map[string]any{}
	}
	return maps.Clone(p.Values)
}

// PayloadFor builds the typed view of stored fields. Known types whose stored
// fields do not have the expected JSON types fall back to GenericPayload.
func PayloadFor(t domain.VerificationType, fields map[string]any) Payload {
	r := fieldReader{fields: fields}
	var p Payload
	switch t {
	case domain.VerificationIdentity:
		p = IdentityPayload{
			IsOver18:     r.bool("is_over_18"),
			Country:      r.string("country"),
			DocumentType: r.string("document_type"),
		}
	case domain.VerificationStudent:
		p = StudentPayload{
			University:     r.string("university"),
			StudentID:      r.string("student_id"),
			GraduationYear: r.string("graduation_year"),
		}
	case domain.VerificationAddress:
		p = AddressPayload{
			Address:      r.string("address"),
			DocumentType: r.string("document_type"),
		}
	case domain.VerificationSelfie:
		p = SelfiePayload{
			BiometricVerified: r.bool("biometric_verified"),
			LivenessScore:     r.float("liveness_score"),
		}
	case domain.VerificationEmployment:
		p = EmploymentPayload{
			Company:     r.string("company"),
			Position:    r.string("position"),
			SalaryRange: r.string("salary_range"),
		}
	}
	if p == nil || r.mismatch {
		return GenericPayload{VerificationType: t, Values: maps.Clone(fields)}
	}
	return p
}

// fieldReader reads optional typed values; a present value of the wrong JSON
// type sets mismatch.
type fieldReader struct {
	fields   map[string]any
	mismatch bool
}

func (r *fieldReader) string(key string) string {
	v, ok := r.fields[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.mismatch = true
	}
	return s
}

func (r *fieldReader) bool(key string) bool {
	v, ok := r.fields[key]
	if !ok || v == nil {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		r.mismatch = true
	}
	return b
}

func (r *fieldReader) float(key string) float64 {
	v, ok := r.fields[key]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		r.mismatch = true
		return 0
	}
}
