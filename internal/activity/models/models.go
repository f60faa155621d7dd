package models

import (
	"time"

	"github.com/google/uuid"

	"keystone/pkg/domain"
)

// Kind classifies an activity entry.
type Kind string

const (
	KindVerificationAdded Kind = "verification_added"
	KindThirdPartyRequest Kind = "third_party_request"
	KindStatusChecked     Kind = "status_checked"
)

// Event is what callers report. Request metadata is filled in when recorded.
type Event struct {
	WalletAddress    domain.WalletAddress
	Kind             Kind
	Description      string
	VerificationType domain.VerificationType
	AppName          string
	Status           string
}

// Activity is a recorded event with its request metadata.
type Activity struct {
	ID               uuid.UUID               `json:"id"`
	WalletAddress    domain.WalletAddress    `json:"walletAddress"`
	Kind             Kind                    `json:"type"`
	Timestamp        time.Time               `json:"timestamp"`
	Description      string                  `json:"description"`
	VerificationType domain.VerificationType `json:"verificationType,omitempty"`
	AppName          string                  `json:"appName,omitempty"`
	Status           string                  `json:"status,omitempty"`
	Endpoint         string                  `json:"endpoint,omitempty"`
	Method           string                  `json:"method,omitempty"`
	ClientIP         string                  `json:"ip,omitempty"`
	UserAgent        string                  `json:"userAgent,omitempty"`
	Browser          string                  `json:"browser,omitempty"`
	OS               string                  `json:"os,omitempty"`
}
