package models

import (
	"fmt"
	"time"
)

// OwnerKind names the record types a document can be attached to.
type OwnerKind string

const (
	OwnerClient OwnerKind = "client"
	OwnerPolicy OwnerKind = "policy"
	OwnerClaim  OwnerKind = "claim"
)

// OwnerRef points a document at the record it belongs to.
type OwnerRef struct {
	Kind OwnerKind
	ID   int64
}

// ParseOwnerKind validates a kind received from a request.
func ParseOwnerKind(s string) (OwnerKind, error) {
	switch k := OwnerKind(s); k {
	case OwnerClient, OwnerPolicy, OwnerClaim:
		return k, nil
	default:
		return "", fmt.Errorf("unknown document owner kind %q", s)
	}
}

func (r OwnerRef) String() string {
	return fmt.Sprintf("%s/%d", r.Kind, r.ID)
}

// Document is an uploaded file attached to a client, policy or claim.
type Document struct {
	UploadedAt  time.Time
	Owner       OwnerRef
	Title       string
	ObjectKey   string
	ContentType string
	SizeBytes   int64
	ID          int64
	AgentID     AgentID
}
