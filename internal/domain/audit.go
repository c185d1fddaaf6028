package domain

import (
	"context"
	"encoding/json"
	"time"
)

// AuditLog represents an audit trail entry for compliance and debugging
type AuditLog struct {
	ID           string
	UserID       string // Who performed the action
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	UserAgent    string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionAccountOpen    AuditAction = "account.open"
	AuditActionAgentApprove   AuditAction = "agent.approve"
	AuditActionCashInRequest  AuditAction = "cash_in.request"
	AuditActionCashInApprove  AuditAction = "cash_in.approve"
	AuditActionCashInReject   AuditAction = "cash_in.reject"
	AuditActionCashOutRequest AuditAction = "cash_out.request"
	AuditActionSendMoney      AuditAction = "send_money"
	AuditActionBonusCredit    AuditAction = "bonus.credit"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// RequestMeta carries caller details for the audit trail.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	RequestID string
}

type requestMetaKey struct{}

// ContextWithRequestMeta stores m in ctx.
func ContextWithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, m)
}

// RequestMetaFromContext returns the caller details stored in ctx, if any.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	m, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return m
}

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter narrows audit log queries. Empty fields match everything.
type AuditFilter struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}
