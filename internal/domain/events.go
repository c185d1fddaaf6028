package domain

import "time"

// Event types
const (
	EventTypeCashInRequested  = "cash_in.requested"
	EventTypeCashInApproved   = "cash_in.approved"
	EventTypeCashInRejected   = "cash_in.rejected"
	EventTypeCashOutSettled   = "cash_out.settled"
	EventTypeSendMoneySettled = "send_money.settled"
	EventTypeBonusCredited    = "bonus.credited"
	EventTypeAccountOpened    = "account.opened"
	EventTypeAgentApproved    = "agent.approved"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypeAccount     = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransactionEvent is the payload of every transaction.* event.
type TransactionEvent struct {
	TransactionID string `json:"transaction_id"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	FromAccountID string `json:"from_account_id,omitempty"`
	ToAccountID   string `json:"to_account_id"`
	Amount        string `json:"amount"`
	Fee           string `json:"fee"`
	EventAt       string `json:"event_at"`
}

// AccountEvent payload
type AccountEvent struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Status    string `json:"status"`
}

// SettlementEventType maps a transaction in its current status to its event type.
func SettlementEventType(tx *Transaction) string {
	switch tx.Type {
	case TransactionCashIn:
		switch tx.Status {
		case StatusApproved:
			return EventTypeCashInApproved
		case StatusRejected:
			return EventTypeCashInRejected
		}
		return EventTypeCashInRequested
	case TransactionCashOut:
		return EventTypeCashOutSettled
	case TransactionSendMoney:
		return EventTypeSendMoneySettled
	}
	return EventTypeBonusCredited
}

// NewTransactionEvent builds the outbox payload for tx.
func NewTransactionEvent(tx *Transaction) TransactionEvent {
	return TransactionEvent{
		TransactionID: tx.ID,
		Type:          string(tx.Type),
		Status:        string(tx.Status),
		FromAccountID: tx.FromAccountID,
		ToAccountID:   tx.ToAccountID,
		Amount:        tx.Amount.StringFixed(AmountScale),
		Fee:           tx.Fee.StringFixed(AmountScale),
		EventAt:       tx.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
