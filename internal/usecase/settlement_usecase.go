package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/infrastructure/metrics"
)

// SettlementConfig holds the tunables of the engine.
type SettlementConfig struct {
	FeePolicy    domain.FeePolicy
	FeeAccountID string
}

// SettlementUseCase creates, authorizes and finalizes money movements.
// Every mutation runs as one unit: the transaction record, entries, balance
// writes, outbox event and audit log commit together or not at all.
type SettlementUseCase struct {
	txManager       TransactionManager
	accounts        *AccountStore
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	outboxRepo      OutboxRepository
	auditRepo       AuditRepository
	idGen           IDGenerator
	retrier         Retrier
	fees            domain.FeePolicy
	feeAccountID    string
	metrics         *metrics.Metrics
	logger          zerolog.Logger
	now             func() time.Time
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(
	txManager TransactionManager,
	accounts *AccountStore,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	retrier Retrier,
	cfg SettlementConfig,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *SettlementUseCase {
	fees := cfg.FeePolicy
	if fees == nil {
		fees = domain.FeeScheduleV1{}
	}

	feeAccountID := cfg.FeeAccountID
	if feeAccountID == "" {
		feeAccountID = DefaultFeeAccountID
	}

	return &SettlementUseCase{
		txManager:       txManager,
		accounts:        accounts,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
		auditRepo:       auditRepo,
		idGen:           idGen,
		retrier:         retrier,
		fees:            fees,
		feeAccountID:    feeAccountID,
		metrics:         metrics,
		logger:          logger.With().Str("component", "settlement").Logger(),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Operation names used in logs, metrics and storage failures.
const (
	OpRequestCashIn  = "request_cash_in"
	OpApproveCashIn  = "approve_cash_in"
	OpRejectCashIn   = "reject_cash_in"
	OpRequestCashOut = "request_cash_out"
	OpSendMoney      = "send_money"
)

// CashInInput represents a user's request to deposit cash with an agent.
type CashInInput struct {
	// Agent is the agent's account id or mobile number.
	Agent       string
	Amount      decimal.Decimal
	Description string
}

// CashOutInput represents a user's withdrawal through an agent.
type CashOutInput struct {
	Agent       string
	Amount      decimal.Decimal
	Description string
}

// SendMoneyInput represents a peer transfer.
type SendMoneyInput struct {
	// Recipient is the receiving user's account id or mobile number.
	Recipient   string
	Amount      decimal.Decimal
	Description string
}

// RequestCashIn records a pending cash-in addressed to an approved agent.
// No balance moves until the agent approves.
func (uc *SettlementUseCase) RequestCashIn(ctx context.Context, principal domain.Principal, input CashInInput) (*domain.Transaction, error) {
	start := time.Now()

	if err := domain.CapRequestCashIn.Authorize(principal); err != nil {
		return nil, uc.fail(OpRequestCashIn, err)
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, uc.fail(OpRequestCashIn, err)
	}

	agent, err := uc.resolveAgent(ctx, input.Agent)
	if err != nil {
		return nil, uc.fail(OpRequestCashIn, err)
	}

	if agent.ID == principal.ID {
		return nil, uc.fail(OpRequestCashIn, fmt.Errorf("%w: cannot cash in with yourself", domain.ErrInvalidParties))
	}

	if _, err := uc.requireAccount(ctx, principal.ID); err != nil {
		return nil, uc.fail(OpRequestCashIn, err)
	}

	var result *domain.Transaction

	err = uc.unit(ctx, func(ctx context.Context, tx Transaction) error {
		now := uc.now()
		t := &domain.Transaction{
			ID:               uc.idGen.Generate(),
			Type:             domain.TransactionCashIn,
			FromAccountID:    principal.ID,
			ToAccountID:      agent.ID,
			Amount:           domain.NormalizeAmount(input.Amount),
			Fee:              uc.fees.Fee(domain.TransactionCashIn, input.Amount),
			FeePolicyVersion: uc.fees.Version(),
			Status:           domain.StatusPending,
			Description:      strings.TrimSpace(input.Description),
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		if err := t.Validate(); err != nil {
			return err
		}

		if err := uc.transactionRepo.Create(ctx, tx, t); err != nil {
			return err
		}

		if err := uc.record(ctx, tx, principal, domain.AuditActionCashInRequest, nil, t); err != nil {
			return err
		}

		result = t
		return nil
	})
	if err != nil {
		return nil, uc.fail(OpRequestCashIn, err)
	}

	uc.observeCreated(OpRequestCashIn, result, start)

	return result, nil
}

// ApproveCashIn settles a pending cash-in: the agent's float is debited and
// the user credited by the same amount. The transaction row is locked before
// the accounts.
func (uc *SettlementUseCase) ApproveCashIn(ctx context.Context, principal domain.Principal, transactionID string) (*domain.Transaction, error) {
	start := time.Now()

	if err := domain.CapApproveCashIn.Authorize(principal); err != nil {
		return nil, uc.fail(OpApproveCashIn, err)
	}

	var result *domain.Transaction

	err := uc.unit(ctx, func(ctx context.Context, tx Transaction) error {
		t, err := uc.lockCashIn(ctx, tx, domain.CapApproveCashIn, principal, transactionID)
		if err != nil {
			return err
		}

		before := *t
		if err := t.Transition(domain.StatusApproved, uc.now()); err != nil {
			return err
		}

		legs := []domain.Leg{
			{AccountID: t.ToAccountID, Delta: t.Amount.Neg()},
			{AccountID: t.FromAccountID, Delta: t.Amount},
		}
		if _, err := uc.accounts.AtomicTransfer(ctx, tx, legs, t.ID); err != nil {
			return err
		}

		if err := uc.transactionRepo.UpdateStatus(ctx, tx, t.ID, t.Status, t.UpdatedAt); err != nil {
			return err
		}

		if err := uc.record(ctx, tx, principal, domain.AuditActionCashInApprove, &before, t); err != nil {
			return err
		}

		result = t
		return nil
	})
	if err != nil {
		return nil, uc.fail(OpApproveCashIn, err)
	}

	uc.observeSettled(OpApproveCashIn, result, start)

	return result, nil
}

// RejectCashIn cancels a pending cash-in without touching balances.
func (uc *SettlementUseCase) RejectCashIn(ctx context.Context, principal domain.Principal, transactionID string) (*domain.Transaction, error) {
	start := time.Now()

	if err := domain.CapRejectCashIn.Authorize(principal); err != nil {
		return nil, uc.fail(OpRejectCashIn, err)
	}

	var result *domain.Transaction

	err := uc.unit(ctx, func(ctx context.Context, tx Transaction) error {
		t, err := uc.lockCashIn(ctx, tx, domain.CapRejectCashIn, principal, transactionID)
		if err != nil {
			return err
		}

		before := *t
		if err := t.Transition(domain.StatusRejected, uc.now()); err != nil {
			return err
		}

		if err := uc.transactionRepo.UpdateStatus(ctx, tx, t.ID, t.Status, t.UpdatedAt); err != nil {
			return err
		}

		if err := uc.record(ctx, tx, principal, domain.AuditActionCashInReject, &before, t); err != nil {
			return err
		}

		result = t
		return nil
	})
	if err != nil {
		return nil, uc.fail(OpRejectCashIn, err)
	}

	uc.observeSettled(OpRejectCashIn, result, start)

	return result, nil
}

// RequestCashOut withdraws amount through an agent and settles immediately.
// The user pays amount plus fee; the agent receives both.
func (uc *SettlementUseCase) RequestCashOut(ctx context.Context, principal domain.Principal, input CashOutInput) (*domain.Transaction, error) {
	start := time.Now()

	if err := domain.CapRequestCashOut.Authorize(principal); err != nil {
		return nil, uc.fail(OpRequestCashOut, err)
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, uc.fail(OpRequestCashOut, err)
	}

	agent, err := uc.resolveAgent(ctx, input.Agent)
	if err != nil {
		return nil, uc.fail(OpRequestCashOut, err)
	}

	if agent.ID == principal.ID {
		return nil, uc.fail(OpRequestCashOut, fmt.Errorf("%w: cannot cash out with yourself", domain.ErrInvalidParties))
	}

	var result *domain.Transaction

	err = uc.unit(ctx, func(ctx context.Context, tx Transaction) error {
		t := uc.newSettled(domain.TransactionCashOut, principal.ID, agent.ID, input.Amount, input.Description)
		if err := t.Validate(); err != nil {
			return err
		}

		if err := uc.transactionRepo.Create(ctx, tx, t); err != nil {
			return err
		}

		legs := []domain.Leg{
			{AccountID: t.FromAccountID, Delta: t.Debit().Neg()},
			{AccountID: t.ToAccountID, Delta: t.Debit()},
		}
		if _, err := uc.accounts.AtomicTransfer(ctx, tx, legs, t.ID); err != nil {
			return err
		}

		if err := uc.record(ctx, tx, principal, domain.AuditActionCashOutRequest, nil, t); err != nil {
			return err
		}

		result = t
		return nil
	})
	if err != nil {
		return nil, uc.fail(OpRequestCashOut, err)
	}

	uc.observeSettled(OpRequestCashOut, result, start)

	return result, nil
}

// SendMoney moves amount from the principal to another user. The sender pays
// amount plus fee; the fee is credited to the fee collection account.
func (uc *SettlementUseCase) SendMoney(ctx context.Context, principal domain.Principal, input SendMoneyInput) (*domain.Transaction, error) {
	start := time.Now()

	if err := domain.CapSendMoney.Authorize(principal); err != nil {
		return nil, uc.fail(OpSendMoney, err)
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, uc.fail(OpSendMoney, err)
	}

	if input.Amount.LessThan(domain.MinSendAmount) {
		return nil, uc.fail(OpSendMoney, fmt.Errorf("%w: minimum is %s", domain.ErrBelowMinimum, domain.MinSendAmount))
	}

	recipient, err := uc.resolveAccount(ctx, input.Recipient)
	if err != nil {
		return nil, uc.fail(OpSendMoney, err)
	}

	if recipient.ID == principal.ID {
		return nil, uc.fail(OpSendMoney, fmt.Errorf("%w: cannot send money to yourself", domain.ErrInvalidParties))
	}

	if recipient.Role != domain.RoleUser || !recipient.IsApproved() {
		return nil, uc.fail(OpSendMoney, fmt.Errorf("recipient is not a user: %w", domain.ErrAccountNotFound))
	}

	var result *domain.Transaction

	err = uc.unit(ctx, func(ctx context.Context, tx Transaction) error {
		t := uc.newSettled(domain.TransactionSendMoney, principal.ID, recipient.ID, input.Amount, input.Description)
		if err := t.Validate(); err != nil {
			return err
		}

		if err := uc.transactionRepo.Create(ctx, tx, t); err != nil {
			return err
		}

		legs := []domain.Leg{
			{AccountID: t.FromAccountID, Delta: t.Debit().Neg()},
			{AccountID: t.ToAccountID, Delta: t.Amount},
		}
		if t.Fee.IsPositive() {
			legs = append(legs, domain.Leg{AccountID: uc.feeAccountID, Delta: t.Fee})
		}
		if _, err := uc.accounts.AtomicTransfer(ctx, tx, legs, t.ID); err != nil {
			return err
		}

		if err := uc.record(ctx, tx, principal, domain.AuditActionSendMoney, nil, t); err != nil {
			return err
		}

		result = t
		return nil
	})
	if err != nil {
		return nil, uc.fail(OpSendMoney, err)
	}

	uc.observeSettled(OpSendMoney, result, start)

	return result, nil
}

// FeeQuote is the cost of a movement before it is requested.
type FeeQuote struct {
	Type          domain.TransactionType
	Amount        decimal.Decimal
	Fee           decimal.Decimal
	Total         decimal.Decimal
	PolicyVersion string
}

// QuoteFee prices a movement with the active policy. Nothing is stored.
func (uc *SettlementUseCase) QuoteFee(t domain.TransactionType, amount decimal.Decimal) (*FeeQuote, error) {
	if t == domain.TransactionBonus || !t.IsValid() {
		return nil, fmt.Errorf("%w: cannot quote %q", domain.ErrInvalidInput, t)
	}

	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	if t == domain.TransactionSendMoney && amount.LessThan(domain.MinSendAmount) {
		return nil, fmt.Errorf("%w: minimum is %s", domain.ErrBelowMinimum, domain.MinSendAmount)
	}

	fee := uc.fees.Fee(t, amount)

	return &FeeQuote{
		Type:          t,
		Amount:        amount,
		Fee:           fee,
		Total:         amount.Add(fee),
		PolicyVersion: uc.fees.Version(),
	}, nil
}

func (uc *SettlementUseCase) unit(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	return runUnit(ctx, uc.txManager, uc.retrier, fn)
}

func (uc *SettlementUseCase) newSettled(
	typ domain.TransactionType,
	from, to string,
	amount decimal.Decimal,
	description string,
) *domain.Transaction {
	now := uc.now()
	amount = domain.NormalizeAmount(amount)

	return &domain.Transaction{
		ID:               uc.idGen.Generate(),
		Type:             typ,
		FromAccountID:    from,
		ToAccountID:      to,
		Amount:           amount,
		Fee:              uc.fees.Fee(typ, amount),
		FeePolicyVersion: uc.fees.Version(),
		Status:           domain.StatusApproved,
		Description:      strings.TrimSpace(description),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// lockCashIn locks a cash-in record and checks that principal may act on it.
// The party check runs before the state check so strangers learn nothing
// about the record's status.
func (uc *SettlementUseCase) lockCashIn(
	ctx context.Context,
	tx Transaction,
	capability domain.Capability,
	principal domain.Principal,
	transactionID string,
) (*domain.Transaction, error) {
	t, err := uc.transactionRepo.GetByIDForUpdate(ctx, tx, transactionID)
	if err != nil {
		return nil, err
	}

	if err := capability.AuthorizeParty(principal, t); err != nil {
		return nil, err
	}

	if t.Type != domain.TransactionCashIn {
		return nil, fmt.Errorf("%w: %s is a %s, not a cash-in", domain.ErrInvalidState, t.ID, t.Type)
	}

	return t, nil
}

// resolveAccount looks an account up by id, falling back to mobile number.
func (uc *SettlementUseCase) resolveAccount(ctx context.Context, ref string) (*domain.Account, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: counterpart is required", domain.ErrInvalidParties)
	}

	account, err := uc.accountRepo.GetByID(ctx, ref)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	return uc.accountRepo.GetByMobile(ctx, ref)
}

// resolveAgent returns the referenced account only if it is an approved agent.
func (uc *SettlementUseCase) resolveAgent(ctx context.Context, ref string) (*domain.Account, error) {
	agent, err := uc.resolveAccount(ctx, ref)
	if err != nil {
		return nil, err
	}

	if !agent.IsApprovedAgent() {
		return nil, fmt.Errorf("agent %s: %w", ref, domain.ErrAccountNotFound)
	}

	return agent, nil
}

func (uc *SettlementUseCase) requireAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !account.IsApproved() {
		return nil, fmt.Errorf("%w: account %s is not approved", domain.ErrNotAuthorized, id)
	}
	return account, nil
}

// record writes the outbox event and audit log for t inside tx.
func (uc *SettlementUseCase) record(
	ctx context.Context,
	tx Transaction,
	principal domain.Principal,
	action domain.AuditAction,
	before *domain.Transaction,
	t *domain.Transaction,
) error {
	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   t.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.SettlementEventType(t),
		Payload:       domain.MarshalState(domain.NewTransactionEvent(t)),
		CreatedAt:     t.UpdatedAt,
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return err
	}

	if uc.auditRepo == nil {
		return nil
	}

	meta := domain.RequestMetaFromContext(ctx)
	log := &domain.AuditLog{
		UserID:       principal.ID,
		Action:       string(action),
		ResourceType: domain.AggregateTypeTransaction,
		ResourceID:   t.ID,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		RequestID:    meta.RequestID,
		AfterState:   domain.MarshalState(domain.NewTransactionEvent(t)),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    t.UpdatedAt,
	}
	if before != nil {
		log.BeforeState = domain.MarshalState(domain.NewTransactionEvent(before))
	}

	if err := uc.auditRepo.CreateTx(ctx, tx, log); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.AuditLogsCreated.WithLabelValues(log.Action, log.Status).Inc()
	}

	return nil
}

// fail classifies err, hides storage details and reports the outcome.
func (uc *SettlementUseCase) fail(op string, err error) error {
	out := domain.StorageFailure(op, err)
	kind := domain.KindOf(out)

	if kind == domain.KindStorageFailure {
		uc.logger.Error().Err(domain.StorageCause(out)).Str("operation", op).Msg("settlement storage failure")
		if uc.metrics != nil {
			uc.metrics.DBErrors.WithLabelValues(op).Inc()
		}
	} else {
		uc.logger.Debug().Err(out).Str("operation", op).Str("kind", string(kind)).Msg("settlement rejected")
	}

	if uc.metrics != nil {
		uc.metrics.SettlementErrors.WithLabelValues(op, string(kind)).Inc()
	}

	return out
}

func (uc *SettlementUseCase) observeCreated(op string, t *domain.Transaction, start time.Time) {
	uc.logger.Info().
		Str("operation", op).
		Str("transaction_id", t.ID).
		Str("type", string(t.Type)).
		Str("status", string(t.Status)).
		Str("amount", t.Amount.String()).
		Msg("transaction recorded")

	if uc.metrics != nil {
		uc.metrics.TransactionsCreated.WithLabelValues(string(t.Type)).Inc()
		uc.metrics.SettlementDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func (uc *SettlementUseCase) observeSettled(op string, t *domain.Transaction, start time.Time) {
	uc.logger.Info().
		Str("operation", op).
		Str("transaction_id", t.ID).
		Str("type", string(t.Type)).
		Str("status", string(t.Status)).
		Str("amount", t.Amount.String()).
		Str("fee", t.Fee.String()).
		Msg("transaction settled")

	if uc.metrics == nil {
		return
	}

	if op == OpRequestCashOut || op == OpSendMoney {
		uc.metrics.TransactionsCreated.WithLabelValues(string(t.Type)).Inc()
	}
	uc.metrics.TransactionsSettled.WithLabelValues(string(t.Type), string(t.Status)).Inc()
	uc.metrics.SettlementDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if t.Status == domain.StatusApproved {
		uc.metrics.SettlementAmount.WithLabelValues(string(t.Type)).Observe(t.Amount.InexactFloat64())
		uc.metrics.FeesCollected.WithLabelValues(string(t.Type)).Add(t.Fee.InexactFloat64())
	}
}
