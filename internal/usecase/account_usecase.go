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

// Operation names for account workflows.
const (
	OpOpenAccount  = "open_account"
	OpApproveAgent = "approve_agent"
	OpCreateAdmin  = "create_admin"
)

// Bonuses minted by the account workflows.
type Bonuses struct {
	UserSignup decimal.Decimal
	AgentFloat decimal.Decimal
}

// DefaultBonuses are credited when nothing else is configured.
var DefaultBonuses = Bonuses{
	UserSignup: decimal.NewFromInt(40),
	AgentFloat: decimal.NewFromInt(10000),
}

// AccountUseCase handles account registration and agent approval. Any value
// it creates enters the ledger as a bonus transaction.
type AccountUseCase struct {
	txManager       TransactionManager
	accounts        *AccountStore
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	credentialRepo  CredentialRepository
	outboxRepo      OutboxRepository
	auditRepo       AuditRepository
	hasher          PINHasher
	idGen           IDGenerator
	retrier         Retrier
	bonuses         Bonuses
	metrics         *metrics.Metrics
	logger          zerolog.Logger
	now             func() time.Time
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accounts *AccountStore,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	credentialRepo CredentialRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	hasher PINHasher,
	idGen IDGenerator,
	retrier Retrier,
	bonuses Bonuses,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:       txManager,
		accounts:        accounts,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		credentialRepo:  credentialRepo,
		outboxRepo:      outboxRepo,
		auditRepo:       auditRepo,
		hasher:          hasher,
		idGen:           idGen,
		retrier:         retrier,
		bonuses:         bonuses,
		metrics:         metrics,
		logger:          logger.With().Str("component", "accounts").Logger(),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// OpenAccountInput represents a registration request.
type OpenAccountInput struct {
	Name   string
	Mobile string
	Email  string
	PIN    string
	// AsAgent files an agent application. The account stays pending until an
	// admin approves it.
	AsAgent bool
}

// OpenAccount registers a user or an agent applicant. Users are approved at
// once and receive the signup bonus.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	role := domain.RoleUser
	if input.AsAgent {
		role = domain.RoleAgent
	}

	account, err := uc.openAccount(ctx, input, role)
	if err != nil {
		return nil, domain.StorageFailure(OpOpenAccount, err)
	}

	if uc.metrics != nil {
		uc.metrics.AccountsOpened.WithLabelValues(string(account.Role)).Inc()
	}

	uc.logger.Info().
		Str("account_id", account.ID).
		Str("role", string(account.Role)).
		Str("status", string(account.Status)).
		Msg("account opened")

	return account, nil
}

// CreateAdmin registers an approved administrator. It is an operator action
// reached from the CLI and the server bootstrap, never from the public API.
// No bonus is minted.
func (uc *AccountUseCase) CreateAdmin(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	account, err := uc.openAccount(ctx, input, domain.RoleAdmin)
	if err != nil {
		return nil, domain.StorageFailure(OpCreateAdmin, err)
	}

	uc.logger.Info().Str("account_id", account.ID).Msg("admin created")

	return account, nil
}

func (uc *AccountUseCase) openAccount(ctx context.Context, input OpenAccountInput, role domain.Role) (*domain.Account, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Mobile = strings.TrimSpace(input.Mobile)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateMobile(input.Mobile); err != nil {
		return nil, err
	}
	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePIN(input.PIN); err != nil {
		return nil, err
	}

	if err := uc.ensureUnique(ctx, input.Mobile, input.Email); err != nil {
		return nil, err
	}

	hash, err := uc.hasher.Hash(input.PIN)
	if err != nil {
		return nil, fmt.Errorf("hash pin: %w", err)
	}

	now := uc.now()
	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		Name:      input.Name,
		Mobile:    input.Mobile,
		Email:     input.Email,
		Role:      role,
		Status:    domain.ApprovalApproved,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if role == domain.RoleAgent {
		account.Status = domain.ApprovalPending
	}

	err = uc.unit(ctx, func(ctx context.Context, tx Transaction) error {
		if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
			return err
		}

		if err := uc.credentialRepo.Create(ctx, tx, account.ID, hash); err != nil {
			return err
		}

		if err := uc.recordAccount(ctx, tx, account.ID, domain.EventTypeAccountOpened, domain.AuditActionAccountOpen, account); err != nil {
			return err
		}

		if account.Role == domain.RoleUser && uc.bonuses.UserSignup.IsPositive() {
			return uc.mint(ctx, tx, account, uc.bonuses.UserSignup, "signup bonus")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// ApproveAgent turns a pending agent application into an approved agent and
// credits the agent float.
func (uc *AccountUseCase) ApproveAgent(ctx context.Context, principal domain.Principal, accountID string) (*domain.Account, error) {
	if err := domain.CapApproveAgent.Authorize(principal); err != nil {
		return nil, err
	}

	var result *domain.Account

	err := uc.unit(ctx, func(ctx context.Context, tx Transaction) error {
		account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}

		if account.Role != domain.RoleAgent || account.IsApproved() {
			return fmt.Errorf("%w: account %s is not a pending agent application", domain.ErrInvalidState, accountID)
		}

		now := uc.now()
		if err := uc.accountRepo.UpdateStatus(ctx, tx, account.ID, domain.RoleAgent, domain.ApprovalApproved, now); err != nil {
			return err
		}
		account.Status = domain.ApprovalApproved
		account.UpdatedAt = now

		if err := uc.recordAccount(ctx, tx, principal.ID, domain.EventTypeAgentApproved, domain.AuditActionAgentApprove, account); err != nil {
			return err
		}

		if uc.bonuses.AgentFloat.IsPositive() {
			if err := uc.mint(ctx, tx, account, uc.bonuses.AgentFloat, "agent float"); err != nil {
				return err
			}
		}

		result = account
		return nil
	})
	if err != nil {
		return nil, domain.StorageFailure(OpApproveAgent, err)
	}

	if uc.metrics != nil {
		uc.metrics.AccountOperations.WithLabelValues(OpApproveAgent).Inc()
	}

	uc.logger.Info().Str("account_id", result.ID).Str("approved_by", principal.ID).Msg("agent approved")

	return result, nil
}

// EnsureSystemAccount creates an approved admin-owned account with a fixed id
// if it does not exist yet. Fee collection uses one.
func (uc *AccountUseCase) EnsureSystemAccount(ctx context.Context, id, name string) (*domain.Account, error) {
	existing, err := uc.accountRepo.GetByID(ctx, id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.StorageFailure("ensure system account", err)
	}

	now := uc.now()
	account := &domain.Account{
		ID:        id,
		Name:      name,
		Mobile:    id,
		Email:     id + "@system.local",
		Role:      domain.RoleAdmin,
		Status:    domain.ApprovalApproved,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = uc.unit(ctx, func(ctx context.Context, tx Transaction) error {
		return uc.accountRepo.Create(ctx, tx, account)
	})
	if err != nil {
		return nil, domain.StorageFailure("ensure system account", err)
	}

	uc.logger.Info().Str("account_id", id).Msg("system account created")

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// GetBalance returns the principal's own balance.
func (uc *AccountUseCase) GetBalance(ctx context.Context, principal domain.Principal) (decimal.Decimal, error) {
	if principal.ID == "" {
		return decimal.Zero, domain.ErrNotAuthorized
	}
	return uc.accounts.GetBalance(ctx, principal.ID)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination. Admin only.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, principal domain.Principal, input ListAccountsInput) ([]*domain.Account, error) {
	if err := domain.CapListAll.Authorize(principal); err != nil {
		return nil, err
	}
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.List(ctx, limit, offset)
}

func (uc *AccountUseCase) ensureUnique(ctx context.Context, mobile, email string) error {
	if _, err := uc.accountRepo.GetByMobile(ctx, mobile); err == nil {
		return fmt.Errorf("%w: mobile number already registered", domain.ErrAccountExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if _, err := uc.accountRepo.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("%w: email already registered", domain.ErrAccountExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	return nil
}

// mint records an approved bonus transaction and credits the account.
func (uc *AccountUseCase) mint(ctx context.Context, tx Transaction, account *domain.Account, amount decimal.Decimal, description string) error {
	now := uc.now()
	t := &domain.Transaction{
		ID:          uc.idGen.Generate(),
		Type:        domain.TransactionBonus,
		ToAccountID: account.ID,
		Amount:      domain.NormalizeAmount(amount),
		Fee:         decimal.Zero,
		Status:      domain.StatusApproved,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := t.Validate(); err != nil {
		return err
	}

	if err := uc.transactionRepo.Create(ctx, tx, t); err != nil {
		return err
	}

	entry, err := uc.accounts.AtomicAdjust(ctx, tx, account.ID, t.Amount, t.ID)
	if err != nil {
		return err
	}
	account.Balance = entry.AccountCurrentBalance
	account.Version = entry.AccountVersion

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   t.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.EventTypeBonusCredited,
		Payload:       domain.MarshalState(domain.NewTransactionEvent(t)),
		CreatedAt:     now,
	}

	return uc.outboxRepo.Create(ctx, tx, event)
}

func (uc *AccountUseCase) recordAccount(
	ctx context.Context,
	tx Transaction,
	actorID string,
	eventType string,
	action domain.AuditAction,
	account *domain.Account,
) error {
	payload := domain.AccountEvent{
		AccountID: account.ID,
		Name:      account.Name,
		Role:      string(account.Role),
		Status:    string(account.Status),
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     eventType,
		Payload:       domain.MarshalState(payload),
		CreatedAt:     account.UpdatedAt,
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return err
	}

	if uc.auditRepo == nil {
		return nil
	}

	meta := domain.RequestMetaFromContext(ctx)
	return uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		UserID:       actorID,
		Action:       string(action),
		ResourceType: domain.AggregateTypeAccount,
		ResourceID:   account.ID,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		RequestID:    meta.RequestID,
		AfterState:   domain.MarshalState(payload),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    account.UpdatedAt,
	})
}

func (uc *AccountUseCase) unit(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	return runUnit(ctx, uc.txManager, uc.retrier, fn)
}
