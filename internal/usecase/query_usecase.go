package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/mfsledger/internal/domain"
)

// TransactionView is a transaction as shown to a principal. Counterparts are
// rendered by name and mobile only.
type TransactionView struct {
	ID               string
	Type             domain.TransactionType
	Status           domain.TransactionStatus
	Amount           decimal.Decimal
	Fee              decimal.Decimal
	FeePolicyVersion string
	Description      string
	From             *domain.PartyView
	To               *domain.PartyView
	// Raw account ids are only filled for admins.
	FromAccountID string
	ToAccountID   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// QueryUseCase serves read-only projections of the transaction log.
type QueryUseCase struct {
	transactionRepo TransactionRepository
	accountRepo     AccountRepository
	cache           Cache
	cacheTTL        time.Duration
	logger          zerolog.Logger
}

// NewQueryUseCase creates a new QueryUseCase. cache may be nil.
func NewQueryUseCase(
	transactionRepo TransactionRepository,
	accountRepo AccountRepository,
	cache Cache,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) *QueryUseCase {
	if cacheTTL <= 0 {
		cacheTTL = DefaultPartyCacheTTL
	}

	return &QueryUseCase{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		cache:           cache,
		cacheTTL:        cacheTTL,
		logger:          logger.With().Str("component", "query").Logger(),
	}
}

// ListByParticipant returns the principal's own transactions, newest first.
func (uc *QueryUseCase) ListByParticipant(ctx context.Context, principal domain.Principal, limit, offset int) ([]*TransactionView, error) {
	if principal.ID == "" {
		return nil, domain.ErrNotAuthorized
	}

	limit, offset = domain.ValidatePagination(limit, offset)

	txs, err := uc.transactionRepo.ListByParticipant(ctx, principal.ID, limit, offset)
	if err != nil {
		return nil, domain.StorageFailure("list transactions", err)
	}

	return uc.render(ctx, principal, txs)
}

// ListPendingCashIn returns cash-in requests awaiting the agent's decision.
func (uc *QueryUseCase) ListPendingCashIn(ctx context.Context, principal domain.Principal, limit, offset int) ([]*TransactionView, error) {
	if err := domain.CapListPending.Authorize(principal); err != nil {
		return nil, err
	}

	limit, offset = domain.ValidatePagination(limit, offset)

	txs, err := uc.transactionRepo.ListPendingCashIn(ctx, principal.ID, limit, offset)
	if err != nil {
		return nil, domain.StorageFailure("list pending cash-in", err)
	}

	return uc.render(ctx, principal, txs)
}

// GetTransaction returns one transaction to one of its parties or an admin.
func (uc *QueryUseCase) GetTransaction(ctx context.Context, principal domain.Principal, id string) (*TransactionView, error) {
	if err := domain.CapViewTransaction.Authorize(principal); err != nil {
		return nil, err
	}

	t, err := uc.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.StorageFailure("get transaction", err)
	}

	// Non-parties get the same answer as for a missing record.
	if err := domain.CapViewTransaction.AuthorizeParty(principal, t); err != nil {
		return nil, domain.ErrTransactionNotFound
	}

	views, err := uc.render(ctx, principal, []*domain.Transaction{t})
	if err != nil {
		return nil, err
	}

	return views[0], nil
}

// ListAll lists every transaction matching filter. Admin only.
func (uc *QueryUseCase) ListAll(ctx context.Context, principal domain.Principal, filter domain.TransactionFilter) ([]*TransactionView, error) {
	if err := domain.CapListAll.Authorize(principal); err != nil {
		return nil, err
	}

	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, domain.ErrInvalidInput
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domain.ErrInvalidInput
	}

	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	txs, err := uc.transactionRepo.List(ctx, filter)
	if err != nil {
		return nil, domain.StorageFailure("list all transactions", err)
	}

	return uc.render(ctx, principal, txs)
}

// InvalidateParty drops a cached profile.
func (uc *QueryUseCase) InvalidateParty(ctx context.Context, accountID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, partyCacheKey(accountID)); err != nil {
		uc.logger.Warn().Err(err).Str("account_id", accountID).Msg("party cache delete failed")
	}
}

func (uc *QueryUseCase) render(ctx context.Context, principal domain.Principal, txs []*domain.Transaction) ([]*TransactionView, error) {
	parties := make(map[string]*domain.PartyView)
	views := make([]*TransactionView, 0, len(txs))

	for _, t := range txs {
		view := &TransactionView{
			ID:               t.ID,
			Type:             t.Type,
			Status:           t.Status,
			Amount:           t.Amount,
			Fee:              t.Fee,
			FeePolicyVersion: t.FeePolicyVersion,
			Description:      t.Description,
			CreatedAt:        t.CreatedAt,
			UpdatedAt:        t.UpdatedAt,
		}

		var err error
		if view.From, err = uc.party(ctx, parties, t.FromAccountID); err != nil {
			return nil, err
		}
		if view.To, err = uc.party(ctx, parties, t.ToAccountID); err != nil {
			return nil, err
		}

		if principal.IsAdmin() {
			view.FromAccountID = t.FromAccountID
			view.ToAccountID = t.ToAccountID
		}

		views = append(views, view)
	}

	return views, nil
}

// party resolves a profile through the request-local map, then the cache,
// then the account repository.
func (uc *QueryUseCase) party(ctx context.Context, seen map[string]*domain.PartyView, accountID string) (*domain.PartyView, error) {
	if accountID == "" {
		return nil, nil
	}

	if p, ok := seen[accountID]; ok {
		return p, nil
	}

	if p := uc.cachedParty(ctx, accountID); p != nil {
		seen[accountID] = p
		return p, nil
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if errors.Is(err, domain.ErrNotFound) {
		seen[accountID] = nil
		return nil, nil
	}
	if err != nil {
		return nil, domain.StorageFailure("resolve party", err)
	}

	p := account.Party()
	seen[accountID] = &p
	uc.storeParty(ctx, accountID, &p)

	return &p, nil
}

func (uc *QueryUseCase) cachedParty(ctx context.Context, accountID string) *domain.PartyView {
	if uc.cache == nil {
		return nil
	}

	data, err := uc.cache.Get(ctx, partyCacheKey(accountID))
	if err != nil || data == nil {
		return nil
	}

	var p domain.PartyView
	if err := json.Unmarshal(data, &p); err != nil {
		uc.logger.Warn().Err(err).Str("account_id", accountID).Msg("corrupt party cache entry")
		return nil
	}

	return &p
}

func (uc *QueryUseCase) storeParty(ctx context.Context, accountID string, p *domain.PartyView) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(p)
	if err != nil {
		return
	}

	if err := uc.cache.Set(ctx, partyCacheKey(accountID), data, uc.cacheTTL); err != nil {
		uc.logger.Warn().Err(err).Str("account_id", accountID).Msg("party cache write failed")
	}
}

func partyCacheKey(accountID string) string {
	return "party:" + accountID
}
