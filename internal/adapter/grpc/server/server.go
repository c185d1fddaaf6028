package server

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	grpcerrors "github.com/iho/mfsledger/internal/adapter/grpc/errors"
	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountServer.
type AccountService interface {
	OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	ApproveAgent(ctx context.Context, principal domain.Principal, accountID string) (*domain.Account, error)
	GetBalance(ctx context.Context, principal domain.Principal) (decimal.Decimal, error)
	ListAccounts(ctx context.Context, principal domain.Principal, input usecase.ListAccountsInput) ([]*domain.Account, error)
}

// AuthService checks credentials and PINs.
type AuthService interface {
	Authenticate(ctx context.Context, identifier, pin string) (*domain.Account, error)
	VerifyPIN(ctx context.Context, principal domain.Principal, pin string) (domain.Principal, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Generate(account *domain.Account) (string, error)
}

// SettlementService defines the money-movement behavior needed by SettlementServer.
type SettlementService interface {
	RequestCashIn(ctx context.Context, principal domain.Principal, input usecase.CashInInput) (*domain.Transaction, error)
	ApproveCashIn(ctx context.Context, principal domain.Principal, transactionID string) (*domain.Transaction, error)
	RejectCashIn(ctx context.Context, principal domain.Principal, transactionID string) (*domain.Transaction, error)
	RequestCashOut(ctx context.Context, principal domain.Principal, input usecase.CashOutInput) (*domain.Transaction, error)
	SendMoney(ctx context.Context, principal domain.Principal, input usecase.SendMoneyInput) (*domain.Transaction, error)
	QuoteFee(t domain.TransactionType, amount decimal.Decimal) (*usecase.FeeQuote, error)
}

// QueryService defines the read behavior needed by SettlementServer.
type QueryService interface {
	ListByParticipant(ctx context.Context, principal domain.Principal, limit, offset int) ([]*usecase.TransactionView, error)
	ListPendingCashIn(ctx context.Context, principal domain.Principal, limit, offset int) ([]*usecase.TransactionView, error)
	GetTransaction(ctx context.Context, principal domain.Principal, id string) (*usecase.TransactionView, error)
}

// callerPrincipal returns the principal placed in ctx by the auth interceptor.
func callerPrincipal(ctx context.Context) (domain.Principal, error) {
	p, ok := domain.PrincipalFromContext(ctx)
	if !ok || p.ID == "" {
		return domain.Principal{}, status.Error(codes.Unauthenticated, "authentication required")
	}
	return p, nil
}

// verifiedPrincipal returns the caller with the PIN verdict applied.
func verifiedPrincipal(ctx context.Context, pins AuthService, pin string) (domain.Principal, error) {
	p, err := callerPrincipal(ctx)
	if err != nil {
		return p, err
	}
	return pins.VerifyPIN(ctx, p, pin)
}

// toStatus maps err to a status error, logging storage failures with their cause.
func toStatus(ctx context.Context, err error) error {
	if domain.KindOf(err) == domain.KindStorageFailure {
		if _, ok := status.FromError(err); !ok {
			zerolog.Ctx(ctx).Error().
				Err(err).
				AnErr("cause", domain.StorageCause(err)).
				Msg("rpc failed")
		}
	}
	return grpcerrors.MapDomainError(err)
}
