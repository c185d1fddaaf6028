package server

import (
	"context"

	mfsledgerv1 "github.com/iho/mfsledger/internal/adapter/grpc/api/mfsledger/v1"
	"github.com/iho/mfsledger/internal/adapter/grpc/converter"
	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/usecase"
)

const defaultPageSize = 50

// SettlementServer implements the gRPC Settlement service. Mutating calls
// verify the PIN in the request before the engine sees the principal.
type SettlementServer struct {
	settlementUC SettlementService
	queryUC      QueryService
	pins         AuthService
}

var _ mfsledgerv1.SettlementServer = (*SettlementServer)(nil)

// NewSettlementServer creates a new SettlementServer
func NewSettlementServer(settlementUC SettlementService, queryUC QueryService, pins AuthService) *SettlementServer {
	return &SettlementServer{
		settlementUC: settlementUC,
		queryUC:      queryUC,
		pins:         pins,
	}
}

// RequestCashIn files a pending cash-in with an agent.
func (s *SettlementServer) RequestCashIn(ctx context.Context, req *mfsledgerv1.CashInRequest) (*mfsledgerv1.TransactionResponse, error) {
	p, err := verifiedPrincipal(ctx, s.pins, req.Pin)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	amount, err := converter.ParseAmount(req.Amount)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	tx, err := s.settlementUC.RequestCashIn(ctx, p, usecase.CashInInput{
		Agent:       req.Agent,
		Amount:      amount,
		Description: req.Description,
	})
	return transactionResponse(ctx, tx, err)
}

// ApproveCashIn settles a pending cash-in from the agent's balance.
func (s *SettlementServer) ApproveCashIn(ctx context.Context, req *mfsledgerv1.DecideCashInRequest) (*mfsledgerv1.TransactionResponse, error) {
	p, err := verifiedPrincipal(ctx, s.pins, req.Pin)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	tx, err := s.settlementUC.ApproveCashIn(ctx, p, req.TransactionID)
	return transactionResponse(ctx, tx, err)
}

// RejectCashIn closes a pending cash-in without moving money.
func (s *SettlementServer) RejectCashIn(ctx context.Context, req *mfsledgerv1.DecideCashInRequest) (*mfsledgerv1.TransactionResponse, error) {
	p, err := verifiedPrincipal(ctx, s.pins, req.Pin)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	tx, err := s.settlementUC.RejectCashIn(ctx, p, req.TransactionID)
	return transactionResponse(ctx, tx, err)
}

// RequestCashOut withdraws through an agent and settles immediately.
func (s *SettlementServer) RequestCashOut(ctx context.Context, req *mfsledgerv1.CashOutRequest) (*mfsledgerv1.TransactionResponse, error) {
	p, err := verifiedPrincipal(ctx, s.pins, req.Pin)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	amount, err := converter.ParseAmount(req.Amount)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	tx, err := s.settlementUC.RequestCashOut(ctx, p, usecase.CashOutInput{
		Agent:       req.Agent,
		Amount:      amount,
		Description: req.Description,
	})
	return transactionResponse(ctx, tx, err)
}

// SendMoney moves money to another user.
func (s *SettlementServer) SendMoney(ctx context.Context, req *mfsledgerv1.SendMoneyRequest) (*mfsledgerv1.TransactionResponse, error) {
	p, err := verifiedPrincipal(ctx, s.pins, req.Pin)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	amount, err := converter.ParseAmount(req.Amount)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	tx, err := s.settlementUC.SendMoney(ctx, p, usecase.SendMoneyInput{
		Recipient:   req.Recipient,
		Amount:      amount,
		Description: req.Description,
	})
	return transactionResponse(ctx, tx, err)
}

// QuoteFee prices a movement without storing anything.
func (s *SettlementServer) QuoteFee(ctx context.Context, req *mfsledgerv1.QuoteFeeRequest) (*mfsledgerv1.FeeQuote, error) {
	amount, err := converter.ParseAmount(req.Amount)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	quote, err := s.settlementUC.QuoteFee(domain.TransactionType(req.Type), amount)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return converter.FeeQuoteToMessage(quote), nil
}

// GetTransaction returns one transaction to one of its parties or an admin.
func (s *SettlementServer) GetTransaction(ctx context.Context, req *mfsledgerv1.GetTransactionRequest) (*mfsledgerv1.TransactionResponse, error) {
	p, err := callerPrincipal(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.queryUC.GetTransaction(ctx, p, req.ID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &mfsledgerv1.TransactionResponse{Transaction: converter.ViewToMessage(view)}, nil
}

// ListMyTransactions lists the caller's transactions, newest first.
func (s *SettlementServer) ListMyTransactions(ctx context.Context, req *mfsledgerv1.ListTransactionsRequest) (*mfsledgerv1.ListTransactionsResponse, error) {
	p, err := callerPrincipal(ctx)
	if err != nil {
		return nil, err
	}

	views, err := s.queryUC.ListByParticipant(ctx, p, pageSize(req.Limit), int(req.Offset))
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &mfsledgerv1.ListTransactionsResponse{Transactions: converter.ViewsToMessages(views)}, nil
}

// ListPendingCashIn lists cash-in requests waiting on the calling agent.
func (s *SettlementServer) ListPendingCashIn(ctx context.Context, req *mfsledgerv1.ListTransactionsRequest) (*mfsledgerv1.ListTransactionsResponse, error) {
	p, err := callerPrincipal(ctx)
	if err != nil {
		return nil, err
	}

	views, err := s.queryUC.ListPendingCashIn(ctx, p, pageSize(req.Limit), int(req.Offset))
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &mfsledgerv1.ListTransactionsResponse{Transactions: converter.ViewsToMessages(views)}, nil
}

func transactionResponse(ctx context.Context, tx *domain.Transaction, err error) (*mfsledgerv1.TransactionResponse, error) {
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &mfsledgerv1.TransactionResponse{Transaction: converter.TransactionToMessage(tx)}, nil
}

func pageSize(limit int32) int {
	if limit <= 0 {
		return defaultPageSize
	}
	return int(limit)
}
