package server

import (
	"context"

	mfsledgerv1 "github.com/iho/mfsledger/internal/adapter/grpc/api/mfsledger/v1"
	"github.com/iho/mfsledger/internal/adapter/grpc/converter"
	"github.com/iho/mfsledger/internal/usecase"
)

// AccountServer implements the gRPC Accounts service
type AccountServer struct {
	accountUC AccountService
	authUC    AuthService
	tokens    TokenIssuer
}

var _ mfsledgerv1.AccountsServer = (*AccountServer)(nil)

// NewAccountServer creates a new AccountServer
func NewAccountServer(accountUC AccountService, authUC AuthService, tokens TokenIssuer) *AccountServer {
	return &AccountServer{
		accountUC: accountUC,
		authUC:    authUC,
		tokens:    tokens,
	}
}

// OpenAccount registers a user or agent.
func (s *AccountServer) OpenAccount(ctx context.Context, req *mfsledgerv1.OpenAccountRequest) (*mfsledgerv1.AccountResponse, error) {
	account, err := s.accountUC.OpenAccount(ctx, usecase.OpenAccountInput{
		Name:    req.Name,
		Mobile:  req.Mobile,
		Email:   req.Email,
		PIN:     req.Pin,
		AsAgent: req.AsAgent,
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &mfsledgerv1.AccountResponse{
		Account: converter.AccountToMessage(account),
	}, nil
}

// Login exchanges a mobile number or email and PIN for a token.
func (s *AccountServer) Login(ctx context.Context, req *mfsledgerv1.LoginRequest) (*mfsledgerv1.LoginResponse, error) {
	account, err := s.authUC.Authenticate(ctx, req.Identifier, req.Pin)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	token, err := s.tokens.Generate(account)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &mfsledgerv1.LoginResponse{
		Token:   token,
		Account: converter.AccountToMessage(account),
	}, nil
}

// GetBalance returns the caller's own balance.
func (s *AccountServer) GetBalance(ctx context.Context, req *mfsledgerv1.GetBalanceRequest) (*mfsledgerv1.BalanceResponse, error) {
	p, err := callerPrincipal(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := s.accountUC.GetBalance(ctx, p)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &mfsledgerv1.BalanceResponse{
		AccountID: p.ID,
		Balance:   balance.String(),
	}, nil
}

// ApproveAgent approves a pending agent application.
func (s *AccountServer) ApproveAgent(ctx context.Context, req *mfsledgerv1.ApproveAgentRequest) (*mfsledgerv1.AccountResponse, error) {
	p, err := verifiedPrincipal(ctx, s.authUC, req.Pin)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	account, err := s.accountUC.ApproveAgent(ctx, p, req.AccountID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &mfsledgerv1.AccountResponse{
		Account: converter.AccountToMessage(account),
	}, nil
}

// ListAccounts lists accounts with pagination. Admin only.
func (s *AccountServer) ListAccounts(ctx context.Context, req *mfsledgerv1.ListAccountsRequest) (*mfsledgerv1.ListAccountsResponse, error) {
	p, err := callerPrincipal(ctx)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accountUC.ListAccounts(ctx, p, usecase.ListAccountsInput{
		Limit:  int(req.Limit),
		Offset: int(req.Offset),
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &mfsledgerv1.ListAccountsResponse{
		Accounts: converter.AccountsToMessages(accounts),
	}, nil
}
