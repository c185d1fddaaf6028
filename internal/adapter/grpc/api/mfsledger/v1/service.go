package mfsledgerv1

import (
	"context"
	"strings"

	"google.golang.org/grpc"

	"github.com/iho/mfsledger/internal/adapter/grpc/codec"
)

const (
	AccountsServiceName   = "mfsledger.v1.Accounts"
	SettlementServiceName = "mfsledger.v1.Settlement"
)

const (
	Accounts_OpenAccount_FullMethodName  = "/mfsledger.v1.Accounts/OpenAccount"
	Accounts_Login_FullMethodName        = "/mfsledger.v1.Accounts/Login"
	Accounts_GetBalance_FullMethodName   = "/mfsledger.v1.Accounts/GetBalance"
	Accounts_ApproveAgent_FullMethodName = "/mfsledger.v1.Accounts/ApproveAgent"
	Accounts_ListAccounts_FullMethodName = "/mfsledger.v1.Accounts/ListAccounts"

	Settlement_RequestCashIn_FullMethodName      = "/mfsledger.v1.Settlement/RequestCashIn"
	Settlement_ApproveCashIn_FullMethodName      = "/mfsledger.v1.Settlement/ApproveCashIn"
	Settlement_RejectCashIn_FullMethodName       = "/mfsledger.v1.Settlement/RejectCashIn"
	Settlement_RequestCashOut_FullMethodName     = "/mfsledger.v1.Settlement/RequestCashOut"
	Settlement_SendMoney_FullMethodName          = "/mfsledger.v1.Settlement/SendMoney"
	Settlement_QuoteFee_FullMethodName           = "/mfsledger.v1.Settlement/QuoteFee"
	Settlement_GetTransaction_FullMethodName     = "/mfsledger.v1.Settlement/GetTransaction"
	Settlement_ListMyTransactions_FullMethodName = "/mfsledger.v1.Settlement/ListMyTransactions"
	Settlement_ListPendingCashIn_FullMethodName  = "/mfsledger.v1.Settlement/ListPendingCashIn"
)

// AccountsServer is the server API for the Accounts service.
type AccountsServer interface {
	OpenAccount(context.Context, *OpenAccountRequest) (*AccountResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	GetBalance(context.Context, *GetBalanceRequest) (*BalanceResponse, error)
	ApproveAgent(context.Context, *ApproveAgentRequest) (*AccountResponse, error)
	ListAccounts(context.Context, *ListAccountsRequest) (*ListAccountsResponse, error)
}

// SettlementServer is the server API for the Settlement service.
type SettlementServer interface {
	RequestCashIn(context.Context, *CashInRequest) (*TransactionResponse, error)
	ApproveCashIn(context.Context, *DecideCashInRequest) (*TransactionResponse, error)
	RejectCashIn(context.Context, *DecideCashInRequest) (*TransactionResponse, error)
	RequestCashOut(context.Context, *CashOutRequest) (*TransactionResponse, error)
	SendMoney(context.Context, *SendMoneyRequest) (*TransactionResponse, error)
	QuoteFee(context.Context, *QuoteFeeRequest) (*FeeQuote, error)
	GetTransaction(context.Context, *GetTransactionRequest) (*TransactionResponse, error)
	ListMyTransactions(context.Context, *ListTransactionsRequest) (*ListTransactionsResponse, error)
	ListPendingCashIn(context.Context, *ListTransactionsRequest) (*ListTransactionsResponse, error)
}

// responses builds an empty response for every registered method.
var responses = map[string]func() any{}

// publicMethods may be called without a token.
var publicMethods = map[string]bool{
	Accounts_OpenAccount_FullMethodName: true,
	Accounts_Login_FullMethodName:       true,
	Settlement_QuoteFee_FullMethodName:  true,
}

// IsPublicMethod reports whether fullMethod skips authentication.
func IsPublicMethod(fullMethod string) bool {
	return publicMethods[fullMethod]
}

// IsReadOnlyMethod reports whether fullMethod leaves the ledger untouched.
func IsReadOnlyMethod(fullMethod string) bool {
	name := fullMethod[strings.LastIndex(fullMethod, "/")+1:]
	return strings.HasPrefix(name, "Get") ||
		strings.HasPrefix(name, "List") ||
		strings.HasPrefix(name, "Quote") ||
		fullMethod == Accounts_Login_FullMethodName
}

// NewResponse returns an empty response message for fullMethod.
func NewResponse(fullMethod string) (any, bool) {
	newFn, ok := responses[fullMethod]
	if !ok {
		return nil, false
	}
	return newFn(), true
}

func unary[S, Req, Resp any](fullMethod string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	responses[fullMethod] = func() any { return new(Resp) }

	return grpc.MethodDesc{
		MethodName: fullMethod[strings.LastIndex(fullMethod, "/")+1:],
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Accounts_ServiceDesc is the grpc.ServiceDesc for the Accounts service.
var Accounts_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AccountsServiceName,
	HandlerType: (*AccountsServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(Accounts_OpenAccount_FullMethodName, AccountsServer.OpenAccount),
		unary(Accounts_Login_FullMethodName, AccountsServer.Login),
		unary(Accounts_GetBalance_FullMethodName, AccountsServer.GetBalance),
		unary(Accounts_ApproveAgent_FullMethodName, AccountsServer.ApproveAgent),
		unary(Accounts_ListAccounts_FullMethodName, AccountsServer.ListAccounts),
	},
	Metadata: "mfsledger/v1/accounts",
}

// Settlement_ServiceDesc is the grpc.ServiceDesc for the Settlement service.
var Settlement_ServiceDesc = grpc.ServiceDesc{
	ServiceName: SettlementServiceName,
	HandlerType: (*SettlementServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(Settlement_RequestCashIn_FullMethodName, SettlementServer.RequestCashIn),
		unary(Settlement_ApproveCashIn_FullMethodName, SettlementServer.ApproveCashIn),
		unary(Settlement_RejectCashIn_FullMethodName, SettlementServer.RejectCashIn),
		unary(Settlement_RequestCashOut_FullMethodName, SettlementServer.RequestCashOut),
		unary(Settlement_SendMoney_FullMethodName, SettlementServer.SendMoney),
		unary(Settlement_QuoteFee_FullMethodName, SettlementServer.QuoteFee),
		unary(Settlement_GetTransaction_FullMethodName, SettlementServer.GetTransaction),
		unary(Settlement_ListMyTransactions_FullMethodName, SettlementServer.ListMyTransactions),
		unary(Settlement_ListPendingCashIn_FullMethodName, SettlementServer.ListPendingCashIn),
	},
	Metadata: "mfsledger/v1/settlement",
}

// RegisterAccountsServer registers srv on s.
func RegisterAccountsServer(s grpc.ServiceRegistrar, srv AccountsServer) {
	s.RegisterService(&Accounts_ServiceDesc, srv)
}

// RegisterSettlementServer registers srv on s.
func RegisterSettlementServer(s grpc.ServiceRegistrar, srv SettlementServer) {
	s.RegisterService(&Settlement_ServiceDesc, srv)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codec.Name)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// AccountsClient is the client API for the Accounts service.
type AccountsClient struct {
	cc grpc.ClientConnInterface
}

// NewAccountsClient creates a client over cc.
func NewAccountsClient(cc grpc.ClientConnInterface) *AccountsClient {
	return &AccountsClient{cc: cc}
}

func (c *AccountsClient) OpenAccount(ctx context.Context, in *OpenAccountRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, Accounts_OpenAccount_FullMethodName, in, opts)
}

func (c *AccountsClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, Accounts_Login_FullMethodName, in, opts)
}

func (c *AccountsClient) GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*BalanceResponse, error) {
	return invoke[BalanceResponse](ctx, c.cc, Accounts_GetBalance_FullMethodName, in, opts)
}

func (c *AccountsClient) ApproveAgent(ctx context.Context, in *ApproveAgentRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, Accounts_ApproveAgent_FullMethodName, in, opts)
}

func (c *AccountsClient) ListAccounts(ctx context.Context, in *ListAccountsRequest, opts ...grpc.CallOption) (*ListAccountsResponse, error) {
	return invoke[ListAccountsResponse](ctx, c.cc, Accounts_ListAccounts_FullMethodName, in, opts)
}

// SettlementClient is the client API for the Settlement service.
type SettlementClient struct {
	cc grpc.ClientConnInterface
}

// NewSettlementClient creates a client over cc.
func NewSettlementClient(cc grpc.ClientConnInterface) *SettlementClient {
	return &SettlementClient{cc: cc}
}

func (c *SettlementClient) RequestCashIn(ctx context.Context, in *CashInRequest, opts ...grpc.CallOption) (*TransactionResponse, error) {
	return invoke[TransactionResponse](ctx, c.cc, Settlement_RequestCashIn_FullMethodName, in, opts)
}

func (c *SettlementClient) ApproveCashIn(ctx context.Context, in *DecideCashInRequest, opts ...grpc.CallOption) (*TransactionResponse, error) {
	return invoke[TransactionResponse](ctx, c.cc, Settlement_ApproveCashIn_FullMethodName, in, opts)
}

func (c *SettlementClient) RejectCashIn(ctx context.Context, in *DecideCashInRequest, opts ...grpc.CallOption) (*TransactionResponse, error) {
	return invoke[TransactionResponse](ctx, c.cc, Settlement_RejectCashIn_FullMethodName, in, opts)
}

func (c *SettlementClient) RequestCashOut(ctx context.Context, in *CashOutRequest, opts ...grpc.CallOption) (*TransactionResponse, error) {
	return invoke[TransactionResponse](ctx, c.cc, Settlement_RequestCashOut_FullMethodName, in, opts)
}

func (c *SettlementClient) SendMoney(ctx context.Context, in *SendMoneyRequest, opts ...grpc.CallOption) (*TransactionResponse, error) {
	return invoke[TransactionResponse](ctx, c.cc, Settlement_SendMoney_FullMethodName, in, opts)
}

func (c *SettlementClient) QuoteFee(ctx context.Context, in *QuoteFeeRequest, opts ...grpc.CallOption) (*FeeQuote, error) {
	return invoke[FeeQuote](ctx, c.cc, Settlement_QuoteFee_FullMethodName, in, opts)
}

func (c *SettlementClient) GetTransaction(ctx context.Context, in *GetTransactionRequest, opts ...grpc.CallOption) (*TransactionResponse, error) {
	return invoke[TransactionResponse](ctx, c.cc, Settlement_GetTransaction_FullMethodName, in, opts)
}

func (c *SettlementClient) ListMyTransactions(ctx context.Context, in *ListTransactionsRequest, opts ...grpc.CallOption) (*ListTransactionsResponse, error) {
	return invoke[ListTransactionsResponse](ctx, c.cc, Settlement_ListMyTransactions_FullMethodName, in, opts)
}

func (c *SettlementClient) ListPendingCashIn(ctx context.Context, in *ListTransactionsRequest, opts ...grpc.CallOption) (*ListTransactionsResponse, error) {
	return invoke[ListTransactionsResponse](ctx, c.cc, Settlement_ListPendingCashIn_FullMethodName, in, opts)
}
