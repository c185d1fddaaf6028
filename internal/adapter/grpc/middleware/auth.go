package middleware

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	v1 "github.com/iho/mfsledger/internal/adapter/grpc/api/mfsledger/v1"
	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/infrastructure/auth"
)

const (
	// AuthorizationHeader is the metadata key for authorization
	AuthorizationHeader = "authorization"
)

// TokenVerifier validates bearer tokens. *auth.JWTManager implements it.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthInterceptor creates a gRPC authentication interceptor. Public methods
// pass through; everything else needs a valid bearer token. The stored
// principal never has a verified PIN.
func AuthInterceptor(verifier TokenVerifier) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if v1.IsPublicMethod(info.FullMethod) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		values := md.Get(AuthorizationHeader)
		if len(values) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization token")
		}

		accessToken := values[0]
		if scheme, token, found := strings.Cut(accessToken, " "); found && strings.EqualFold(scheme, "Bearer") {
			accessToken = token
		}

		claims, err := verifier.Verify(accessToken)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}

		return handler(domain.ContextWithPrincipal(ctx, claims.Principal()), req)
	}
}
