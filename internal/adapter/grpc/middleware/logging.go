package middleware

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor hands a request-scoped logger to the servers through the
// context and logs every call.
func LoggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()

		callLogger := logger.With().Str("method", info.FullMethod).Logger()
		ctx = callLogger.WithContext(ctx)

		resp, err := handler(ctx, req)

		code := status.Code(err)
		event := callLogger.Info()
		if code == codes.Internal || code == codes.Unknown {
			event = callLogger.Error().Err(err)
		}
		event.
			Str("code", code.String()).
			Dur("duration", time.Since(start)).
			Msg("rpc completed")

		return resp, err
	}
}

// RecoveryInterceptor turns a panicking call into codes.Internal.
func RecoveryInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Interface("error", r).
					Str("stack", string(debug.Stack())).
					Str("method", info.FullMethod).
					Msg("panic recovered")
				resp, err = nil, status.Error(codes.Internal, "storage_failure: internal server error")
			}
		}()

		return handler(ctx, req)
	}
}
