package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	v1 "github.com/iho/mfsledger/internal/adapter/grpc/api/mfsledger/v1"
	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the metadata key for idempotency
	IdempotencyKeyHeader = "x-idempotency-key"

	processingMarker = "processing"
)

// storedCall is what a completed call leaves behind under its key.
type storedCall struct {
	RequestHash string          `json:"request_hash"`
	Response    json.RawMessage `json:"response"`
}

// IdempotencyInterceptor creates a gRPC unary interceptor for idempotency.
// A key claims the call; a retry with the same key and request gets the
// first response back, and a retry with a different request is rejected.
// Failed calls release the key, and calls without a principal are never
// cached. ttl <= 0 uses usecase.IdempotencyKeyTTL.
func IdempotencyInterceptor(store usecase.IdempotencyStore, ttl time.Duration) grpc.UnaryServerInterceptor {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if store == nil || v1.IsReadOnlyMethod(info.FullMethod) {
			return handler(ctx, req)
		}

		principal, ok := domain.PrincipalFromContext(ctx)
		if !ok || principal.ID == "" {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return handler(ctx, req)
		}

		keys := md.Get(IdempotencyKeyHeader)
		if len(keys) == 0 {
			return handler(ctx, req)
		}

		idempotencyKey := keys[0]
		if idempotencyKey == "" {
			return nil, status.Error(codes.InvalidArgument, "idempotency key cannot be empty")
		}

		cacheKey := fmt.Sprintf("grpc:%s:%s:%s", principal.ID, info.FullMethod, idempotencyKey)

		requestHash, err := hashRequest(req)
		if err != nil {
			return nil, status.Error(codes.Internal, "failed to generate request hash")
		}

		exists, cached, err := store.CheckAndSet(ctx, cacheKey, nil, ttl)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("method", info.FullMethod).Msg("idempotency check failed")
			return nil, status.Error(codes.Internal, "idempotency check failed")
		}

		if exists {
			return replay(info.FullMethod, cached, requestHash)
		}

		resp, err := handler(ctx, req)

		// The handler is done; a cancelled client must not leave the key held.
		storeCtx := context.WithoutCancel(ctx)
		if err != nil {
			_ = store.Release(storeCtx, cacheKey)
			return resp, err
		}

		payload, marshalErr := json.Marshal(resp)
		if marshalErr == nil {
			payload, marshalErr = json.Marshal(storedCall{RequestHash: requestHash, Response: payload})
		}
		if marshalErr != nil {
			_ = store.Release(storeCtx, cacheKey)
			return resp, nil
		}
		if err := store.Update(storeCtx, cacheKey, payload, ttl); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("method", info.FullMethod).Msg("failed to store idempotent response")
		}

		return resp, nil
	}
}

func replay(fullMethod string, cached []byte, requestHash string) (any, error) {
	if cached == nil || string(cached) == processingMarker {
		return nil, status.Error(codes.Aborted, "a request with this idempotency key is in progress")
	}

	var call storedCall
	if err := json.Unmarshal(cached, &call); err != nil {
		return nil, status.Error(codes.Internal, "stored idempotent response is unreadable")
	}

	if call.RequestHash != requestHash {
		return nil, status.Error(codes.InvalidArgument, "idempotency key reused with different request body")
	}

	resp, ok := v1.NewResponse(fullMethod)
	if !ok {
		return nil, status.Error(codes.Internal, "unknown method")
	}
	if err := json.Unmarshal(call.Response, resp); err != nil {
		return nil, status.Error(codes.Internal, "stored idempotent response is unreadable")
	}
	return resp, nil
}

// hashRequest fingerprints the request so a reused key with a different
// body can be told apart from a retry.
func hashRequest(req any) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
