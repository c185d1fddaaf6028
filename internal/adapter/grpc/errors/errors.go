package errors

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/iho/mfsledger/internal/domain"
)

// internalMessage replaces storage failure details on the wire.
const internalMessage = "the request could not be completed, try again later"

// MapDomainError converts domain errors to gRPC status errors. The message
// starts with the stable kind code so clients can tell the kinds apart even
// when they share a status code. Storage failure details are never exposed.
func MapDomainError(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return status.Error(codes.Unauthenticated, "unauthorized: "+err.Error())

	// Context errors (timeouts, cancellations)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "operation timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "operation was canceled")
	}

	kind := domain.KindOf(err)
	code := Code(kind)
	if kind == domain.KindStorageFailure {
		return status.Error(code, string(kind)+": "+internalMessage)
	}
	return status.Error(code, string(kind)+": "+err.Error())
}

// Code returns the gRPC status code for an error kind.
func Code(kind domain.ErrorKind) codes.Code {
	switch kind {
	case domain.KindNotAuthorized:
		return codes.PermissionDenied
	case domain.KindNotFound:
		return codes.NotFound
	case domain.KindInvalidState:
		return codes.Aborted
	case domain.KindInvalidAmount, domain.KindBelowMinimum, domain.KindInvalidParties, domain.KindInvalidInput:
		return codes.InvalidArgument
	case domain.KindInsufficientFunds:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}
