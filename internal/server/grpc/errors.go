package grpc

import (
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client-visible messages for rejected access tokens. The client refreshes
// its session when it sees msgTokenExpired.
const (
	msgTokenExpired = "token expired"
	msgTokenInvalid = "token is invalid"
	msgTokenMissing = "token is missing"
)

// toStatus maps service errors to gRPC statuses without exposing internals.
func toStatus(err error) error {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, common.ErrDuplicateUsername):
		return status.Error(codes.AlreadyExists, "This user already exists")
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())
	case errors.Is(err, common.ErrAccountLocked):
		return status.Error(codes.ResourceExhausted, common.ErrAccountLocked.Error())
	case isTokenError(err):
		return tokenStatus(err)
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func isTokenError(err error) bool {
	return errors.Is(err, common.ErrMissingToken) ||
		errors.Is(err, common.ErrMalformedToken) ||
		errors.Is(err, common.ErrInvalidSignature) ||
		errors.Is(err, common.ErrTokenExpired)
}

// tokenStatus only tells the client whether to refresh or to log in again.
func tokenStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrMissingToken):
		return status.Error(codes.Unauthenticated, msgTokenMissing)
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, msgTokenExpired)
	case isTokenError(err):
		return status.Error(codes.Unauthenticated, msgTokenInvalid)
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
