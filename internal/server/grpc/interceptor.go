package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

type ctxKey string

// UserIDKey holds the authenticated subject in the handler context.
const UserIDKey ctxKey = "userID"

// protectedMethods require a valid access token in the authorization
// metadata.
var protectedMethods = map[string]struct{}{
	common.MethodWhoAmI: {},
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if _, ok := protectedMethods[info.FullMethod]; !ok {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AuthorizationHeaderName); len(values) > 0 {
			accessToken = auth.BearerToken(values[0])
		}
	}

	userID, err := s.authn.Authenticate(accessToken)
	s.metrics.TokenValidation(metrics.ValidationResult(err))
	if err != nil {
		return nil, tokenStatus(err)
	}

	return handler(context.WithValue(ctx, UserIDKey, userID), req)
}

func userIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}
