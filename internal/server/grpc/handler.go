package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := s.users.Register(ctx, stringField(req, "user"), stringField(req, "password"), stringField(req, "first_name"))
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "user_id", user.ID)
	return respond(map[string]any{
		"message": "Signup successful",
		"user":    userFields(user),
	})
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	pair, err := s.users.Login(ctx, stringField(req, "user"), stringField(req, "password"))
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(pairFields("Login successful", pair))
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	pair, err := s.users.RefreshToken(ctx, stringField(req, "refresh_token"))
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(pairFields("Token refreshed", pair))
}

// ValidateToken lets other services check an access token without sharing
// the signing key.
func (s *GRPCServer) ValidateToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := s.authn.Authenticate(stringField(req, "token"))
	s.metrics.TokenValidation(metrics.ValidationResult(err))
	if err != nil {
		return nil, tokenStatus(err)
	}
	return respond(map[string]any{"valid": true, "user_id": userID})
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userID, ok := userIDFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, msgTokenMissing)
	}
	user, err := s.users.CurrentUser(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	fields := userFields(user)
	fields["created_at"] = user.CreatedAt.UTC().Format(time.RFC3339)
	return respond(fields)
}

func (s *GRPCServer) Ping(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return respond(map[string]any{"status": "OK"})
}

func userFields(u *models.User) map[string]any {
	return map[string]any{
		"id":         u.ID,
		"user":       u.UserName,
		"first_name": u.FirstName,
	}
}

func pairFields(message string, pair *services.TokenPair) map[string]any {
	fields := map[string]any{
		"message":    message,
		"token":      pair.AccessToken,
		"expires_at": pair.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if pair.RefreshToken != "" {
		fields["refresh_token"] = pair.RefreshToken
	}
	return fields
}

func respond(fields map[string]any) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}
