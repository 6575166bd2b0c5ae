// Package client talks to the gophauth gRPC endpoint and keeps the local
// session database.
package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// User is an account as reported by the server.
type User struct {
	ID        string
	UserName  string
	FirstName string
	CreatedAt time.Time
}

// Tokens is the credential pair held by a logged-in client.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// invoker matches grpc.ClientConn.Invoke.
type invoker interface {
	Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	cc          invoker

	mu        sync.Mutex
	tokens    Tokens
	onRefresh func(Tokens)
}

// NewGRPCClient dials endpointURL lazily; no connection is made until the
// first call.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.cc = conn
	return c, nil
}

// SetTokens installs a previously saved session.
func (c *GRPCClient) SetTokens(t Tokens) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = t
}

func (c *GRPCClient) Tokens() Tokens {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

// OnRefresh registers fn to be called with the new pair whenever the client
// refreshes an expired access token on its own.
func (c *GRPCClient) OnRefresh(fn func(Tokens)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefresh = fn
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the access token and, when the server says
// it expired, refreshes once and retries the call.
func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if method != common.MethodWhoAmI {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	tokens := c.Tokens()
	err := invoker(withAccessToken(ctx, tokens.AccessToken), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if tokens.RefreshToken == "" {
		return err
	}

	refreshed, rerr := c.Refresh(ctx, tokens.RefreshToken)
	if rerr != nil {
		return rerr
	}

	c.mu.Lock()
	notify := c.onRefresh
	c.mu.Unlock()
	if notify != nil {
		notify(*refreshed)
	}

	return invoker(withAccessToken(ctx, refreshed.AccessToken), method, req, reply, cc, opts...)
}

func (c *GRPCClient) call(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, method, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *GRPCClient) Register(ctx context.Context, userName string, password []byte, firstName string) (*User, error) {
	resp, err := c.call(ctx, common.MethodRegister, map[string]any{
		"user":       userName,
		"password":   string(password),
		"first_name": firstName,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return parseUser(resp.GetFields()["user"].GetStructValue()), nil
}

// Login authenticates and keeps the returned tokens for later calls.
func (c *GRPCClient) Login(ctx context.Context, userName string, password []byte) (*Tokens, error) {
	resp, err := c.call(ctx, common.MethodLogin, map[string]any{
		"user":     userName,
		"password": string(password),
	})
	if err != nil {
		return nil, mapError(err)
	}

	t := parseTokens(resp)
	c.SetTokens(*t)
	return t, nil
}

// Refresh exchanges refreshToken for a new pair and keeps it.
func (c *GRPCClient) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	resp, err := c.call(ctx, common.MethodRefreshToken, map[string]any{"refresh_token": refreshToken})
	if err != nil {
		return nil, mapError(err)
	}

	t := parseTokens(resp)
	c.SetTokens(*t)
	return t, nil
}

func (c *GRPCClient) WhoAmI(ctx context.Context) (*User, error) {
	resp, err := c.call(ctx, common.MethodWhoAmI, nil)
	if err != nil {
		return nil, mapError(err)
	}
	return parseUser(resp), nil
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	resp, err := c.call(ctx, common.MethodPing, nil)
	if err != nil {
		return mapError(err)
	}
	if resp.GetFields()["status"].GetStringValue() != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (c *GRPCClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func parseUser(s *structpb.Struct) *User {
	f := s.GetFields()
	u := &User{
		ID:        f["id"].GetStringValue(),
		UserName:  f["user"].GetStringValue(),
		FirstName: f["first_name"].GetStringValue(),
	}
	if ts, err := time.Parse(time.RFC3339, f["created_at"].GetStringValue()); err == nil {
		u.CreatedAt = ts
	}
	return u
}

func parseTokens(s *structpb.Struct) *Tokens {
	f := s.GetFields()
	t := &Tokens{
		AccessToken:  f["token"].GetStringValue(),
		RefreshToken: f["refresh_token"].GetStringValue(),
	}
	if ts, err := time.Parse(time.RFC3339, f["expires_at"].GetStringValue()); err == nil {
		t.ExpiresAt = ts
	}
	return t
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		if st.Message() == common.ErrTokenExpired.Error() {
			return ErrTokenExpired
		}
		return ErrUnauthorized
	case codes.PermissionDenied:
		return ErrUnauthorized
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.ResourceExhausted:
		return ErrLocked
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
