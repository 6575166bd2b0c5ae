package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// AuthService is the gophauth.v1.AuthService contract. Requests and responses
// are free-form structpb.Struct messages, so no generated code is needed.
type AuthService interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RefreshToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WhoAmI(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAuthService registers svc on server under common.AuthServiceName.
func RegisterAuthService(server grpc.ServiceRegistrar, svc AuthService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: common.AuthServiceName,
		HandlerType: (*AuthService)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Register", Handler: unaryHandler(common.MethodRegister, svc.Register)},
			{MethodName: "Login", Handler: unaryHandler(common.MethodLogin, svc.Login)},
			{MethodName: "RefreshToken", Handler: unaryHandler(common.MethodRefreshToken, svc.RefreshToken)},
			{MethodName: "ValidateToken", Handler: unaryHandler(common.MethodValidateToken, svc.ValidateToken)},
			{MethodName: "WhoAmI", Handler: unaryHandler(common.MethodWhoAmI, svc.WhoAmI)},
			{MethodName: "Ping", Handler: unaryHandler(common.MethodPing, svc.Ping)},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "gophauth/v1/auth.proto",
	}, svc)
}

type unaryMethod func(context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}

func stringField(req *structpb.Struct, name string) string {
	if v := req.GetFields()[name]; v != nil {
		return v.GetStringValue()
	}
	return ""
}
