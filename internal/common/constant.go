// Package common contains shared constants, sentinel errors and small helpers
// used across gophauth server and client components.
package common

// AuthorizationHeaderName is the gRPC metadata key used to carry the access
// token on outbound requests. HTTP clients use the standard Authorization
// header with the same value.
const AuthorizationHeaderName = "authorization"

// BearerPrefix is the scheme prefix expected in front of access tokens.
const BearerPrefix = "Bearer "

// MaxNameLength bounds usernames and first names, matching the column size of
// the users table.
const MaxNameLength = 150

// AuthServiceName is the fully qualified gRPC service name. Method paths are
// built from it and shared by the server and the client.
const AuthServiceName = "gophauth.v1.AuthService"

// Full gRPC method names of AuthService.
const (
	MethodRegister      = "/" + AuthServiceName + "/Register"
	MethodLogin         = "/" + AuthServiceName + "/Login"
	MethodRefreshToken  = "/" + AuthServiceName + "/RefreshToken"
	MethodValidateToken = "/" + AuthServiceName + "/ValidateToken"
	MethodWhoAmI        = "/" + AuthServiceName + "/WhoAmI"
	MethodPing          = "/" + AuthServiceName + "/Ping"
)
