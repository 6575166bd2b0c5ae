package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	registered struct{ user, password, firstName string }
	loggedIn   struct{ user, password string }
	password   []byte

	loginErr  error
	whoamiErr error
	refresh   *session.Session
	closed    bool
	loggedOut bool
}

func (f *fakeAuth) Register(_ context.Context, userName string, password []byte, firstName string) (*client.User, error) {
	f.registered.user, f.registered.password, f.registered.firstName = userName, string(password), firstName
	f.password = password
	return &client.User{ID: "u-1", UserName: userName, FirstName: firstName}, nil
}

func (f *fakeAuth) Login(_ context.Context, userName string, password []byte) error {
	f.loggedIn.user, f.loggedIn.password = userName, string(password)
	f.password = password
	return f.loginErr
}

func (f *fakeAuth) Refresh(context.Context) (*session.Session, error) {
	if f.refresh == nil {
		return nil, session.ErrNoSession
	}
	return f.refresh, nil
}

func (f *fakeAuth) WhoAmI(context.Context) (*client.User, error) {
	if f.whoamiErr != nil {
		return nil, f.whoamiErr
	}
	return &client.User{ID: "u-1", UserName: "alice", FirstName: "Alice"}, nil
}

func (f *fakeAuth) Logout(context.Context) error { f.loggedOut = true; return nil }
func (f *fakeAuth) Ping(context.Context) error   { return nil }
func (f *fakeAuth) Close() error                 { f.closed = true; return nil }

func run(t *testing.T, f *fakeAuth, stdin string, args ...string) (string, *config.Config, error) {
	t.Helper()
	withTerminal(t, false, nil)

	var gotCfg *config.Config
	cmd := NewRootCmd(func(_ context.Context, cfg *config.Config) (AuthAPI, error) {
		gotCfg = cfg
		return f, nil
	})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), gotCfg, err
}

func TestRegister_PromptsAndWipesPassword(t *testing.T) {
	f := &fakeAuth{}

	out, _, err := run(t, f, "alice\npw1\n", "register", "--first-name", "Alice")
	require.NoError(t, err)

	assert.Equal(t, "alice", f.registered.user)
	assert.Equal(t, "pw1", f.registered.password)
	assert.Equal(t, "Alice", f.registered.firstName)
	assert.Equal(t, []byte{0, 0, 0}, f.password)
	assert.Contains(t, out, "Signup successful: alice (u-1)")
	assert.True(t, f.closed)
}

func TestLogin_UserFlag(t *testing.T) {
	f := &fakeAuth{}

	out, _, err := run(t, f, "pw1\n", "login", "-u", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", f.loggedIn.user)
	assert.Equal(t, "pw1", f.loggedIn.password)
	assert.Contains(t, out, "Login successful")
}

func TestLogin_Error(t *testing.T) {
	f := &fakeAuth{loginErr: client.ErrUnauthorized}

	_, _, err := run(t, f, "pw1\n", "login", "-u", "alice")
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, []byte{0, 0, 0}, f.password)
}

func TestWhoAmI(t *testing.T) {
	out, _, err := run(t, &fakeAuth{}, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "user:       alice")
	assert.Contains(t, out, "first name: Alice")
}

func TestWhoAmI_NotLoggedIn(t *testing.T) {
	_, _, err := run(t, &fakeAuth{whoamiErr: session.ErrNoSession}, "", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestWhoAmI_SessionInvalid(t *testing.T) {
	_, _, err := run(t, &fakeAuth{whoamiErr: client.ErrUnauthorized}, "", "whoami")
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestRefresh(t *testing.T) {
	f := &fakeAuth{refresh: &session.Session{UserName: "alice", AccessToken: "A2", ExpiresAt: time.Now().Add(time.Hour)}}

	out, _, err := run(t, f, "", "refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "Session refreshed")
}

func TestLogoutAndPing(t *testing.T) {
	f := &fakeAuth{}

	out, _, err := run(t, f, "", "logout")
	require.NoError(t, err)
	assert.True(t, f.loggedOut)
	assert.Contains(t, out, "Logged out")

	out, _, err = run(t, f, "", "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "OK")
}

func TestFlagsOverrideConfig(t *testing.T) {
	_, cfg, err := run(t, &fakeAuth{}, "", "ping", "--server", "auth.example:9000", "--session", "/tmp/gophauth-test.db")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "auth.example:9000", cfg.ServerEndpointAddr)
	assert.Equal(t, "/tmp/gophauth-test.db", cfg.SessionDBPath)
}

func TestHelp_DoesNotOpenSession(t *testing.T) {
	cmd := NewRootCmd(func(context.Context, *config.Config) (AuthAPI, error) {
		return nil, errors.New("factory must not be called")
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"help"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	for _, sub := range []string{"register", "login", "refresh", "whoami", "logout", "ping"} {
		assert.Contains(t, out.String(), sub)
	}
}

func TestFactoryError(t *testing.T) {
	cmd := NewRootCmd(func(context.Context, *config.Config) (AuthAPI, error) {
		return nil, errors.New("no db")
	})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"whoami"})

	assert.EqualError(t, cmd.ExecuteContext(context.Background()), "no db")
}
