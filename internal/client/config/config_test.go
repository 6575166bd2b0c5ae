package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, "gophauth-session.db", c.SessionDBPath)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
}

func TestLoad_Sources(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		env  map[string]string
		want Config
	}{
		{
			name: "defaults",
			want: Config{ServerEndpointAddr: "127.0.0.1:50051", SessionDBPath: "gophauth-session.db", RequestTimeout: 10 * time.Second},
		},
		{
			name: "json keeps missing keys",
			file: "c.json",
			body: `{"server_endpoint_addr":"auth.example:443","request_timeout":"3s"}`,
			want: Config{ServerEndpointAddr: "auth.example:443", SessionDBPath: "gophauth-session.db", RequestTimeout: 3 * time.Second},
		},
		{
			name: "yaml",
			file: "c.yaml",
			body: "session_db_path: /tmp/s.db\nrequest_timeout: 1m\n",
			want: Config{ServerEndpointAddr: "127.0.0.1:50051", SessionDBPath: "/tmp/s.db", RequestTimeout: time.Minute},
		},
		{
			name: "env overrides file",
			file: "c.json",
			body: `{"server_endpoint_addr":"file:1"}`,
			env:  map[string]string{"GOPHAUTH_CLIENT_SERVER_ADDR": "env:2", "GOPHAUTH_CLIENT_REQUEST_TIMEOUT": "5s"},
			want: Config{ServerEndpointAddr: "env:2", SessionDBPath: "gophauth-session.db", RequestTimeout: 5 * time.Second},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file, tt.body)
			}

			got, err := Load(path)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, *got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read config file")

	_, err = Load(writeFile(t, "bad.json", "{"))
	assert.ErrorContains(t, err, "decode config file")
}
