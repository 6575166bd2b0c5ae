package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	configFlags := []string{"-c", "-config"}

	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{"config among server flags", []string{"-a", ":50051", "-c", "server.yaml", "-s", "secret"}, configFlags, []string{"-c", "server.yaml"}},
		{"equals form", []string{"-d", "postgres://db", "-config=/etc/gophauth/server.json"}, configFlags, []string{"-config=/etc/gophauth/server.json"}},
		{"equals form of other flag dropped", []string{"-t=60", "-c=a.yml"}, configFlags, []string{"-c=a.yml"}},
		{"no config flag", []string{"-l", ":8080", "-v", "debug"}, configFlags, []string{}},
		{"dangling flag at end", []string{"-v", "info", "-c"}, configFlags, []string{"-c"}},
		{"next flag is not a value", []string{"-c", "-a", ":1"}, configFlags, []string{"-c"}},
		{"value starting with dash in equals form", []string{"-config=-odd.json"}, configFlags, []string{"-config=-odd.json"}},
		{"order preserved across repeats", []string{"-c", "one.yaml", "-config", "two.yaml"}, configFlags, []string{"-c", "one.yaml", "-config", "two.yaml"}},
		{"several allowed flags", []string{"-x", "1", "-a", ":9000", "-l", ":9001", "-c", "c.json"}, []string{"-a", "-l"}, []string{"-a", ":9000", "-l", ":9001"}},
		{"positional ignored", []string{"serve", "-c", "c.json"}, configFlags, []string{"-c", "c.json"}},
		{"nil args", nil, configFlags, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowed)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	saved := os.Args
	t.Cleanup(func() { os.Args = saved })

	tests := []struct {
		name string
		argv []string
		want string
	}{
		{"short", []string{"gophauth-server", "-c", "server.yaml"}, "server.yaml"},
		{"long", []string{"gophauth-server", "-config", "server.json"}, "server.json"},
		{"equals mixed with others", []string{"gophauth-server", "-a", ":1", "-config=/srv/gophauth.yml", "-v", "debug"}, "/srv/gophauth.yml"},
		{"absent", []string{"gophauth-server", "-l", ":8080"}, ""},
		{"last one wins", []string{"gophauth-server", "-c", "first.json", "-config", "second.json"}, "second.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.argv
			assert.Equal(t, tt.want, ConfigFileFlag())
		})
	}
}
