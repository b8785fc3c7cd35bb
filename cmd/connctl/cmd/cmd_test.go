package cmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/connections/cmd/connctl/cmd"
	"go.pilab.hu/connections/config"
	"go.pilab.hu/connections/domain"
	"go.pilab.hu/connections/inmemory"
)

const seedYAML = `connections:
  - user_id: u42
    rank: 1
    provider_id: paypal
    provider_user_id: pp1
    display_name: Jane
    access_token: secret
  - user_id: u42
    rank: 2
    provider_id: paypal
    provider_user_id: pp2
  - user_id: u99
    provider_id: paypal
    provider_user_id: pp1
  - user_id: u99
    provider_id: github
    provider_user_id: octo
    expire_time: 2030-01-01T00:00:00Z
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// run executes connctl against registry and returns stdout.
func run(t *testing.T, registry *inmemory.Registry, args ...string) (string, error) {
	t.Helper()

	closed := false
	open := func(context.Context, *config.Config) (domain.UsersConnectionRepository, func(context.Context) error, error) {
		return registry, func(context.Context) error { closed = true; return nil }, nil
	}

	cfgPath := writeFile(t, "connections.yaml", "log_level: error\n")
	root := cmd.NewRootCmd(open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", cfgPath}, args...))

	err := root.Execute()
	if err == nil {
		assert.True(t, closed, "store is released after the command")
	}
	return out.String(), err
}

func TestSeed(t *testing.T) {
	registry := inmemory.NewRegistry()

	out, err := run(t, registry, "seed", "--file", writeFile(t, "seed.yaml", seedYAML))
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 4 connections")

	ctx := context.Background()
	u42, err := registry.StoreFor("u42")
	require.NoError(t, err)
	primary, err := u42.FindPrimaryConnection(ctx, "paypal")
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.Equal(t, "pp1", primary.ProviderUserID)
	assert.Equal(t, "secret", primary.AccessToken)
	paypal, err := u42.StoreFor("paypal")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, paypal.Ranks())

	ids, err := registry.FindUserIDsConnectedTo(ctx, "paypal", []string{"pp1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u42", "u99"}, ids)
}

func TestSeed_Errors(t *testing.T) {
	registry := inmemory.NewRegistry()

	_, err := run(t, registry, "seed")
	assert.ErrorContains(t, err, "--file")

	_, err = run(t, registry, "seed", "--file", writeFile(t, "bad.yaml", "connections: [not: [valid"))
	assert.ErrorContains(t, err, "parse seed file")

	dup := "connections:\n" +
		"  - {user_id: u1, rank: 1, provider_id: p, provider_user_id: a}\n" +
		"  - {user_id: u1, rank: 2, provider_id: p, provider_user_id: a}\n"
	_, err = run(t, registry, "seed", "--file", writeFile(t, "dup.yaml", dup))
	assert.ErrorIs(t, err, domain.ErrDuplicateConnection)
	assert.ErrorContains(t, err, "connection #2")
}

func TestListAndWhois(t *testing.T) {
	registry := inmemory.NewRegistry()
	_, err := run(t, registry, "seed", "--file", writeFile(t, "seed.yaml", seedYAML))
	require.NoError(t, err)

	out, err := run(t, registry, "list", "--user", "u99")
	require.NoError(t, err)
	assert.Contains(t, out, "PROVIDER")
	assert.Contains(t, out, "octo")
	assert.Contains(t, out, "2030-01-01T00:00:00Z")
	assert.Contains(t, out, "pp1")

	out, err = run(t, registry, "list", "--user", "u42", "--provider", "paypal", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "provider_user_id: pp2")
	assert.NotContains(t, out, "secret")

	_, err = run(t, registry, "list")
	assert.ErrorContains(t, err, "--user")

	out, err = run(t, registry, "whois", "--provider", "paypal", "--id", "pp1,pp2")
	require.NoError(t, err)
	assert.Equal(t, "u42\nu99\n", out)

	out, err = run(t, registry, "whois", "--provider", "paypal", "--id", "nobody")
	require.NoError(t, err)
	assert.Empty(t, out)
}
