package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antlu/giveaway-assistant/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "giveaway-assistant", cmd.Use)

	for _, path := range [][]string{{"serve"}, {"db"}, {"db", "create"}, {"db", "drop"}, {"db", "reset"}} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	envFile := cmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, envFile)
	assert.Equal(t, ".env", envFile.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("db"))
}

func TestDBLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.sqlite3")

	_, err := execute(t, "db", "reset", "--db", path)
	assert.ErrorContains(t, err, "db create")

	out, err := execute(t, "db", "create", "--db", path)
	require.NoError(t, err)
	assert.Equal(t, "Tables created\n", out)

	out, err = execute(t, "db", "create", "--db", path)
	require.NoError(t, err)
	assert.Equal(t, "Tables already exist\n", out)

	out, err = execute(t, "db", "reset", "--db", path)
	require.NoError(t, err)
	assert.Equal(t, "Tables reset\n", out)

	out, err = execute(t, "db", "drop", "--db", path)
	require.NoError(t, err)
	assert.Equal(t, "Tables dropped\n", out)

	s, err := store.Open(path)
	require.NoError(t, err)
	defer s.Close()
	exists, err := s.TablesExist(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestServeRequiresTwitchSettings(t *testing.T) {
	for _, key := range []string{"GA_NICK", "GA_PASS", "GA_CLIENT_ID", "GA_CLIENT_SECRET", "GA_USER_ACCESS_TOKEN", "GA_CHANNELS"} {
		t.Setenv(key, "")
	}

	_, err := execute(t, "serve", "--db", filepath.Join(t.TempDir(), "serve.sqlite3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GA_NICK is not set")
	assert.Contains(t, err.Error(), "GA_USER_ACCESS_TOKEN or GA_CLIENT_SECRET must be set")
}

func TestChannelsToJoin(t *testing.T) {
	assert.Equal(t, []string{"foo", "bar", "baz"}, channelsToJoin([]string{"foo", "bar"}, []string{"bar", "baz"}))
	assert.Empty(t, channelsToJoin(nil, nil))
}
