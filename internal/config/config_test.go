package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp keeps godotenv from picking up a stray .env in the package dir.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.Equal(t, "database.json", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []string{"https://*", "http://*"}, cfg.CORS.AllowedOrigins)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "9090")
	t.Setenv("TASKS_STORE_DRIVER", "SQLite")
	t.Setenv("TASKS_SQLITE_PATH", "/tmp/tasks.db")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/tasks.db", cfg.SQLite.Path)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TASKS_STORE_PATH=from-dotenv.json\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("TASKS_STORE_PATH") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.json", cfg.Store.Path)
}

func TestLoadConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 7070\nstore:\n  path: yaml.json\n"), 0o644))
	t.Setenv("TASKS_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "yaml.json", cfg.Store.Path)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"TASKS_STORE_DRIVER": "mongo"}},
		{name: "port out of range", env: map[string]string{"PORT": "70000"}},
		{name: "postgres without host", env: map[string]string{"TASKS_STORE_DRIVER": "postgres"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", Username: "u", Password: "p", Name: "tasks", Schema: "app"}
	assert.Equal(t, "host=db user=u password=p dbname=tasks port=5432 sslmode=disable search_path=app", d.DSN())

	d.URL = "postgres://u:p@db:5432/tasks"
	assert.Equal(t, "postgres://u:p@db:5432/tasks", d.DSN())
}
