package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/treasury-engine/config"
)

// noEnvFile points Load at a file that does not exist so a developer's
// local .env cannot leak into the tests.
func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, config.BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "treasury.db", cfg.DBPath)
	assert.Equal(t, "Iglesia", cfg.ChurchName)
	assert.Equal(t, 2000, cfg.EpochFloorYear)
	assert.Equal(t, "es", cfg.ReportLocale)
	assert.Equal(t, "S/", cfg.CurrencySymbol)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:8080"}, cfg.CORSOrigins)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "Memory")
	t.Setenv("CHURCH_NAME", " Maranata ")
	t.Setenv("EPOCH_FLOOR_YEAR", "2015")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := config.Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, config.BackendMemory, cfg.StoreBackend)
	assert.Equal(t, "Maranata", cfg.ChurchName)
	assert.Equal(t, 2015, cfg.EpochFloorYear)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("REPORT_LOCALE=en-US\nCURRENCY_SYMBOL=$\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("REPORT_LOCALE")
		os.Unsetenv("CURRENCY_SYMBOL")
	})

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "en-US", cfg.ReportLocale)
	assert.Equal(t, "$", cfg.CurrencySymbol)
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Port: 8080, StoreBackend: config.BackendSQLite, DBPath: "x.db",
			ChurchName: "Iglesia", EpochFloorYear: 2000, ReportLocale: "es",
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*config.Config){
		"port":    func(c *config.Config) { c.Port = 0 },
		"backend": func(c *config.Config) { c.StoreBackend = "postgres" },
		"db path": func(c *config.Config) { c.DBPath = "" },
		"floor":   func(c *config.Config) { c.EpochFloorYear = 0 },
		"locale":  func(c *config.Config) { c.ReportLocale = "??" },
		"church":  func(c *config.Config) { c.ChurchName = "" },
	}
	for name, edit := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			edit(c)
			assert.Error(t, c.Validate())
		})
	}

	c := valid()
	c.StoreBackend = config.BackendMemory
	c.DBPath = ""
	assert.NoError(t, c.Validate())
}

func TestLoad_MalformedDotEnvFails(t *testing.T) {
	// GIVEN: an env file with an invalid variable name
	path := filepath.Join(t.TempDir(), "bad.env")
	require.NoError(t, os.WriteFile(path, []byte("BAD$KEY=1\n"), 0o600))

	// WHEN: configuration is loaded from it
	cfg, err := config.Load(path)

	// THEN: the parse error is returned, not skipped like a missing file
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "load env file")
}
