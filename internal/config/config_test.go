package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid minimal config",
			yaml: `
database:
  host: localhost
  name: testdb
  user: testuser
llm:
  backend: ollama
  ollama:
    endpoint: http://localhost:11434
    model: mistral
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "testdb", cfg.Database.Name)
				assert.Equal(t, "testuser", cfg.Database.User)
				assert.Equal(t, "ollama", cfg.LLM.Backend)
				assert.Equal(t, "http://localhost:11434", cfg.LLM.Ollama.Endpoint)
			},
		},
		{
			name: "defaults applied for optional fields",
			yaml: `
database:
  host: localhost
  name: testdb
  user: testuser
llm:
  backend: ollama
  ollama:
    endpoint: http://localhost:11434
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, 10, cfg.Database.PoolSize)
				assert.Equal(t, "EGP", cfg.Search.Currency)
				assert.Equal(t, "Cairo, Egypt", cfg.Search.Location)
				assert.Equal(t, int64(250), cfg.Search.RateLimit.DailyLimit)
				assert.Equal(t, "gemini-1.5-flash", cfg.Vision.Model)
				assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
				assert.Equal(t, 3, cfg.Valuation.MinSamples)
				assert.Equal(t, 10, cfg.Valuation.LowPercentile)
				assert.Equal(t, 90, cfg.Valuation.HighPercentile)
				assert.Equal(t, 5*time.Minute, cfg.Valuation.DedupWindow)
				assert.Equal(t, 0.5, cfg.Valuation.LowClampFactor)
				assert.Equal(t, 8, cfg.Valuation.HighConfidenceSamples)
				assert.Equal(t, 0.70, cfg.Valuation.FallbackDiscount)
				assert.Equal(t, 24*time.Hour, cfg.Valuation.ReferenceTTL)
				assert.Equal(t, "EGP", cfg.Rates.Base)
				assert.Equal(t, 6*time.Hour, cfg.Schedule.PruneInterval)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "env var substitution",
			yaml: `
database:
  host: localhost
  name: testdb
  user: testuser
  password: "${TEST_DB_PASSWORD}"
llm:
  backend: ollama
  ollama:
    endpoint: http://localhost:11434
search:
  api_key: "${TEST_SERP_KEY}"
`,
			envVars: map[string]string{
				"TEST_DB_PASSWORD": "secret123",
				"TEST_SERP_KEY":    "serp-key-456",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "secret123", cfg.Database.Password)
				assert.Equal(t, "serp-key-456", cfg.Search.APIKey)
			},
		},
		{
			name: "missing required database.host",
			yaml: `
database:
  name: testdb
  user: testuser
llm:
  backend: ollama
  ollama:
    endpoint: http://localhost:11434
`,
			wantErr: "database.host is required",
		},
		{
			name: "invalid llm backend",
			yaml: `
database:
  host: localhost
  name: testdb
  user: testuser
llm:
  backend: invalid_backend
`,
			wantErr: `llm.backend must be one of: ollama, anthropic, openai_compat (got "invalid_backend")`,
		},
		{
			name: "anthropic backend missing model",
			yaml: `
database:
  host: localhost
  name: testdb
  user: testuser
llm:
  backend: anthropic
`,
			wantErr: "llm.anthropic.model is required when backend is anthropic",
		},
		{
			name: "openai_compat backend missing endpoint",
			yaml: `
database:
  host: localhost
  name: testdb
  user: testuser
llm:
  backend: openai_compat
`,
			wantErr: "llm.openai_compat.endpoint is required when backend is openai_compat",
		},
		{
			name: "percentiles out of order",
			yaml: `
database:
  host: localhost
  name: testdb
  user: testuser
llm:
  backend: ollama
  ollama:
    endpoint: http://localhost:11434
valuation:
  low_percentile: 90
  high_percentile: 10
`,
			wantErr: "valuation percentiles must satisfy 0 < low < high < 100",
		},
		{
			name: "multiplier above one",
			yaml: `
database:
  host: localhost
  name: testdb
  user: testuser
llm:
  backend: ollama
  ollama:
    endpoint: http://localhost:11434
valuation:
  multipliers:
    excellent: 1.3
`,
			wantErr: "valuation.multipliers.excellent must be within [0,1]",
		},
		{
			name: "negative penalty",
			yaml: `
database:
  host: localhost
  name: testdb
  user: testuser
llm:
  backend: ollama
  ollama:
    endpoint: http://localhost:11434
valuation:
  penalties:
    crack: -5
`,
			wantErr: "valuation.penalties.crack must be non-negative",
		},
		{
			name: "non-positive currency rate",
			yaml: `
database:
  host: localhost
  name: testdb
  user: testuser
llm:
  backend: ollama
  ollama:
    endpoint: http://localhost:11434
rates:
  base: EGP
  table:
    USD: -50
`,
			wantErr: "rates.table.USD must be positive",
		},
		{
			name:    "invalid YAML",
			yaml:    `{{{not valid yaml`,
			wantErr: "parsing config YAML",
		},
		{
			name: "full config with overrides",
			yaml: `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 60s
  write_timeout: 60s
database:
  host: db.example.com
  port: 5433
  name: valuator_prod
  user: admin
  password: pass
  sslmode: require
  pool_size: 20
search:
  api_key: serp-key
  location: "Alexandria, Egypt"
  currency: EGP
  sites:
    - jumia.com.eg
    - noon.com/egypt
  rate_limit:
    per_second: 2
    burst: 4
    daily_limit: 100
vision:
  enabled: true
  model: gemini-1.5-pro
llm:
  backend: ollama
  ollama:
    endpoint: http://ollama:11434
    model: mistral:7b
  timeout: 60s
valuation:
  penalties:
    scratch: 8
    crack: 25
  multipliers:
    excellent: 1.0
    damaged: 0.15
  min_samples: 5
  high_confidence_samples: 12
  fallback_discount: 0.65
  reference_ttl: 48h
rates:
  base: EGP
  table:
    USD: 48.5
    EUR: 52.1
schedule:
  prune_interval: 12h
logging:
  level: debug
  format: json
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "db.example.com", cfg.Database.Host)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, 20, cfg.Database.PoolSize)
				assert.Equal(t, "serp-key", cfg.Search.APIKey)
				assert.Equal(t, "Alexandria, Egypt", cfg.Search.Location)
				assert.Equal(t, []string{"jumia.com.eg", "noon.com/egypt"}, cfg.Search.Sites)
				assert.Equal(t, int64(100), cfg.Search.RateLimit.DailyLimit)
				assert.True(t, cfg.Vision.Enabled)
				assert.Equal(t, "gemini-1.5-pro", cfg.Vision.Model)
				assert.Equal(t, "mistral:7b", cfg.LLM.Ollama.Model)
				assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
				assert.Equal(t, 8.0, cfg.Valuation.Penalties["scratch"])
				assert.Equal(t, 0.15, cfg.Valuation.Multipliers["damaged"])
				assert.Equal(t, 5, cfg.Valuation.MinSamples)
				assert.Equal(t, 12, cfg.Valuation.HighConfidenceSamples)
				assert.Equal(t, 0.65, cfg.Valuation.FallbackDiscount)
				assert.Equal(t, 48*time.Hour, cfg.Valuation.ReferenceTTL)
				assert.Equal(t, 48.5, cfg.Rates.Table["USD"])
				assert.Equal(t, 12*time.Hour, cfg.Schedule.PruneInterval)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Only parallelize tests that don't modify env vars.
			if len(tt.envVars) == 0 {
				t.Parallel()
			}

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Name:     "valuator",
		User:     "valuator",
		Password: "s3cret",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 dbname=valuator user=valuator password=s3cret sslmode=disable",
		cfg.DSN(),
	)
}
