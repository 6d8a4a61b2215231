// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and applies environment overrides. A .env file is loaded first when one is
// found; variables already set in the process environment win.
func Load() (*Config, error) {
	LoadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return build(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	LoadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	registerDefaults(v)
	return v
}

func build(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadEnvFile loads the first .env found next to the working directory or
// at the project root. It returns the path that was loaded, or "".
func LoadEnvFile() string {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}

	return ""
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// registerDefaults makes every key known to viper so AutomaticEnv can
// override it (SLACK_BOT_TOKEN -> slack.bot_token).
func registerDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "linkedin-agent")
	v.SetDefault("app.version", "2.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.timezone", "Europe/Berlin")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.api_secret", "")

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.base_url", "https://api.anthropic.com")
	v.SetDefault("anthropic.model", "claude-sonnet-4-6")

	v.SetDefault("research.brave_api_key", "")

	v.SetDefault("slack.bot_token", "")
	v.SetDefault("slack.channel_id", "")
	v.SetDefault("slack.api_base_url", "https://slack.com/api")

	v.SetDefault("camunda.enabled", false)
	v.SetDefault("camunda.broker_address", "")
	v.SetDefault("database.postgres.enabled", false)
	v.SetDefault("database.redis.enabled", false)
	v.SetDefault("database.redis.address", "")
	v.SetDefault("notifications.sns.enabled", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills empty keys from the deployment's plain variable
// names (see .env.example).
func overrideEmptyConfig(cfg *Config) {
	if cfg.Anthropic.APIKey == "" {
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Server.APISecret == "" {
		cfg.Server.APISecret = os.Getenv("AGENT_API_SECRET")
	}
	if cfg.Slack.BotToken == "" {
		cfg.Slack.BotToken = os.Getenv("SLACK_BOT_TOKEN")
	}
	if cfg.Slack.ChannelID == "" {
		cfg.Slack.ChannelID = os.Getenv("SLACK_CHANNEL_ID")
	}
	if cfg.Research.BraveAPIKey == "" {
		cfg.Research.BraveAPIKey = strings.TrimSpace(os.Getenv("BRAVE_SEARCH_API_KEY"))
	}
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("DB_PASSWORD")
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	if cfg.Anthropic.Version == "" {
		cfg.Anthropic.Version = "2023-06-01"
	}
	if cfg.Anthropic.Timeout == 0 {
		cfg.Anthropic.Timeout = 120000
	}
	if cfg.Anthropic.MaxRetries == 0 {
		cfg.Anthropic.MaxRetries = 3
	}
	if cfg.Anthropic.RetryBaseDelay == 0 {
		cfg.Anthropic.RetryBaseDelay = 20000
	}

	applyAgentDefaults(&cfg.Agents.Ideas, 4096, 10, 6)
	applyAgentDefaults(&cfg.Agents.Post, 2048, 6, 3)

	if cfg.Research.UserAgent == "" {
		cfg.Research.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if cfg.Research.RSSTimeout == 0 {
		cfg.Research.RSSTimeout = 15000
	}
	if cfg.Research.ArticleTimeout == 0 {
		cfg.Research.ArticleTimeout = 15000
	}
	if cfg.Research.SearchTimeout == 0 {
		cfg.Research.SearchTimeout = 10000
	}
	if cfg.Research.BraveURL == "" {
		cfg.Research.BraveURL = "https://api.search.brave.com/res/v1/web/search"
	}
	if cfg.Research.DuckDuckGoURL == "" {
		cfg.Research.DuckDuckGoURL = "https://html.duckduckgo.com/html/"
	}
	if cfg.Research.CacheTTL == 0 {
		cfg.Research.CacheTTL = 6 * 60 * 60 * 1000
	}

	if cfg.Slack.Timeout == 0 {
		cfg.Slack.Timeout = 15000
	}

	if cfg.Dispatch.Workers == 0 {
		cfg.Dispatch.Workers = 2
	}
	if cfg.Dispatch.QueueSize == 0 {
		cfg.Dispatch.QueueSize = 32
	}
	if cfg.Dispatch.DedupeTTL == 0 {
		cfg.Dispatch.DedupeTTL = 10 * 60 * 1000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 2
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 600000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Workers == nil {
		cfg.Workers = map[string]WorkerConfig{}
	}
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = cfg.Camunda.MaxJobsActive
		}
		if worker.Timeout == 0 {
			worker.Timeout = cfg.Camunda.Timeout
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

func applyAgentDefaults(a *AgentConfig, maxTokens, maxIterations, forceOutputAfter int) {
	if a.MaxTokens == 0 {
		a.MaxTokens = maxTokens
	}
	if a.MaxIterations == 0 {
		a.MaxIterations = maxIterations
	}
	if a.ForceOutputAfter == 0 {
		a.ForceOutputAfter = forceOutputAfter
	}
	if a.Timeout == 0 {
		a.Timeout = 15 * 60 * 1000
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic.api_key is required (set ANTHROPIC_API_KEY)")
	}
	for name, agent := range map[string]AgentConfig{"ideas": cfg.Agents.Ideas, "post": cfg.Agents.Post} {
		if agent.ForceOutputAfter > agent.MaxIterations {
			return fmt.Errorf("agents.%s.force_output_after must not exceed max_iterations", name)
		}
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	if cfg.Database.Postgres.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	}

	if cfg.Database.Redis.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Notifications.SNS.Enabled && cfg.Notifications.SNS.TopicARN == "" {
		return fmt.Errorf("notifications.sns.topic_arn is required when sns is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: cfg.Camunda.MaxJobsActive,
		Timeout:       cfg.Camunda.Timeout,
		MaxRetries:    3,
	}
}
