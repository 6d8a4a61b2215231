// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Anthropic     AnthropicConfig         `mapstructure:"anthropic"`
	Agents        AgentsConfig            `mapstructure:"agents"`
	Research      ResearchConfig          `mapstructure:"research"`
	Slack         SlackConfig             `mapstructure:"slack"`
	Dispatch      DispatchConfig          `mapstructure:"dispatch"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Timezone    string `mapstructure:"timezone"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	APISecret       string `mapstructure:"api_secret"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// Address returns the listen address, e.g. 0.0.0.0:8000.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type AnthropicConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Version        string `mapstructure:"version"`
	Model          string `mapstructure:"model"`
	Timeout        int    `mapstructure:"timeout"` // milliseconds
	MaxRetries     int    `mapstructure:"max_retries"`
	RetryBaseDelay int    `mapstructure:"retry_base_delay"` // milliseconds
}

// AgentConfig tunes one tool-use loop.
type AgentConfig struct {
	MaxTokens        int `mapstructure:"max_tokens"`
	MaxIterations    int `mapstructure:"max_iterations"`
	ForceOutputAfter int `mapstructure:"force_output_after"`
	Timeout          int `mapstructure:"timeout"` // milliseconds
}

type AgentsConfig struct {
	Ideas AgentConfig `mapstructure:"ideas"`
	Post  AgentConfig `mapstructure:"post"`
}

type ResearchConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	RSSTimeout     int    `mapstructure:"rss_timeout"`     // milliseconds
	ArticleTimeout int    `mapstructure:"article_timeout"` // milliseconds
	SearchTimeout  int    `mapstructure:"search_timeout"`  // milliseconds
	BraveAPIKey    string `mapstructure:"brave_api_key"`
	BraveURL       string `mapstructure:"brave_url"`
	DuckDuckGoURL  string `mapstructure:"duckduckgo_url"`
	CacheTTL       int    `mapstructure:"cache_ttl"` // milliseconds
}

type SlackConfig struct {
	BotToken   string `mapstructure:"bot_token"`
	ChannelID  string `mapstructure:"channel_id"`
	APIBaseURL string `mapstructure:"api_base_url"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
}

type DispatchConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
	DedupeTTL int `mapstructure:"dedupe_ttl"` // milliseconds
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the settings of one Zeebe job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// NotificationConfig holds settings for operator alerts on failed jobs.
type NotificationConfig struct {
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
