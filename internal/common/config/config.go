package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Templates     TemplatesConfig         `mapstructure:"templates"`
	Prospects     ProspectsConfig         `mapstructure:"prospects"`
	PDF           PDFConfig               `mapstructure:"pdf"`
	Integrations  IntegrationConfig       `mapstructure:"integrations"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	Health        HealthConfig            `mapstructure:"health"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
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

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds
}

// TemplatesConfig controls the industry template registry.
type TemplatesConfig struct {
	FallbackIndustry string `mapstructure:"fallback_industry"`
}

type ProspectsConfig struct {
	SourcePath string `mapstructure:"source_path"`
}

// PDFConfig drives the guide PDF pipeline.
type PDFConfig struct {
	ContentDir    string `mapstructure:"content_dir"`
	OutputDir     string `mapstructure:"output_dir"`
	ContentSource string `mapstructure:"content_source"` // dir | elasticsearch
	ContentIndex  string `mapstructure:"content_index"`
	BrowserBin    string `mapstructure:"browser_bin"`
	Headless      bool   `mapstructure:"headless"`
	RenderTimeout int    `mapstructure:"render_timeout"` // milliseconds
	IdleWait      int    `mapstructure:"idle_wait"`      // milliseconds of network quiet before printing
	FooterText    string `mapstructure:"footer_text"`
}

type IntegrationConfig struct {
	Zoho struct {
		BaseURL   string `mapstructure:"base_url"`
		AuthToken string `mapstructure:"oauth_token"`
		Enabled   bool   `mapstructure:"enabled"`
	} `mapstructure:"zoho"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled bool `mapstructure:"enabled"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// NotificationConfig holds the lead notification targets.
type NotificationConfig struct {
	SalesEmail    string `mapstructure:"sales_email"`
	SalesTopicARN string `mapstructure:"sales_topic_arn"`
	SiteURL       string `mapstructure:"site_url"`
	// CalendarURL is the booking link in sequence emails. Empty means the
	// site's contact page.
	CalendarURL string `mapstructure:"calendar_url"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}
