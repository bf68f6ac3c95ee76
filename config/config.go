package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting read from the environment (and an optional .env file).
type Config struct {
	DBDriver   string `envconfig:"DB_DRIVER" default:"postgres"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"research_verifier"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"research-verifier.db"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"4242"`
	LogMode  string `envconfig:"LOG_MODE" default:"production"`

	// JWTSecret signs the bearer tokens issued by the auth service in front of us.
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	// APISecretKey is an optional shared gateway key checked against X-API-KEY.
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Link resolver
	FetchTimeout   time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`
	FetchMaxChars  int           `envconfig:"FETCH_MAX_CHARS" default:"3000"`
	FetchMaxBytes  int64         `envconfig:"FETCH_MAX_BYTES" default:"5242880"`
	FetchUserAgent string        `envconfig:"FETCH_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"`

	// Bibliographic metadata
	MetadataProviders string        `envconfig:"METADATA_PROVIDERS" default:"openalex"`
	MetadataTimeout   time.Duration `envconfig:"METADATA_TIMEOUT" default:"10s"`
	OpenAlexBaseURL   string        `envconfig:"OPENALEX_BASE_URL" default:"https://api.openalex.org"`
	OpenAlexMailto    string        `envconfig:"OPENALEX_MAILTO"`
	EuropePMCBaseURL  string        `envconfig:"EUROPEPMC_BASE_URL" default:"https://www.ebi.ac.uk/europepmc/webservices/rest/search"`
	UnpaywallBaseURL  string        `envconfig:"UNPAYWALL_BASE_URL" default:"https://api.unpaywall.org/v2"`
	// UnpaywallEmail enables open-access PDF enrichment when set.
	UnpaywallEmail string `envconfig:"UNPAYWALL_EMAIL"`

	// LLM judge
	LLMBaseURL       string        `envconfig:"LLM_BASE_URL" default:"https://api.openai.com/v1"`
	LLMModel         string        `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	LLMTimeout       time.Duration `envconfig:"LLM_TIMEOUT" default:"120s"`
	PaperConcurrency int           `envconfig:"PAPER_CONCURRENCY" default:"4"`

	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"*/15 * * * *"`

	// Optional archive of finished verifications. Empty bucket disables it.
	ReportS3Key    string `envconfig:"REPORT_S3_KEY"`
	ReportS3Secret string `envconfig:"REPORT_S3_SECRET"`
	ReportS3URL    string `envconfig:"REPORT_S3_URL"`
	ReportS3Region string `envconfig:"REPORT_S3_REGION" default:"us-east-1"`
	ReportS3Bucket string `envconfig:"REPORT_S3_BUCKET"`

	TracingEnabled bool `envconfig:"TRACING_ENABLED" default:"false"`
}

// DSN returns the PostgreSQL data source name.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Providers returns the enabled metadata provider names in priority order.
func (c *Config) Providers() []string {
	var out []string
	for _, name := range strings.Split(c.MetadataProviders, ",") {
		name = strings.TrimSpace(strings.ToLower(name))
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// ReportArchiveEnabled reports whether verification reports should be written to S3.
func (c *Config) ReportArchiveEnabled() bool {
	return c.ReportS3Bucket != "" && c.ReportS3URL != ""
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.PaperConcurrency < 1 {
		c.PaperConcurrency = 1
	}
	if c.FetchMaxChars < 1 {
		return nil, fmt.Errorf("FETCH_MAX_CHARS must be positive, got %d", c.FetchMaxChars)
	}
	return &c, nil
}
