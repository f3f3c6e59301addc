package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

var (
	cfg *APIConfig
	mu  sync.RWMutex
)

// APIConfig represents the root element.
type APIConfig struct {
	XMLName     xml.Name         `xml:"API"`
	RequestDump bool             `xml:"REQUEST_DUMP,attr"`
	Context     ContextConfig    `xml:"CONTEXT"`
	Pagination  PaginationConfig `xml:"PAGINATION"`
	DB          DBConfig         `xml:"DB"`
	Storage     StorageConfig    `xml:"STORAGE"`
	Generation  GenerationConfig `xml:"GENERATION"`
	Session     SessionConfig    `xml:"SESSION"`
	Redis       RedisConfig      `xml:"REDIS"`
	Logging     LoggingConfig    `xml:"LOGGING"`
}

// ContextConfig holds basic server settings.
type ContextConfig struct {
	Port     int    `xml:"PORT"`
	Host     string `xml:"HOST"`
	Path     string `xml:"PATH"`
	TimeZone string `xml:"TIME_ZONE"`
}

// PaginationConfig holds pagination settings.
type PaginationConfig struct {
	PageSize int `xml:"PAGE_SIZE"`
}

// DBConfig holds database connection settings.
type DBConfig struct {
	Initialize bool         `xml:"INITIALIZE"`
	Driver     string       `xml:"DRIVER"`
	Host       string       `xml:"HOST"`
	Port       int          `xml:"PORT"`
	SSLMode    string       `xml:"SSL_MODE"`
	Names      DBNames      `xml:"NAMES"`
	Username   string       `xml:"USERNAME"`
	Password   DBPassword   `xml:"PASSWORD"`
	Pool       DBPoolConfig `xml:"POOL"`
}

// DBNames holds the names defined in the DB section.
type DBNames struct {
	Interviews string `xml:"INTERVIEWS,attr"`
}

// DBPassword holds password details.
type DBPassword struct {
	Type  string `xml:"TYPE,attr"`
	Value string `xml:",chardata"`
}

// DBPoolConfig holds database connection pooling settings.
type DBPoolConfig struct {
	MaxOpenConns    int `xml:"MAX_OPEN_CONNS"`
	MaxIdleConns    int `xml:"MAX_IDLE_CONNS"`
	ConnMaxLifetime int `xml:"CONN_MAX_LIFETIME"`
}

// StorageConfig selects and configures the object store used for response media.
type StorageConfig struct {
	Driver        string      `xml:"DRIVER"`
	LocalDir      string      `xml:"LOCAL_DIR"`
	PublicBaseURL string      `xml:"PUBLIC_BASE_URL"`
	Minio         MinioConfig `xml:"MINIO"`
}

type MinioConfig struct {
	Endpoint        string `xml:"ENDPOINT"`
	Bucket          string `xml:"BUCKET"`
	Region          string `xml:"REGION"`
	UseSSL          bool   `xml:"USE_SSL"`
	AccessKeyID     string `xml:"ACCESS_KEY_ID"`
	SecretAccessKey string `xml:"SECRET_ACCESS_KEY"`
}

// GenerationConfig configures the feedback / transcription backend.
type GenerationConfig struct {
	Provider          string  `xml:"PROVIDER"`
	OllamaURL         string  `xml:"OLLAMA_URL"`
	Model             string  `xml:"MODEL"`
	STTURL            string  `xml:"STT_URL"`
	APIKey            string  `xml:"API_KEY"`
	TimeoutSeconds    int     `xml:"TIMEOUT_SECONDS"`
	RequestsPerSecond float64 `xml:"REQUESTS_PER_SECOND"`
	QuestionBank      string  `xml:"QUESTION_BANK"`
}

type SessionConfig struct {
	TokenSecret          string `xml:"TOKEN_SECRET"`
	StepLockTTLSeconds   int    `xml:"STEP_LOCK_TTL_SECONDS"`
	TokenExpiryHours     int    `xml:"TOKEN_EXPIRY_HOURS"`
	DefaultQuestionCount int    `xml:"DEFAULT_QUESTION_COUNT"`
}

type RedisConfig struct {
	Enabled  bool   `xml:"ENABLED,attr"`
	Address  string `xml:"ADDRESS"`
	Password string `xml:"PASSWORD"`
	DB       int    `xml:"DB"`
}

type LoggingConfig struct {
	Dir        string `xml:"DIR"`
	MaxSizeMB  int    `xml:"MAX_SIZE_MB"`
	MaxBackups int    `xml:"MAX_BACKUPS"`
	MaxAgeDays int    `xml:"MAX_AGE_DAYS"`
	Debug      bool   `xml:"DEBUG"`
}

// LoadConfig loads and parses the XML configuration from the given file,
// then overlays secrets from the environment (and a .env file if present).
func LoadConfig(xmlPath string) (*APIConfig, error) {
	data, err := os.ReadFile(xmlPath)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", xmlPath, err)
	}

	// A missing .env is fine; the process environment is still consulted.
	_ = godotenv.Load()

	newCfg, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	cfg = newCfg
	mu.Unlock()
	return newCfg, nil
}

// ParseConfig decodes an XML document, applies environment overrides and defaults.
func ParseConfig(data []byte) (*APIConfig, error) {
	var newCfg APIConfig
	if err := xml.Unmarshal(data, &newCfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	newCfg.applyEnv()
	newCfg.applyDefaults()
	if err := newCfg.validate(); err != nil {
		return nil, err
	}
	return &newCfg, nil
}

// GetConfig returns the loaded configuration.
func GetConfig() *APIConfig {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

func (c *APIConfig) applyEnv() {
	overrideString(&c.DB.Password.Value, "DB_PASSWORD")
	overrideString(&c.DB.Host, "DB_HOST")
	overrideString(&c.Generation.APIKey, "GEMINI_API_KEY")
	overrideString(&c.Session.TokenSecret, "SESSION_TOKEN_SECRET")
	overrideString(&c.Storage.Minio.AccessKeyID, "MINIO_ACCESS_KEY")
	overrideString(&c.Storage.Minio.SecretAccessKey, "MINIO_SECRET_KEY")
	overrideString(&c.Redis.Password, "REDIS_PASSWORD")
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Context.Port = port
		}
	}
}

func (c *APIConfig) applyDefaults() {
	if c.Context.Host == "" {
		c.Context.Host = "0.0.0.0"
	}
	if c.Context.Port == 0 {
		c.Context.Port = 8080
	}
	if c.Pagination.PageSize <= 0 {
		c.Pagination.PageSize = 20
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "postgres"
	}
	if c.DB.SSLMode == "" {
		c.DB.SSLMode = "disable"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "local"
	}
	if c.Storage.LocalDir == "" {
		c.Storage.LocalDir = "working"
	}
	if c.Storage.PublicBaseURL == "" {
		c.Storage.PublicBaseURL = fmt.Sprintf("http://localhost:%d/static", c.Context.Port)
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "stub"
	}
	if c.Generation.Model == "" {
		if c.Generation.Provider == "gemini" {
			c.Generation.Model = "gemini-1.5-flash"
		} else {
			c.Generation.Model = "mistral"
		}
	}
	if c.Generation.TimeoutSeconds <= 0 {
		c.Generation.TimeoutSeconds = 30
	}
	if c.Generation.RequestsPerSecond <= 0 {
		c.Generation.RequestsPerSecond = 2
	}
	if c.Session.StepLockTTLSeconds <= 0 {
		c.Session.StepLockTTLSeconds = 120
	}
	if c.Session.TokenExpiryHours <= 0 {
		c.Session.TokenExpiryHours = 24 * 7
	}
	if c.Session.DefaultQuestionCount <= 0 {
		c.Session.DefaultQuestionCount = 7
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "logs"
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 10
	}
}

func (c *APIConfig) validate() error {
	switch c.DB.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported DB driver %q", c.DB.Driver)
	}
	switch c.Storage.Driver {
	case "local", "minio":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	switch c.Generation.Provider {
	case "stub", "ollama", "gemini":
	default:
		return fmt.Errorf("unsupported generation provider %q", c.Generation.Provider)
	}
	if c.Session.TokenSecret == "" {
		return fmt.Errorf("session token secret is required (SESSION.TOKEN_SECRET or SESSION_TOKEN_SECRET)")
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
