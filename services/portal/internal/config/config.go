package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// AdminConfig is the built-in administrator credential. PasswordHash, when
// set, takes precedence over Password.
type AdminConfig struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"passwordHash"`
}

// PersistenceConfig selects where the session and document records live.
type PersistenceConfig struct {
	Driver      string `yaml:"driver"`
	Path        string `yaml:"path"`
	RedisPrefix string `yaml:"redisPrefix"`
	DatabaseURL string `yaml:"databaseURL"`
}

// EventsConfig selects the document lifecycle event sink.
type EventsConfig struct {
	Driver       string   `yaml:"driver"`
	Stream       string   `yaml:"stream"`
	AMQPURL      string   `yaml:"amqpURL"`
	Exchange     string   `yaml:"exchange"`
	KafkaBrokers []string `yaml:"kafkaBrokers"`
	Topic        string   `yaml:"topic"`
}

// ObjectStoreConfig enables the upload archive when Endpoint is set.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"useSSL"`
}

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                       string            `yaml:"port"`
	LogLevel                   string            `yaml:"logLevel"`
	DataDir                    string            `yaml:"dataDir"`
	UploadServiceURL           string            `yaml:"uploadServiceURL"`
	QueryServiceURL            string            `yaml:"queryServiceURL"`
	AIServiceURL               string            `yaml:"aiServiceURL"`
	UploadMode                 string            `yaml:"uploadMode"`
	ChatMode                   string            `yaml:"chatMode"`
	MockReplyDelay             string            `yaml:"mockReplyDelay"`
	ProgressInterval           string            `yaml:"progressInterval"`
	MaxUploadBytes             int64             `yaml:"maxUploadBytes"`
	AllowedExtensions          []string          `yaml:"allowedExtensions"`
	CORSOrigins                []string          `yaml:"corsOrigins"`
	Admin                      AdminConfig       `yaml:"admin"`
	SessionSecret              string            `yaml:"sessionSecret"`
	SessionTTL                 string            `yaml:"sessionTTL"`
	SecureCookies              bool              `yaml:"secureCookies"`
	RedisAddr                  string            `yaml:"redisAddr"`
	RedisPassword              string            `yaml:"redisPassword"`
	LoginRateLimitPerMinute    int               `yaml:"loginRateLimitPerMinute"`
	RegisterRateLimitPerMinute int               `yaml:"registerRateLimitPerMinute"`
	TrustedProxyCIDRs          []string          `yaml:"trustedProxyCidrs"`
	Persistence                PersistenceConfig `yaml:"persistence"`
	Events                     EventsConfig      `yaml:"events"`
	ObjectStore                ObjectStoreConfig `yaml:"objectStore"`
}

// Defaults returns the configuration used for keys the file leaves out.
func Defaults() FileConfig {
	return FileConfig{
		Port:                       "8080",
		LogLevel:                   "info",
		DataDir:                    "data",
		UploadServiceURL:           "http://localhost:8000",
		QueryServiceURL:            "http://localhost:8001",
		AIServiceURL:               "http://localhost:8002",
		UploadMode:                 "remote",
		ChatMode:                   "remote",
		MockReplyDelay:             "1500ms",
		ProgressInterval:           "500ms",
		MaxUploadBytes:             50 << 20,
		AllowedExtensions:          []string{".pdf", ".doc", ".docx", ".dwg", ".xlsx"},
		Admin:                      AdminConfig{Username: "admin", Password: "admin"},
		SessionTTL:                 "24h",
		LoginRateLimitPerMinute:    10,
		RegisterRateLimitPerMinute: 5,
		Persistence:                PersistenceConfig{Driver: "file"},
	}
}

// LoadDotEnv loads variables from a .env file into the environment without
// overriding values that are already set. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	return nil
}

// Load reads config from path (defaults to PORTAL_CONFIG, then config.yaml).
// Keys missing from the file keep their defaults; environment variables win
// over both.
func Load(path string) (FileConfig, error) {
	cfg := Defaults()
	if path == "" {
		path = os.Getenv("PORTAL_CONFIG")
	}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	setString("PORT", &cfg.Port)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("PORTAL_DATA_DIR", &cfg.DataDir)
	setString("UPLOAD_SERVICE_URL", &cfg.UploadServiceURL)
	setString("QUERY_SERVICE_URL", &cfg.QueryServiceURL)
	setString("AI_BACKEND_URL", &cfg.AIServiceURL)
	setString("PORTAL_UPLOAD_MODE", &cfg.UploadMode)
	setString("PORTAL_CHAT_MODE", &cfg.ChatMode)
	setString("PORTAL_MOCK_REPLY_DELAY", &cfg.MockReplyDelay)
	setString("PORTAL_PROGRESS_INTERVAL", &cfg.ProgressInterval)
	if v := os.Getenv("PORTAL_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("PORTAL_ALLOWED_EXTENSIONS"); v != "" {
		cfg.AllowedExtensions = splitCSV(v)
	}
	if v := os.Getenv("PORTAL_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitCSV(v)
	}
	setString("PORTAL_ADMIN_USERNAME", &cfg.Admin.Username)
	setString("PORTAL_ADMIN_PASSWORD", &cfg.Admin.Password)
	setString("PORTAL_ADMIN_PASSWORD_HASH", &cfg.Admin.PasswordHash)
	setString("PORTAL_SESSION_SECRET", &cfg.SessionSecret)
	setString("PORTAL_SESSION_TTL", &cfg.SessionTTL)
	if v := os.Getenv("PORTAL_SECURE_COOKIES"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.SecureCookies = b
		}
	}
	setString("REDIS_ADDR", &cfg.RedisAddr)
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	setInt("PORTAL_LOGIN_RATE_LIMIT_PER_MINUTE", &cfg.LoginRateLimitPerMinute)
	setInt("PORTAL_REGISTER_RATE_LIMIT_PER_MINUTE", &cfg.RegisterRateLimitPerMinute)
	if v := os.Getenv("PORTAL_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
	setString("PORTAL_PERSISTENCE_DRIVER", &cfg.Persistence.Driver)
	setString("PORTAL_PERSISTENCE_PATH", &cfg.Persistence.Path)
	setString("DATABASE_URL", &cfg.Persistence.DatabaseURL)
	setString("PORTAL_EVENTS_DRIVER", &cfg.Events.Driver)
	setString("AMQP_URL", &cfg.Events.AMQPURL)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Events.KafkaBrokers = splitCSV(v)
	}
	setString("MINIO_ENDPOINT", &cfg.ObjectStore.Endpoint)
	setString("MINIO_ACCESS_KEY", &cfg.ObjectStore.AccessKey)
	setString("MINIO_SECRET_KEY", &cfg.ObjectStore.SecretKey)
	setString("MINIO_BUCKET", &cfg.ObjectStore.Bucket)
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	switch cfg.UploadMode {
	case "remote":
		if cfg.UploadServiceURL == "" {
			return errors.New("config: uploadServiceURL is required in remote upload mode")
		}
	case "simulated":
	default:
		return fmt.Errorf("config: uploadMode must be remote or simulated, got %q", cfg.UploadMode)
	}
	switch cfg.ChatMode {
	case "remote":
		if cfg.QueryServiceURL == "" || cfg.AIServiceURL == "" {
			return errors.New("config: queryServiceURL and aiServiceURL are required in remote chat mode")
		}
	case "mock":
	default:
		return fmt.Errorf("config: chatMode must be remote or mock, got %q", cfg.ChatMode)
	}
	if strings.TrimSpace(cfg.Admin.Username) == "" {
		return errors.New("config: admin.username is required (set in config.yaml)")
	}
	if cfg.Admin.Password == "" && cfg.Admin.PasswordHash == "" {
		return errors.New("config: admin.password or admin.passwordHash is required")
	}
	if cfg.MaxUploadBytes < 0 {
		return errors.New("config: maxUploadBytes must be >= 0")
	}
	if cfg.LoginRateLimitPerMinute < 0 || cfg.RegisterRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	for name, v := range map[string]string{
		"mockReplyDelay":   cfg.MockReplyDelay,
		"progressInterval": cfg.ProgressInterval,
		"sessionTTL":       cfg.SessionTTL,
	} {
		if _, err := ParseDuration(name, v); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	switch strings.ToLower(cfg.Persistence.Driver) {
	case "", "file", "sqlite", "redis":
	case "postgres":
		if cfg.Persistence.DatabaseURL == "" {
			return errors.New("config: persistence.databaseURL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown persistence driver %q", cfg.Persistence.Driver)
	}
	if strings.EqualFold(cfg.Persistence.Driver, "redis") && cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required for the redis persistence driver")
	}
	if strings.EqualFold(cfg.Events.Driver, "redis") && cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required for the redis events driver")
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// ParseDuration parses an optional duration string; empty means zero.
func ParseDuration(name, value string) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s duration: must be >= 0", name)
	}
	return d, nil
}

// Durations are the parsed duration settings.
type Durations struct {
	MockReplyDelay   time.Duration
	ProgressInterval time.Duration
	SessionTTL       time.Duration
}

// ParseDurations parses every duration setting of cfg.
func (cfg FileConfig) ParseDurations() (Durations, error) {
	var d Durations
	var err error
	if d.MockReplyDelay, err = ParseDuration("mockReplyDelay", cfg.MockReplyDelay); err != nil {
		return d, err
	}
	if d.ProgressInterval, err = ParseDuration("progressInterval", cfg.ProgressInterval); err != nil {
		return d, err
	}
	if d.SessionTTL, err = ParseDuration("sessionTTL", cfg.SessionTTL); err != nil {
		return d, err
	}
	return d, nil
}
