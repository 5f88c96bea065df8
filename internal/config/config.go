package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Collaborator modes
const (
	ModeAuto   = "auto"
	ModeOpenAI = "openai"
	ModeLocal  = "local"
)

// Storage modes for the gateway session store
const (
	StorageLocal = "local"
	StorageCloud = "cloud"
)

const geminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		// APIKey, when set, is required as X-API-Key on analysis routes.
		APIKey      string   `yaml:"apiKey"`
		CORSOrigins []string `yaml:"corsOrigins"`
		// RequestsPerMinute per client IP, 0 disables the limiter.
		RequestsPerMinute int `yaml:"requestsPerMinute"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Collaborator struct {
		Mode                string        `yaml:"mode"`
		APIKey              string        `yaml:"apiKey"`
		BaseURL             string        `yaml:"baseURL"`
		Model               string        `yaml:"model"`
		Provider            string        `yaml:"provider"`
		OrchestrationKey    string        `yaml:"orchestrationKey"`
		OrchestrationHeader string        `yaml:"orchestrationHeader"`
		Timeout             time.Duration `yaml:"timeout"`
		RatePerSecond       float64       `yaml:"ratePerSecond"`
		Burst               int           `yaml:"burst"`
		FailureThreshold    uint32        `yaml:"failureThreshold"`
	} `yaml:"collaborator"`

	Database struct {
		// Driver is none, mysql or postgres.
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Documents struct {
		// Source is none, gdrive or minio.
		Source string `yaml:"source"`
	} `yaml:"documents"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Drive struct {
		APIKey          string `yaml:"apiKey"`
		CredentialsFile string `yaml:"credentialsFile"`
	} `yaml:"drive"`

	Gmail struct {
		ClientID     string `yaml:"clientID"`
		ClientSecret string `yaml:"clientSecret"`
		RefreshToken string `yaml:"refreshToken"`
		Sender       string `yaml:"sender"`
	} `yaml:"gmail"`

	Gateway struct {
		Port            int           `yaml:"port"`
		BackendURL      string        `yaml:"backendURL"`
		Timeout         time.Duration `yaml:"timeout"`
		StorageMode     string        `yaml:"storageMode"`
		SessionTTL      time.Duration `yaml:"sessionTTL"`
		SessionCapacity int           `yaml:"sessionCapacity"`
		CookieName      string        `yaml:"cookieName"`
		SecureCookie    bool          `yaml:"secureCookie"`
	} `yaml:"gateway"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load baca file config.yaml. A missing file is not an error: defaults and
// environment overrides still apply, so the process starts with no config.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv(os.LookupEnv)
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	num("PACTGUARD_PORT", &c.Server.Port)
	num("PACTGUARD_GATEWAY_PORT", &c.Gateway.Port)
	str("PACTGUARD_LOG_LEVEL", &c.Log.Level)
	str("PACTGUARD_LOG_FORMAT", &c.Log.Format)
	str("PACTGUARD_API_KEY", &c.Server.APIKey)
	str("PACTGUARD_COLLABORATOR_MODE", &c.Collaborator.Mode)
	str("PACTGUARD_DB_DRIVER", &c.Database.Driver)
	str("PACTGUARD_DOCUMENT_SOURCE", &c.Documents.Source)
	str("PACTGUARD_REDIS_ADDR", &c.Redis.Addr)

	str("OPENAI_API_KEY", &c.Collaborator.APIKey)
	str("PORTIA_API_KEY", &c.Collaborator.OrchestrationKey)
	str("GOOGLE_API_KEY", &c.Drive.APIKey)
	str("BACKEND_URL", &c.Gateway.BackendURL)
	str("STORAGE_MODE", &c.Gateway.StorageMode)

	if v, ok := lookup("BACKEND_TIMEOUT"); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			c.Gateway.Timeout = d
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 120 * time.Second
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Collaborator.Mode == "" {
		c.Collaborator.Mode = ModeAuto
	}
	if c.Collaborator.Mode == ModeAuto {
		c.resolveCollaborator()
	}
	if c.Collaborator.Timeout == 0 {
		c.Collaborator.Timeout = 60 * time.Second
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "none"
	}
	if c.Documents.Source == "" {
		c.Documents.Source = "none"
	}

	if c.Gateway.Port == 0 {
		c.Gateway.Port = 3000
	}
	if c.Gateway.BackendURL == "" {
		c.Gateway.BackendURL = "http://localhost:8000"
	}
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = 90 * time.Second
	}
	if c.Gateway.StorageMode == "" {
		c.Gateway.StorageMode = StorageLocal
	}
	if c.Gateway.SessionTTL == 0 {
		c.Gateway.SessionTTL = 24 * time.Hour
	}
	if c.Gateway.SessionCapacity == 0 {
		c.Gateway.SessionCapacity = 1024
	}
	if c.Gateway.CookieName == "" {
		c.Gateway.CookieName = "pactguard_session"
	}
}

// resolveCollaborator picks the variant once from the available keys: an
// OpenAI key wins, a Google key uses Gemini's OpenAI-compatible endpoint,
// otherwise the local heuristic is used.
func (c *Config) resolveCollaborator() {
	switch {
	case c.Collaborator.APIKey != "":
		c.Collaborator.Mode = ModeOpenAI
	case c.Drive.APIKey != "":
		c.Collaborator.Mode = ModeOpenAI
		c.Collaborator.APIKey = c.Drive.APIKey
		if c.Collaborator.BaseURL == "" {
			c.Collaborator.BaseURL = geminiOpenAIBaseURL
		}
		if c.Collaborator.Model == "" {
			c.Collaborator.Model = "gemini-2.0-flash"
		}
		if c.Collaborator.Provider == "" {
			c.Collaborator.Provider = "google"
		}
	default:
		c.Collaborator.Mode = ModeLocal
	}
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		ssl,
	)
}
