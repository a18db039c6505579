package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file inside a data directory.
const FileName = "estatement.yaml"

// Config represents the top-level estatement.yaml configuration.
type Config struct {
	Database     DatabaseConfig `yaml:"database"`
	Server       ServerConfig   `yaml:"server"`
	Auth         AuthConfig     `yaml:"auth"`
	Upload       UploadConfig   `yaml:"upload"`
	Search       SearchConfig   `yaml:"search"`
	Logging      LoggingConfig  `yaml:"logging"`
	BankAccounts []BankAccount  `yaml:"bank_accounts,omitempty"`
}

// DatabaseConfig locates the transaction store. Relative paths are resolved
// against the data directory.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins,omitempty"`
	LoginRate       float64       `yaml:"login_rate"` // attempts per second
	LoginBurst      int           `yaml:"login_burst"`
}

// AuthConfig holds the token signing key and the users allowed to sign in.
type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenExpiry time.Duration `yaml:"token_expiry"`
	// AllowRegistration opens POST /api/auth/register to anyone.
	AllowRegistration bool   `yaml:"allow_registration"`
	Users             []User `yaml:"users,omitempty"`
}

// User is an account allowed to use the API.
type User struct {
	Username     string    `yaml:"username"`
	Email        string    `yaml:"email,omitempty"`
	PasswordHash string    `yaml:"password_hash"`
	Role         string    `yaml:"role"`
	UpdatedAt    time.Time `yaml:"updated_at,omitempty"`
}

// UploadConfig controls statement uploads and the import inbox.
type UploadConfig struct {
	Inbox    string `yaml:"inbox"`
	MaxBytes int64  `yaml:"max_bytes"`
}

// SearchConfig sets the initial search state of a session.
type SearchConfig struct {
	PageSize  int    `yaml:"page_size"`
	SortField string `yaml:"sort_field"`
	SortOrder string `yaml:"sort_order"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// BankAccount names an account number for display.
type BankAccount struct {
	Number   string `yaml:"number"`
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
}

// Load reads an estatement.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file. The file holds the signing secret, so
// it is only readable by its owner.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new data directory.
// The JWT secret is left empty.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "estatement.db"},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"http://localhost:8081"},
			LoginRate:       1,
			LoginBurst:      5,
		},
		Auth: AuthConfig{
			TokenExpiry: 24 * time.Hour,
		},
		Upload: UploadConfig{
			Inbox:    "inbox",
			MaxBytes: 10 << 20,
		},
		Search: SearchConfig{
			PageSize:  10,
			SortField: "dateTime",
			SortOrder: "desc",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports settings that would prevent the service from starting.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Search.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("search.page_size must be positive, got %d", c.Search.PageSize))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("upload.max_bytes must be positive, got %d", c.Upload.MaxBytes))
	}
	if c.Auth.TokenExpiry <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_expiry must be positive, got %s", c.Auth.TokenExpiry))
	}
	seen := make(map[string]bool)
	for _, u := range c.Auth.Users {
		if u.Username == "" {
			errs = append(errs, errors.New("auth.users: username is required"))
			continue
		}
		if seen[u.Username] {
			errs = append(errs, fmt.Errorf("auth.users: duplicate username %q", u.Username))
		}
		seen[u.Username] = true
	}
	return errors.Join(errs...)
}

// FindUser returns the configured user with username.
func (c *Config) FindUser(username string) (User, bool) {
	for _, u := range c.Auth.Users {
		if u.Username == username {
			return u, true
		}
	}
	return User{}, false
}

// Resolve returns p relative to dir unless p is absolute.
func Resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
