package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/commune"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/reply"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/resonance"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/session"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/store"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	Auth    AuthConfig        `yaml:"auth"`
	Commune CommuneConfig     `yaml:"commune"`
	Client  ClientConfig      `yaml:"client"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Commune.Validate(); err != nil {
		return err
	}
	return c.Client.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects the record store.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = store.DriverMemory
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(store.DriverMemory, store.DriverSQLite)),
		validation.Field(&c.Path, validation.When(c.Driver == store.DriverSQLite, validation.Required)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// CommuneConfig configures the Arkana WebSocket endpoint.
type CommuneConfig struct {
	Path        string       `yaml:"path"`
	Welcome     string       `yaml:"welcome"`
	CatalogPath string       `yaml:"catalog_path"`
	Seed        uint64       `yaml:"seed"`
	Delays      reply.Delays `yaml:"delays"`
}

// Validate validates the commune configuration.
func (c *CommuneConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required, validation.By(leadingSlash)),
	); err != nil {
		return err
	}
	return c.Delays.Validate()
}

func leadingSlash(value any) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, "/") {
		return validation.NewError("validation_path_slash", "must start with /")
	}
	return nil
}

// ClientConfig configures the terminal commune client.
type ClientConfig struct {
	URL         string        `yaml:"url"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	HistorySize int           `yaml:"history_size"`
}

// Validate validates the client configuration.
func (c *ClientConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required, validation.By(websocketURL)),
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.RetryDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.HistorySize, validation.Min(0)),
	)
}

func websocketURL(value any) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, "ws://") && !strings.HasPrefix(s, "wss://") {
		return validation.NewError("validation_ws_scheme", "must use ws:// or wss://")
	}
	return nil
}

// RetryPolicy converts the client settings into a session retry policy.
func (c *ClientConfig) RetryPolicy() session.RetryPolicy {
	return session.RetryPolicy{MaxAttempts: c.MaxAttempts, Delay: c.RetryDelay}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	retry := session.DefaultRetryPolicy()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver: store.DriverMemory,
			Path:   "./arkadia.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Commune: CommuneConfig{
			Path:    "/arkana",
			Welcome: commune.DefaultWelcome,
			Delays:  reply.DefaultDelays(),
		},
		Client: ClientConfig{
			URL:         "ws://localhost:8080/arkana",
			MaxAttempts: retry.MaxAttempts,
			RetryDelay:  retry.Delay,
			HistorySize: resonance.DefaultHistorySize,
		},
	}
}
