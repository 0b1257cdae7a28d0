package internal

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// DevCORSOrigins are allowed when no origin is configured outside production.
var DevCORSOrigins = []string{"http://localhost:5173", "http://localhost:3000", "http://localhost"}

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Data    DataConfig        `yaml:"data"`
	Uploads UploadsConfig     `yaml:"uploads"`
	Auth    AuthConfig        `yaml:"auth"`
	Contact ContactConfig     `yaml:"contact"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Data.Validate(); err != nil {
		return err
	}
	if err := c.Uploads.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Contact.Validate()
}

// ApplyEnv overrides file values with the deployment environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("NODE_ENV"); v != "" {
		c.App.Env = v
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.App.HTTP.Port = port
	}
	if v := getenv("CORS_ORIGIN"); v != "" {
		c.App.CORS.Origins = splitList(v)
	}
	if v := getenv("ADMIN_PASSWORD"); v != "" {
		c.Auth.AdminPassword = v
	}
	if v := getenv("SESSION_SECRET"); v != "" {
		c.Auth.SessionSecret = v
	}
	if v := getenv("SENDGRID_API_KEY"); v != "" {
		c.Contact.SendGridAPIKey = v
	}
	if v := getenv("BUSINESS_EMAIL"); v != "" {
		c.Contact.BusinessEmail = v
	}
	if v := getenv("FROM_EMAIL"); v != "" {
		c.Contact.FromEmail = v
	}
	if len(c.App.CORS.Origins) == 0 && c.App.Env != EnvProduction {
		c.App.CORS.Origins = append([]string(nil), DevCORSOrigins...)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	Env      string     `yaml:"env"`
	HTTP     HTTPConfig `yaml:"http"`
	CORS     CORSConfig `yaml:"cors"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Env, validation.Required, validation.In(EnvDevelopment, EnvProduction, EnvTest)),
	); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return c.CORS.Validate()
}

// Production reports whether the app runs in production.
func (c *ApplicationConfig) Production() bool {
	return c.Env == EnvProduction
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

// CORSConfig lists the browser origins allowed to call the API with credentials.
type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

// Validate validates the CORS configuration.
func (c *CORSConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Origins, validation.Each(validation.Required, is.URL)),
	)
}

// DataConfig locates the inventory document.
type DataConfig struct {
	Dir      string `yaml:"dir"`
	Filename string `yaml:"filename"`
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Filename, validation.Required, validation.By(func(any) error {
			if !strings.HasSuffix(c.Filename, ".json") || strings.ContainsAny(c.Filename, `/\`) {
				return fmt.Errorf("must be a plain .json file name")
			}
			return nil
		})),
	)
}

// UploadsConfig locates uploaded images.
type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the uploads configuration.
func (c *UploadsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// AuthConfig holds the admin gate settings. AdminPassword and SessionSecret
// usually come from ADMIN_PASSWORD and SESSION_SECRET.
type AuthConfig struct {
	AdminPassword string        `yaml:"admin_password"`
	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	FailureDelay  time.Duration `yaml:"failure_delay"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	return validation.ValidateStruct(c,
		// bcrypt only looks at the first 72 bytes.
		validation.Field(&c.AdminPassword, validation.Required.Error("ADMIN_PASSWORD is required"), validation.Length(1, 72)),
		validation.Field(&c.SessionSecret, validation.Required.Error("SESSION_SECRET is required")),
		validation.Field(&c.SessionTTL, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.FailureDelay, validation.Min(time.Duration(0))),
	)
}

// ContactConfig holds contact form delivery settings. Without a SendGrid key
// submissions are only logged.
type ContactConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	BusinessEmail  string `yaml:"business_email"`
	FromEmail      string `yaml:"from_email"`
}

// Validate validates the contact configuration.
func (c *ContactConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BusinessEmail, is.EmailFormat, validation.When(c.SendGridAPIKey != "", validation.Required)),
		validation.Field(&c.FromEmail, is.EmailFormat, validation.When(c.SendGridAPIKey != "", validation.Required)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			Env:      EnvDevelopment,
			HTTP: HTTPConfig{
				Port: 3001,
			},
		},
		Data: DataConfig{
			Dir:      "./data",
			Filename: "trucks.json",
		},
		Uploads: UploadsConfig{
			Dir: "./uploads",
		},
		Auth: AuthConfig{
			SessionTTL:   24 * time.Hour,
			FailureDelay: time.Second,
		},
	}
}
