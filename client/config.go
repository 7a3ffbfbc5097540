package client

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/kelseyhightower/envconfig"
)

// Config groups SDK tunables. Values are taken from environment variables
// with the prefix "URLNOTES_". Example: URLNOTES_BASE_URL=https://api.example.com
// URLNOTES_REFRESH_WINDOW=5s .
type Config struct {
	BaseURL       string        `envconfig:"BASE_URL"       default:"http://localhost:8000"`
	HTTPTimeout   time.Duration `envconfig:"HTTP_TIMEOUT"   default:"30s"`
	RefreshWindow time.Duration `envconfig:"REFRESH_WINDOW" default:"10s"`

	// TokenPath overrides where the file token store keeps the session token.
	// Empty means the default location under the user config dir.
	TokenPath string `envconfig:"TOKEN_PATH"`
}

// LoadConfig populates Config from environment variables (prefix URLNOTES_).
func LoadConfig() (Config, error) {
	var c Config
	return c, envconfig.Process("URLNOTES", &c)
}

// Validate validates the configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.HTTPTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.RefreshWindow, validation.Required, validation.Min(time.Millisecond)),
	)
}
