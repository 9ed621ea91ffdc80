package sharefs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// DefaultMaxTransferUnit is the buffered copy/read/write chunk size
// used when the configuration does not override it.
const DefaultMaxTransferUnit = 64 * 1024

// CredentialConfig is one declarative credential entry: an identity
// plus the share path prefix it applies to.
type CredentialConfig struct {
	// Path is the scope prefix, in UNC or URL form.
	Path     string `mapstructure:"path" validate:"required"`
	Domain   string `mapstructure:"domain"`
	Username string `mapstructure:"username" validate:"required"`
	Password string `mapstructure:"password"`
}

// Config holds the options recognized by New. The zero value is usable
// for local-only work; remote paths additionally need credentials.
type Config struct {
	// Transport selects how remote hosts are reached.
	Transport Transport `mapstructure:"-"`

	// MaxTransferUnit bounds the chunk size of buffered copy, read,
	// and write operations. Default 65536.
	MaxTransferUnit int `mapstructure:"max_transfer_unit" validate:"omitempty,min=512,max=8388608"`

	// DialTimeout bounds host resolution and transport connect.
	// Default 30s.
	DialTimeout time.Duration `mapstructure:"dial_timeout" validate:"omitempty,gt=0"`

	// Credentials are the registered credentials, matched against
	// remote paths by scope prefix in the order given.
	Credentials []CredentialConfig `mapstructure:"credentials" validate:"omitempty,dive"`

	// Dialer overrides the production SMB dialer. Used by tests.
	Dialer Dialer `mapstructure:"-"`

	// Local overrides the local pass-through filesystem. Defaults to
	// the host operating system's.
	Local afero.Fs `mapstructure:"-"`

	// Logger receives debug output. Nil discards.
	Logger *slog.Logger `mapstructure:"-"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// setDefaults fills in unspecified options.
func (c *Config) setDefaults() {
	if c.MaxTransferUnit == 0 {
		c.MaxTransferUnit = DefaultMaxTransferUnit
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 30 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// credentialStore builds the resolver for the declared credentials.
func (c *Config) credentialStore() (CredentialStore, error) {
	store := NewStaticCredentialStore()
	for _, cc := range c.Credentials {
		cred, err := NewCredential(cc.Path, cc.Domain, cc.Username, cc.Password)
		if err != nil {
			return nil, err
		}
		store.Add(cred)
	}
	return store, nil
}

// LoadConfig reads a configuration file (YAML, TOML, or JSON by
// extension) with SHAREFS_* environment overrides:
//
//	transport: direct            # or netbios
//	max_transfer_unit: 65536
//	dial_timeout: 30s
//	credentials:
//	  - path: \\fileserver\shared
//	    domain: CORP
//	    username: jdoe
//	    password: secret123
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("SHAREFS")
	v.AutomaticEnv()
	v.SetDefault("transport", "direct")
	v.SetDefault("max_transfer_unit", DefaultMaxTransferUnit)
	v.SetDefault("dial_timeout", "30s")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Transport       string             `mapstructure:"transport"`
		MaxTransferUnit int                `mapstructure:"max_transfer_unit"`
		DialTimeout     time.Duration      `mapstructure:"dial_timeout"`
		Credentials     []CredentialConfig `mapstructure:"credentials"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	transport, err := ParseTransport(raw.Transport)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Transport:       transport,
		MaxTransferUnit: raw.MaxTransferUnit,
		DialTimeout:     raw.DialTimeout,
		Credentials:     raw.Credentials,
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
