package config

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/etherpad"
)

// Config is the top-level application configuration, loaded from an HCL file.
type Config struct {
	// BaseURL is the public URL of this application, used when building
	// resource links in notifications.
	BaseURL string `hcl:"base_url,optional"`

	// LogLevel sets the hclog level (trace, debug, info, warn, error).
	LogLevel string `hcl:"log_level,optional"`

	Server     *Server     `hcl:"server,block"`
	Etherpad   *Etherpad   `hcl:"etherpad,block"`
	Database   *Database   `hcl:"database,block"`
	Inactivity *Inactivity `hcl:"inactivity,block"`
}

// Server configures the HTTP listener.
type Server struct {
	// Addr is the listen address, e.g. ":8090".
	Addr string `hcl:"addr,optional"`
}

// Etherpad configures the backend Etherpad instance(s). Either a repeatable
// domains block (one backend per tenant domain) or the flat single-backend
// fields are used; the domains list wins when both are present.
type Etherpad struct {
	URL         string `hcl:"url,optional"`
	APIKey      string `hcl:"api_key,optional"`
	APIVersion  string `hcl:"api_version,optional"`
	Domain      string `hcl:"domain,optional"`
	InternalURI string `hcl:"internal_uri,optional"`

	TrustAll       bool   `hcl:"trust_all,optional"`
	VerifyHost     bool   `hcl:"verify_host,optional"`
	KeepAlive      bool   `hcl:"keep_alive,optional"`
	MaxPoolSize    int    `hcl:"max_pool_size,optional"`
	ConnectTimeout string `hcl:"connect_timeout,optional"`

	Domains []EtherpadDomain `hcl:"domains,block"`
}

// EtherpadDomain configures one per-tenant backend. APIKey falls back to the
// parent block's key; the per-domain internal URI takes precedence over the
// parent's.
type EtherpadDomain struct {
	Domain      string `hcl:"domain"`
	URL         string `hcl:"url"`
	APIKey      string `hcl:"api_key,optional"`
	InternalURI string `hcl:"internal_uri,optional"`
}

// Database configures the pad-metadata store.
type Database struct {
	Driver   string `hcl:"driver"`
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	User     string `hcl:"user,optional"`
	Password string `hcl:"password,optional"`
	DBName   string `hcl:"dbname,optional"`
	SSLMode  string `hcl:"sslmode,optional"`
	Path     string `hcl:"path,optional"`
}

// Inactivity configures the job nagging owners of idle pads.
type Inactivity struct {
	Enabled                   *bool  `hcl:"enabled,optional"`
	DaysWithoutActivity       int    `hcl:"days_without_activity,optional"`
	RecurringNotificationDays int    `hcl:"recurring_notification_days,optional"`
	Interval                  string `hcl:"interval,optional"`
}

// NewConfig parses the HCL configuration file at path and validates it.
func NewConfig(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("error decoding configuration file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for operator mistakes. Failures are
// aggregated so one run reports everything wrong.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Etherpad == nil {
		result = multierror.Append(result,
			fmt.Errorf("etherpad block is required"))
	} else if err := c.Etherpad.validate(); err != nil {
		result = multierror.Append(result, err)
	}

	if c.Database == nil {
		result = multierror.Append(result,
			fmt.Errorf("database block is required"))
	} else if err := c.Database.validate(); err != nil {
		result = multierror.Append(result, err)
	}

	if c.Inactivity != nil {
		if _, err := parseInterval(c.Inactivity.Interval); err != nil {
			result = multierror.Append(result,
				fmt.Errorf("inactivity interval: %w", err))
		}
	}

	return result.ErrorOrNil()
}

func (e *Etherpad) validate() error {
	if _, err := parseConnectTimeout(e.ConnectTimeout); err != nil {
		return fmt.Errorf("etherpad connect_timeout: %w", err)
	}

	if len(e.Domains) > 0 {
		var result *multierror.Error
		for i, d := range e.Domains {
			if err := validation.ValidateStruct(&d,
				validation.Field(&d.Domain, validation.Required),
				validation.Field(&d.URL, validation.Required, is.URL),
			); err != nil {
				result = multierror.Append(result,
					fmt.Errorf("etherpad domains[%d]: %w", i, err))
			}
		}
		return result.ErrorOrNil()
	}

	return validation.ValidateStruct(e,
		validation.Field(&e.URL, validation.Required, is.URL),
		validation.Field(&e.Domain, validation.Required),
	)
}

func (d *Database) validate() error {
	switch d.Driver {
	case "postgres":
		return validation.ValidateStruct(d,
			validation.Field(&d.Host, validation.Required),
			validation.Field(&d.User, validation.Required),
			validation.Field(&d.DBName, validation.Required),
		)
	case "sqlite":
		return validation.ValidateStruct(d,
			validation.Field(&d.Path, validation.Required),
		)
	default:
		return fmt.Errorf("database driver must be postgres or sqlite, got %q", d.Driver)
	}
}

// Targets converts the etherpad block into registry targets, applying the
// override precedence: per-domain internal URI, then the global one, then the
// public URL.
func (e *Etherpad) Targets() ([]etherpad.Target, error) {
	connectTimeout, err := parseConnectTimeout(e.ConnectTimeout)
	if err != nil {
		return nil, err
	}

	base := etherpad.Target{
		APIKey:         e.APIKey,
		APIVersion:     e.APIVersion,
		TrustAll:       e.TrustAll,
		VerifyHost:     e.VerifyHost,
		KeepAlive:      e.KeepAlive,
		MaxPoolSize:    e.MaxPoolSize,
		ConnectTimeout: connectTimeout,
	}

	if len(e.Domains) == 0 {
		t := base
		t.Domain = e.Domain
		t.URL = e.URL
		t.InternalURI = e.InternalURI
		return []etherpad.Target{t}, nil
	}

	targets := make([]etherpad.Target, 0, len(e.Domains))
	for _, d := range e.Domains {
		t := base
		t.Domain = d.Domain
		t.URL = d.URL
		t.InternalURI = d.InternalURI
		if t.InternalURI == "" {
			t.InternalURI = e.InternalURI
		}
		if d.APIKey != "" {
			t.APIKey = d.APIKey
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func parseConnectTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func parseInterval(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
