// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for the herald service.
type Config struct {
	// Homeserver configures the Matrix connection.
	Homeserver HomeserverConfig `yaml:"homeserver"`

	// Community configures which rooms and people herald watches.
	Community CommunityConfig `yaml:"community"`

	// Paths configures file locations.
	Paths PathsConfig `yaml:"paths"`

	// Delivery configures the notification fan-out.
	Delivery DeliveryConfig `yaml:"delivery"`
}

// HomeserverConfig configures the Matrix homeserver connection.
type HomeserverConfig struct {
	// URL is the base URL of the homeserver, e.g.
	// "https://matrix.herald.example".
	URL string `yaml:"url"`

	// ServerName is the Matrix server name that appears in user IDs
	// and room aliases, e.g. "herald.example". Distinct from the URL
	// host when the homeserver is delegated.
	ServerName string `yaml:"server_name"`

	// UserID is the full Matrix ID herald logs in as,
	// e.g. "@herald:herald.example". Required when PasswordFile is
	// set; otherwise taken from the saved session.
	UserID string `yaml:"user_id"`

	// PasswordFile is the path to a file holding the login password.
	// Used only when no saved session exists. "-" reads from stdin.
	PasswordFile string `yaml:"password_file"`
}

// CommunityConfig configures which rooms and people herald watches.
type CommunityConfig struct {
	// RoomAlias is the alias of the community room whose membership
	// and power levels define the directory of monitorable people,
	// e.g. "#community:herald.example".
	RoomAlias string `yaml:"room_alias"`

	// ConsultationPrefix is the room-name prefix that marks a room as
	// a consultation room. Joins to rooms whose name starts with this
	// prefix trigger notifications. Default: "Consultation".
	ConsultationPrefix string `yaml:"consultation_prefix"`

	// EligibleRoles lists the roles a person must hold (any of) to be
	// subscribable via the add command. Default: [staff, admin].
	EligibleRoles []string `yaml:"eligible_roles"`
}

// PathsConfig configures file locations.
type PathsConfig struct {
	// State is the directory for herald's runtime state: the saved
	// session and the SQLite database. Default: ${HOME}/.herald.
	State string `yaml:"state"`

	// Database is the SQLite database file path.
	// Default: <state>/herald.db.
	Database string `yaml:"database"`

	// Socket is the Unix socket path for the admin interface.
	// Default: <state>/herald.sock.
	Socket string `yaml:"socket"`
}

// DeliveryConfig configures the notification fan-out.
type DeliveryConfig struct {
	// Workers is the number of goroutines delivering notifications.
	// Default: 4.
	Workers int `yaml:"workers"`
}

// Default returns the default configuration. Defaults ensure all
// optional fields have usable values; the config file itself is still
// required, since the homeserver and community room cannot be guessed.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	stateDir := filepath.Join(homeDir, ".herald")

	return &Config{
		Community: CommunityConfig{
			ConsultationPrefix: "Consultation",
			EligibleRoles:      []string{"staff", "admin"},
		},
		Paths: PathsConfig{
			State: stateDir,
		},
		Delivery: DeliveryConfig{
			Workers: 4,
		},
	}
}

// Load loads configuration from the HERALD_CONFIG environment
// variable. There are no fallbacks: if HERALD_CONFIG is not set, this
// fails.
func Load() (*Config, error) {
	configPath := os.Getenv("HERALD_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("HERALD_CONFIG environment variable not set; " +
			"set it to the path of your herald.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The config
// file is the single source of truth; environment variables do not
// override config values. The only expansion performed is ${HOME} and
// similar path variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyDerivedDefaults()
	cfg.expandVariables()

	return cfg, nil
}

// applyDerivedDefaults fills paths that default relative to the state
// directory.
func (c *Config) applyDerivedDefaults() {
	if c.Paths.Database == "" {
		c.Paths.Database = filepath.Join(c.Paths.State, "herald.db")
	}
	if c.Paths.Socket == "" {
		c.Paths.Socket = filepath.Join(c.Paths.State, "herald.sock")
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HERALD_STATE": c.Paths.State,
		"HOME":         os.Getenv("HOME"),
	}

	c.Paths.State = expandVars(c.Paths.State, vars)
	vars["HERALD_STATE"] = c.Paths.State // Update for dependent paths.

	c.Paths.Database = expandVars(c.Paths.Database, vars)
	c.Paths.Socket = expandVars(c.Paths.Socket, vars)
	c.Homeserver.PasswordFile = expandVars(c.Homeserver.PasswordFile, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Homeserver.URL == "" {
		errs = append(errs, fmt.Errorf("homeserver.url is required"))
	}
	if c.Homeserver.ServerName == "" {
		errs = append(errs, fmt.Errorf("homeserver.server_name is required"))
	}
	if c.Community.RoomAlias == "" {
		errs = append(errs, fmt.Errorf("community.room_alias is required"))
	}
	if c.Community.ConsultationPrefix == "" {
		errs = append(errs, fmt.Errorf("community.consultation_prefix is required"))
	}
	if len(c.Community.EligibleRoles) == 0 {
		errs = append(errs, fmt.Errorf("community.eligible_roles must not be empty"))
	}
	if c.Paths.State == "" {
		errs = append(errs, fmt.Errorf("paths.state is required"))
	}
	if c.Delivery.Workers <= 0 {
		errs = append(errs, fmt.Errorf("delivery.workers must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
