package jwtgen

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultAlgorithm = "RS256"
	defaultTTL       = "1h"
	defaultTemplate  = "generic"

	// KeyIDThumbprint asks for the RFC 7638 thumbprint of the certificate key as kid.
	KeyIDThumbprint = "thumbprint"
)

// Config is the YAML document describing environments and their profiles.
type Config struct {
	Environments map[string]EnvironmentConfig `yaml:"environments"`
}

// EnvironmentConfig groups the profiles sharing an issuer.
type EnvironmentConfig struct {
	IssuerDefault string                   `yaml:"issuer_default"`
	Profiles      map[string]ProfileConfig `yaml:"profiles"`
}

// ProfileConfig describes one signing identity inside an environment.
type ProfileConfig struct {
	AudienceDefault string          `yaml:"audience_default"`
	Alg             string          `yaml:"alg"`
	PayloadTemplate string          `yaml:"payload_template"`
	KeyID           string          `yaml:"kid"`
	Keys            KeyConfig       `yaml:"keys"`
	Defaults        ProfileDefaults `yaml:"defaults"`
}

// KeyConfig holds inline PEM material, usually flattened to one line.
type KeyConfig struct {
	PublicCer  string `yaml:"public_cer"`
	PrivatePEM string `yaml:"private_pem"`
}

// ProfileDefaults are request defaults applied when the caller gives none.
type ProfileDefaults struct {
	TTL string `yaml:"ttl"`
}

// ResolvedProfile is a profile with its environment defaults and fallbacks applied.
type ResolvedProfile struct {
	Env             string
	Profile         string
	IssuerDefault   string
	AudienceDefault string
	Alg             string
	DefaultTTL      string
	PayloadTemplate string
	KeyID           string
	PublicCertPEM   string
	PrivateKeyPEM   string
}

// ProfileResolver resolves an environment/profile pair to signing settings.
type ProfileResolver interface {
	Resolve(env, profile string) (*ResolvedProfile, error)
}

// LoadConfig reads and validates the YAML configuration at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newError(ErrCodeConfiguration, "config file %q does not exist", path)
		}
		return nil, wrapError(ErrCodeConfiguration, err, "read config file %q", path)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a YAML configuration document.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, wrapError(ErrCodeConfiguration, err, "parse config YAML")
	}
	if err := cfg.validate(); err != nil {
		return nil, wrapError(ErrCodeConfiguration, err, "invalid config")
	}
	return &cfg, nil
}

// Resolve returns the profile settings with defaults applied.
func (c *Config) Resolve(env, profile string) (*ResolvedProfile, error) {
	envCfg, ok := c.Environments[env]
	if !ok {
		return nil, newError(ErrCodeConfiguration, "environment %q does not exist; available: %s",
			env, strings.Join(c.EnvironmentNames(), ", "))
	}
	profCfg, ok := envCfg.Profiles[profile]
	if !ok {
		return nil, newError(ErrCodeConfiguration, "profile %q does not exist in %q; available: %s",
			profile, env, strings.Join(sortedKeys(envCfg.Profiles), ", "))
	}
	profCfg.normalize()

	return &ResolvedProfile{
		Env:             env,
		Profile:         profile,
		IssuerDefault:   envCfg.IssuerDefault,
		AudienceDefault: profCfg.AudienceDefault,
		Alg:             profCfg.Alg,
		DefaultTTL:      profCfg.Defaults.TTL,
		PayloadTemplate: profCfg.PayloadTemplate,
		KeyID:           profCfg.KeyID,
		PublicCertPEM:   profCfg.Keys.PublicCer,
		PrivateKeyPEM:   profCfg.Keys.PrivatePEM,
	}, nil
}

// EnvironmentNames returns the configured environment names, sorted.
func (c *Config) EnvironmentNames() []string {
	return sortedKeys(c.Environments)
}

// ProfileNames returns the profile names of env, sorted.
func (c *Config) ProfileNames(env string) ([]string, error) {
	envCfg, ok := c.Environments[env]
	if !ok {
		return nil, newError(ErrCodeConfiguration, "environment %q does not exist; available: %s",
			env, strings.Join(c.EnvironmentNames(), ", "))
	}
	return sortedKeys(envCfg.Profiles), nil
}

// Safe returns a printable view of the profile without key material.
func (p *ResolvedProfile) Safe() map[string]string {
	return map[string]string{
		"env":              p.Env,
		"profile":          p.Profile,
		"alg":              p.Alg,
		"issuer_default":   p.IssuerDefault,
		"audience_default": p.AudienceDefault,
		"default_ttl":      p.DefaultTTL,
		"payload_template": p.PayloadTemplate,
		"kid":              p.KeyID,
	}
}

// normalize sets default values for optional fields.
func (p *ProfileConfig) normalize() {
	if p.Alg == "" {
		p.Alg = defaultAlgorithm
	}
	if p.PayloadTemplate == "" {
		p.PayloadTemplate = defaultTemplate
	}
	if p.Defaults.TTL == "" {
		p.Defaults.TTL = defaultTTL
	}
}

// validate ensures every environment and profile is usable.
func (c Config) validate() error {
	if len(c.Environments) == 0 {
		return errors.New("at least one environment must be configured")
	}
	for _, envName := range sortedKeys(c.Environments) {
		env := c.Environments[envName]
		if len(strings.TrimSpace(env.IssuerDefault)) < 2 {
			return fmt.Errorf("environments.%s.issuer_default must have at least 2 characters", envName)
		}
		if len(env.Profiles) == 0 {
			return fmt.Errorf("environments.%s.profiles must not be empty", envName)
		}
		for _, name := range sortedKeys(env.Profiles) {
			if err := env.Profiles[name].validate(); err != nil {
				return fmt.Errorf("environments.%s.profiles.%s: %w", envName, name, err)
			}
		}
	}
	return nil
}

func (p ProfileConfig) validate() error {
	switch {
	case len(strings.TrimSpace(p.AudienceDefault)) < 3:
		return errors.New("audience_default must have at least 3 characters")
	case p.Alg != "" && !strings.EqualFold(p.Alg, defaultAlgorithm):
		return fmt.Errorf("alg %q is not supported; only %s", p.Alg, defaultAlgorithm)
	case len(strings.TrimSpace(p.Keys.PublicCer)) < pemMinLength:
		return errors.New("keys.public_cer is required")
	case len(strings.TrimSpace(p.Keys.PrivatePEM)) < pemMinLength:
		return errors.New("keys.private_pem is required")
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
