// Package config handles configuration loading and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/fabiov64/Filter-UAS-Zones/internal/matcher"
	"github.com/fabiov64/Filter-UAS-Zones/internal/processor"
)

// Defaults for keys left unset.
const (
	DefaultAddr = "127.0.0.1"
	DefaultPort = 5000
)

var (
	// ErrNoPolicy is returned when no matching policy was selected.
	ErrNoPolicy = errors.New("no matching policy selected (set policy to planar-buffer or geodetic-centroid)")
	// ErrNoTransform is returned when no compatibility transform was selected.
	ErrNoTransform = errors.New("no transform selected (set transform to strip or normalize)")
)

// Config represents the root configuration file structure.
type Config struct {
	Policy    string    `yaml:"policy,omitempty" json:"policy,omitempty"`
	Transform string    `yaml:"transform,omitempty" json:"transform,omitempty"`
	Padding   float64   `yaml:"padding,omitempty" json:"padding,omitempty"` // meters, planar policy only
	Output    string    `yaml:"output,omitempty" json:"output,omitempty"`
	Map       string    `yaml:"map,omitempty" json:"map,omitempty"`
	Zoom      int       `yaml:"zoom,omitempty" json:"zoom,omitempty"`
	Listen    Listen    `yaml:"listen,omitempty" json:"listen,omitempty"`
	RateLimit RateLimit `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"`
}

// Listen is the session server address.
type Listen struct {
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty"`
	Port int    `yaml:"port,omitempty" json:"port,omitempty"`
}

// RateLimit throttles the mutating session routes. Zero disables it.
type RateLimit struct {
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty" json:"requests_per_second,omitempty"`
	Burst             int     `yaml:"burst,omitempty" json:"burst,omitempty"`
}

// Engine holds the validated filter choices.
type Engine struct {
	Policy    matcher.Policy
	Transform processor.Transform
	Padding   float64
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}

// LoadOptional is Load, except that a missing file yields an empty configuration.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", path).Msg("Configuration file not found, using defaults")
		return &Config{}, nil
	}
	return cfg, err
}

// Override carries command-line values; zero values leave the file value in place.
type Override struct {
	Policy    string
	Transform string
	Padding   *float64
	Output    string
	Map       string
	Zoom      int
	Addr      string
	Port      int
}

// Apply copies the set fields of o over c.
func (c *Config) Apply(o Override) {
	if o.Policy != "" {
		c.Policy = o.Policy
	}
	if o.Transform != "" {
		c.Transform = o.Transform
	}
	if o.Padding != nil {
		c.Padding = *o.Padding
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.Map != "" {
		c.Map = o.Map
	}
	if o.Zoom > 0 {
		c.Zoom = o.Zoom
	}
	if o.Addr != "" {
		c.Listen.Addr = o.Addr
	}
	if o.Port > 0 {
		c.Listen.Port = o.Port
	}
}

// Engine validates the policy and transform choices. Neither has a default.
func (c *Config) Engine() (Engine, error) {
	if c.Policy == "" {
		return Engine{}, ErrNoPolicy
	}
	if c.Transform == "" {
		return Engine{}, ErrNoTransform
	}

	policy, err := matcher.ParsePolicy(c.Policy)
	if err != nil {
		return Engine{}, err
	}
	transform, err := processor.ParseTransform(c.Transform)
	if err != nil {
		return Engine{}, err
	}

	if c.Padding != 0 && policy != matcher.PlanarBuffer {
		log.Warn().
			Float64("padding", c.Padding).
			Str("policy", policy.String()).
			Msg("Padding only applies to the planar-buffer policy, ignoring it")
	}

	return Engine{Policy: policy, Transform: transform, Padding: c.Padding}, nil
}

// OutputPath returns the artifact path.
func (c *Config) OutputPath() string {
	if c.Output == "" {
		return processor.DefaultOutput
	}
	return c.Output
}

// ListenAddr returns the host:port the session server binds to.
func (c *Config) ListenAddr() string {
	addr := c.Listen.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	port := c.Listen.Port
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(addr, strconv.Itoa(port))
}
