// Package config provides Viper-based configuration loading for the treasure
// hunt server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/treasurehunt/internal/game/dice"
)

// ServerConfig holds top-level server settings.
type ServerConfig struct {
	// Name identifies this server instance in logs.
	Name string `mapstructure:"name"`
}

// TelnetConfig holds Telnet acceptor settings.
type TelnetConfig struct {
	// Enabled turns the Telnet transport on.
	Enabled bool `mapstructure:"enabled"`
	// Host is the bind address for the Telnet listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the Telnet listener.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout for Telnet connections.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for Telnet connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// WebConfig holds the HTTP and WebSocket transport settings.
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	// Path is the WebSocket upgrade route.
	Path string `mapstructure:"path"`
	// ReadLimit caps the size in bytes of one inbound WebSocket message.
	ReadLimit int64 `mapstructure:"read_limit"`
}

// Addr returns the "host:port" listen address.
func (w WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}

// GRPCConfig holds the gRPC streaming transport settings.
type GRPCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Addr returns the "host:port" listen address.
func (g GRPCConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// MaxBoardSide bounds game.rows and game.cols.
const MaxBoardSide = 100

// Bounds on the game.dice expression. A roll allocates one slot per die.
const (
	MaxDiceCount    = 100
	MaxDiceSides    = 1000
	MaxDiceModifier = 1000
)

// GameConfig holds the rules every new session is created with.
type GameConfig struct {
	Rows int `mapstructure:"rows"`
	Cols int `mapstructure:"cols"`
	// Dice is the movement roll expression, e.g. "1d6".
	Dice string `mapstructure:"dice"`
	// Seed makes treasure placement and rolls reproducible when non-zero.
	Seed uint64 `mapstructure:"seed"`
	// WarmDistance is the per-axis width of the warm band around the treasure.
	WarmDistance       int  `mapstructure:"warm_distance"`
	AllowPass          bool `mapstructure:"allow_pass"`
	EnforceBounds      bool `mapstructure:"enforce_bounds"`
	ForfeitOnDeparture bool `mapstructure:"forfeit_on_departure"`
	// ReapInterval is how often finished sessions are dropped; zero disables.
	ReapInterval time.Duration `mapstructure:"reap_interval"`
}

// DiceExpression parses Dice.
//
// Precondition: Validate has accepted the configuration.
func (g GameConfig) DiceExpression() dice.Expression {
	return dice.MustParse(g.Dice)
}

// RateLimitConfig bounds how often a single connection may submit intents.
type RateLimitConfig struct {
	// PerSecond is the sustained intent rate; zero disables limiting.
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Telnet    TelnetConfig    `mapstructure:"telnet"`
	Web       WebConfig       `mapstructure:"web"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Game      GameConfig      `mapstructure:"game"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Server.Name == "" {
		errs = append(errs, "server.name must not be empty")
	}
	if !c.Telnet.Enabled && !c.Web.Enabled && !c.GRPC.Enabled {
		errs = append(errs, "at least one of telnet, web, grpc must be enabled")
	}
	if c.Telnet.Enabled {
		if err := validateTelnet(c.Telnet); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Web.Enabled {
		if err := validateWeb(c.Web); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.GRPC.Enabled {
		if err := validatePort("grpc.port", c.GRPC.Port); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRateLimit(c.RateLimit); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be 1-65535, got %d", key, port)
	}
	return nil
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if err := validatePort("telnet.port", t.Port); err != nil {
		errs = append(errs, err.Error())
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "telnet.read_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "telnet.write_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateWeb(w WebConfig) error {
	var errs []string
	if err := validatePort("web.port", w.Port); err != nil {
		errs = append(errs, err.Error())
	}
	if !strings.HasPrefix(w.Path, "/") {
		errs = append(errs, fmt.Sprintf("web.path must start with /, got %q", w.Path))
	}
	if w.ReadLimit < 1 {
		errs = append(errs, fmt.Sprintf("web.read_limit must be >= 1, got %d", w.ReadLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.Rows < 1 || g.Rows > MaxBoardSide {
		errs = append(errs, fmt.Sprintf("game.rows must be 1-%d, got %d", MaxBoardSide, g.Rows))
	}
	if g.Cols < 1 || g.Cols > MaxBoardSide {
		errs = append(errs, fmt.Sprintf("game.cols must be 1-%d, got %d", MaxBoardSide, g.Cols))
	}
	expr, err := dice.Parse(g.Dice)
	switch {
	case err != nil:
		errs = append(errs, fmt.Sprintf("game.dice: %v", err))
	case expr.Count > MaxDiceCount:
		errs = append(errs, fmt.Sprintf("game.dice %q rolls more than %d dice", g.Dice, MaxDiceCount))
	case expr.Sides > MaxDiceSides:
		errs = append(errs, fmt.Sprintf("game.dice %q has more than %d sides", g.Dice, MaxDiceSides))
	case expr.Modifier > MaxDiceModifier || expr.Modifier < -MaxDiceModifier:
		errs = append(errs, fmt.Sprintf("game.dice %q modifier must be within ±%d", g.Dice, MaxDiceModifier))
	case expr.Min() < 1:
		errs = append(errs, fmt.Sprintf("game.dice %q can roll below 1", g.Dice))
	}
	if g.WarmDistance < 0 {
		errs = append(errs, fmt.Sprintf("game.warm_distance must be >= 0, got %d", g.WarmDistance))
	}
	if g.ReapInterval < 0 {
		errs = append(errs, "game.reap_interval must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRateLimit(r RateLimitConfig) error {
	if r.PerSecond < 0 {
		return errors.New("ratelimit.per_second must not be negative")
	}
	if r.PerSecond > 0 && r.Burst < 1 {
		return fmt.Errorf("ratelimit.burst must be >= 1 when limiting, got %d", r.Burst)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path loads defaults and
// environment overrides only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v, err := read(path)
	if err != nil {
		return Config{}, err
	}
	return LoadFromViper(v)
}

// EffectiveYAML renders the merged settings Load would use as YAML.
//
// Postcondition: Returns YAML only when the settings validate.
func EffectiveYAML(path string) ([]byte, error) {
	v, err := read(path)
	if err != nil {
		return nil, err
	}
	if _, err := LoadFromViper(v); err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("rendering config: %w", err)
	}
	return out, nil
}

func read(path string) (*viper.Viper, error) {
	v := viper.New()

	// Environment variable overrides with HUNT_ prefix
	v.SetEnvPrefix("HUNT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return v, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the built-in defaults.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "treasurehunt")

	v.SetDefault("telnet.enabled", true)
	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "10m")
	v.SetDefault("telnet.write_timeout", "30s")

	v.SetDefault("web.enabled", true)
	v.SetDefault("web.host", "0.0.0.0")
	v.SetDefault("web.port", 8080)
	v.SetDefault("web.path", "/ws")
	v.SetDefault("web.read_limit", 4096)

	v.SetDefault("grpc.enabled", false)
	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("game.rows", 10)
	v.SetDefault("game.cols", 10)
	v.SetDefault("game.dice", dice.D6.Raw)
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.warm_distance", 1)
	v.SetDefault("game.allow_pass", true)
	v.SetDefault("game.enforce_bounds", true)
	v.SetDefault("game.forfeit_on_departure", true)
	v.SetDefault("game.reap_interval", "1m")

	v.SetDefault("ratelimit.per_second", 5)
	v.SetDefault("ratelimit.burst", 10)
}
