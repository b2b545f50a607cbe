package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{Name: "treasurehunt"},
		Telnet: TelnetConfig{
			Enabled:      true,
			Host:         "0.0.0.0",
			Port:         4000,
			ReadTimeout:  10 * time.Minute,
			WriteTimeout: 30 * time.Second,
		},
		Web: WebConfig{
			Enabled:   true,
			Host:      "0.0.0.0",
			Port:      8080,
			Path:      "/ws",
			ReadLimit: 4096,
		},
		GRPC: GRPCConfig{
			Host: "127.0.0.1",
			Port: 50051,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Game: GameConfig{
			Rows:               10,
			Cols:               10,
			Dice:               "1d6",
			WarmDistance:       1,
			AllowPass:          true,
			EnforceBounds:      true,
			ForfeitOnDeparture: true,
			ReapInterval:       time.Minute,
		},
		RateLimit: RateLimitConfig{PerSecond: 5, Burst: 10},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestAddrs(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "0.0.0.0:4000", cfg.Telnet.Addr())
	assert.Equal(t, "0.0.0.0:8080", cfg.Web.Addr())
	assert.Equal(t, "127.0.0.1:50051", cfg.GRPC.Addr())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "treasurehunt", cfg.Server.Name)
	assert.True(t, cfg.Telnet.Enabled)
	assert.True(t, cfg.Web.Enabled)
	assert.False(t, cfg.GRPC.Enabled)
	assert.Equal(t, 10, cfg.Game.Rows)
	assert.Equal(t, 10, cfg.Game.Cols)
	assert.Equal(t, "1d6", cfg.Game.Dice)
	assert.Equal(t, 6, cfg.Game.DiceExpression().Max())
	assert.True(t, cfg.Game.AllowPass)
	assert.True(t, cfg.Game.ForfeitOnDeparture)
	assert.Equal(t, time.Minute, cfg.Game.ReapInterval)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
server:
  name: test
telnet:
  enabled: true
  host: 127.0.0.1
  port: 4001
  read_timeout: 1m
  write_timeout: 10s
web:
  enabled: false
grpc:
  enabled: true
  port: 6000
logging:
  level: debug
  format: console
game:
  rows: 8
  cols: 12
  dice: 2d4
  seed: 42
  allow_pass: false
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Server.Name)
	assert.Equal(t, 4001, cfg.Telnet.Port)
	assert.Equal(t, time.Minute, cfg.Telnet.ReadTimeout)
	assert.False(t, cfg.Web.Enabled)
	assert.True(t, cfg.GRPC.Enabled)
	assert.Equal(t, 6000, cfg.GRPC.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 8, cfg.Game.Rows)
	assert.Equal(t, 12, cfg.Game.Cols)
	assert.Equal(t, uint64(42), cfg.Game.Seed)
	assert.False(t, cfg.Game.AllowPass)
	assert.Equal(t, 2, cfg.Game.DiceExpression().Min())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HUNT_GAME_ROWS", "20")
	t.Setenv("HUNT_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Game.Rows)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestEffectiveYAML(t *testing.T) {
	t.Setenv("HUNT_GAME_DICE", "2d6")

	out, err := EffectiveYAML("")
	require.NoError(t, err)

	var got map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(out, &got))
	assert.Equal(t, "2d6", got["game"]["dice"])
	assert.Equal(t, 4000, got["telnet"]["port"])
	assert.Equal(t, "/ws", got["web"]["path"])
}

func TestEffectiveYAMLInvalid(t *testing.T) {
	t.Setenv("HUNT_GAME_ROWS", "0")
	_, err := EffectiveYAML("")
	assert.Error(t, err)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestValidateServerNameEmpty(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Name = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresTransport(t *testing.T) {
	cfg := validConfig()
	cfg.Telnet.Enabled = false
	cfg.Web.Enabled = false
	assert.ErrorContains(t, cfg.Validate(), "at least one")

	cfg.GRPC.Enabled = true
	assert.NoError(t, cfg.Validate())
}

func TestValidateDisabledTransportIgnored(t *testing.T) {
	cfg := validConfig()
	cfg.Telnet.Enabled = false
	cfg.Telnet.Port = 0
	assert.NoError(t, cfg.Validate())
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := validConfig()
		cfg.Logging.Format = format
		assert.NoError(t, cfg.Validate(), "format %q should be valid", format)
	}
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateTelnetPort(t *testing.T) {
	cfg := validConfig()
	cfg.Telnet.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateWeb(t *testing.T) {
	cfg := validConfig()
	cfg.Web.Path = "ws"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Web.ReadLimit = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateGRPCPort(t *testing.T) {
	cfg := validConfig()
	cfg.GRPC.Enabled = true
	cfg.GRPC.Port = 65536
	assert.Error(t, cfg.Validate())
}

func TestValidateGame(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GameConfig)
	}{
		{"zero rows", func(g *GameConfig) { g.Rows = 0 }},
		{"zero cols", func(g *GameConfig) { g.Cols = 0 }},
		{"bad dice", func(g *GameConfig) { g.Dice = "six" }},
		{"dice below one", func(g *GameConfig) { g.Dice = "1d6-3" }},
		{"negative warm", func(g *GameConfig) { g.WarmDistance = -1 }},
		{"negative reap interval", func(g *GameConfig) { g.ReapInterval = -time.Second }},
		{"board too tall", func(g *GameConfig) { g.Rows = MaxBoardSide + 1 }},
		{"too many dice", func(g *GameConfig) { g.Dice = "1000000000d6" }},
		{"one die too many", func(g *GameConfig) { g.Dice = fmt.Sprintf("%dd6", MaxDiceCount+1) }},
		{"too many sides", func(g *GameConfig) { g.Dice = "1d1000000" }},
		{"huge modifier", func(g *GameConfig) { g.Dice = "1d6+9223372036854775806" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg.Game)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateGame_DiceAtLimits(t *testing.T) {
	cfg := validConfig()
	cfg.Game.Dice = fmt.Sprintf("%dd%d+%d", MaxDiceCount, MaxDiceSides, MaxDiceModifier)
	assert.NoError(t, cfg.Validate())
}

func TestValidateReapDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.Game.ReapInterval = 0
	assert.NoError(t, cfg.Validate())
}

func TestValidateRateLimit(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit = RateLimitConfig{}
	assert.NoError(t, cfg.Validate(), "zero rate disables limiting")

	cfg.RateLimit = RateLimitConfig{PerSecond: 1, Burst: 0}
	assert.Error(t, cfg.Validate())

	cfg.RateLimit = RateLimitConfig{PerSecond: -1, Burst: 1}
	assert.Error(t, cfg.Validate())
}

// Property-based tests

func TestPropertyValidPortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		port := rapid.IntRange(1, 65535).Draw(t, "port")
		cfg := validConfig()
		cfg.Web.Port = port
		if err := cfg.Validate(); err != nil {
			t.Fatalf("valid port %d rejected: %v", port, err)
		}
	})
}

func TestPropertyInvalidPortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		port := rapid.OneOf(
			rapid.IntRange(-1000, 0),
			rapid.IntRange(65536, 100000),
		).Draw(t, "port")
		cfg := validConfig()
		cfg.Telnet.Port = port
		if err := cfg.Validate(); err == nil {
			t.Fatalf("invalid port %d accepted", port)
		}
	})
}

func TestPropertyBoardDimensions(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rows := rapid.IntRange(-5, MaxBoardSide+5).Draw(t, "rows")
		cols := rapid.IntRange(-5, MaxBoardSide+5).Draw(t, "cols")
		cfg := validConfig()
		cfg.Game.Rows = rows
		cfg.Game.Cols = cols
		err := cfg.Validate()
		valid := rows >= 1 && rows <= MaxBoardSide && cols >= 1 && cols <= MaxBoardSide
		if valid != (err == nil) {
			t.Fatalf("rows=%d cols=%d: err=%v", rows, cols, err)
		}
	})
}
