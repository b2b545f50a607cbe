// Package main provides the treasure hunt server binary. It matchmakes
// connections into two-player sessions and serves them over Telnet,
// WebSocket, and gRPC.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/treasurehunt/internal/config"
	"github.com/cory-johannsen/treasurehunt/internal/frontend/rpc"
	"github.com/cory-johannsen/treasurehunt/internal/frontend/telnet"
	"github.com/cory-johannsen/treasurehunt/internal/frontend/web"
	"github.com/cory-johannsen/treasurehunt/internal/game/board"
	"github.com/cory-johannsen/treasurehunt/internal/game/dice"
	"github.com/cory-johannsen/treasurehunt/internal/game/hunt"
	"github.com/cory-johannsen/treasurehunt/internal/game/room"
	"github.com/cory-johannsen/treasurehunt/internal/game/session"
	"github.com/cory-johannsen/treasurehunt/internal/gateway"
	"github.com/cory-johannsen/treasurehunt/internal/observability"
	"github.com/cory-johannsen/treasurehunt/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty uses defaults and HUNT_ environment overrides")
	printConfig := flag.Bool("print-config", false, "print the effective configuration as YAML and exit")
	flag.Parse()

	if *printConfig {
		out, err := config.EffectiveYAML(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		_, _ = os.Stdout.Write(out)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Server.Name, cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	src := dice.NewCryptoSource()
	if cfg.Game.Seed != 0 {
		src = dice.NewSeededSource(cfg.Game.Seed)
		logger.Warn("using seeded dice", zap.Uint64("seed", cfg.Game.Seed))
	}
	roller := dice.NewLoggedRoller(src, cfg.Game.DiceExpression(), logger)

	opts := hunt.Options{
		Rules: board.Rules{
			Board:         board.Board{Rows: cfg.Game.Rows, Cols: cfg.Game.Cols},
			EnforceBounds: cfg.Game.EnforceBounds,
			AllowPass:     cfg.Game.AllowPass,
		},
		WarmDistance:       cfg.Game.WarmDistance,
		ForfeitOnDeparture: cfg.Game.ForfeitOnDeparture,
	}

	hub := gateway.NewHub(gateway.DefaultQueueSize, logger)
	rooms := room.NewManager(hub, roller, opts, session.NewRegistry(), logger)
	dispatcher := gateway.NewDispatcher(hub, rooms, gateway.RateLimit{
		PerSecond: cfg.RateLimit.PerSecond,
		Burst:     cfg.RateLimit.Burst,
	}, logger)

	lifecycle := server.NewLifecycle(logger)

	if cfg.Game.ReapInterval > 0 {
		lifecycle.Add("reaper", server.Background(func(ctx context.Context) {
			rooms.RunReaper(ctx, cfg.Game.ReapInterval)
		}))
	}

	if cfg.Telnet.Enabled {
		acceptor := telnet.NewAcceptor(cfg.Telnet, telnet.NewGameHandler(dispatcher, logger), logger)
		lifecycle.Add("telnet", &server.FuncService{
			StartFn: acceptor.ListenAndServe,
			StopFn:  acceptor.Stop,
		})
	}
	if cfg.Web.Enabled {
		ws := web.NewServer(cfg.Web, dispatcher, rooms, logger)
		lifecycle.Add("web", &server.FuncService{
			StartFn: ws.ListenAndServe,
			StopFn:  ws.Stop,
		})
	}
	if cfg.GRPC.Enabled {
		gs := rpc.NewServer(cfg.GRPC, rpc.NewService(dispatcher, logger), logger)
		lifecycle.Add("grpc", &server.FuncService{
			StartFn: gs.ListenAndServe,
			StopFn:  gs.Stop,
		})
	}

	logger.Info("treasure hunt server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Int("rows", cfg.Game.Rows),
		zap.Int("cols", cfg.Game.Cols),
		zap.String("dice", roller.Expression().Raw),
		zap.Bool("telnet", cfg.Telnet.Enabled),
		zap.Bool("web", cfg.Web.Enabled),
		zap.Bool("grpc", cfg.GRPC.Enabled),
	)

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
