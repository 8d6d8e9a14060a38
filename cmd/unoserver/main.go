// Package main runs the Uno session server: a TCP acceptor for the
// newline-delimited JSON protocol and, when enabled, a WebSocket acceptor
// carrying the same envelopes.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/uno/internal/config"
	"github.com/cory-johannsen/uno/internal/frontend/handlers"
	"github.com/cory-johannsen/uno/internal/frontend/tcp"
	"github.com/cory-johannsen/uno/internal/frontend/ws"
	"github.com/cory-johannsen/uno/internal/game/random"
	"github.com/cory-johannsen/uno/internal/game/session"
	"github.com/cory-johannsen/uno/internal/gameserver"
	"github.com/cory-johannsen/uno/internal/observability"
	"github.com/cory-johannsen/uno/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file, e.g. configs/dev.yaml (defaults and UNO_* environment when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	serverID := uuid.NewString()
	logger, err := observability.NewLogger(cfg.Logging, cfg.Server.Name, serverID)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	if arg := flag.Arg(0); arg != "" {
		port, err := config.ParsePort(arg)
		if err != nil {
			logger.Warn("ignoring port argument",
				zap.String("arg", arg),
				zap.Int("port", cfg.TCP.Port),
				zap.Error(err),
			)
		} else {
			cfg.TCP.Port = port
		}
	}

	logger.Info("starting uno server",
		zap.String("tcp_addr", cfg.TCP.Addr()),
		zap.Bool("websocket", cfg.WebSocket.Enabled),
	)

	dir := gameserver.NewDirectory(serverID, cfg.Game, session.NewManager(), random.NewCryptoSource(), logger)
	sessionHandler := handlers.NewSessionHandler(dir, logger)

	lifecycle := server.NewLifecycle(logger)

	tcpAcceptor := tcp.NewAcceptor(cfg.TCP, sessionHandler, logger)
	lifecycle.Add("tcp", &server.FuncService{
		StartFn: tcpAcceptor.ListenAndServe,
		StopFn:  tcpAcceptor.Stop,
	})

	if cfg.WebSocket.Enabled {
		wsServer := ws.NewServer(cfg.WebSocket, ws.Limits{
			WriteTimeout:  cfg.TCP.WriteTimeout,
			MaxFrameBytes: cfg.TCP.MaxFrameBytes,
		}, sessionHandler, logger)
		lifecycle.Add("websocket", &server.FuncService{
			StartFn: wsServer.ListenAndServe,
			StopFn:  wsServer.Stop,
		})
	}

	logger.Info("uno server initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("uno server stopped")
}
