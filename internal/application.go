package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/seafight-backend/internal/config"
	"github.com/rocketscienceinc/seafight-backend/internal/game"
	"github.com/rocketscienceinc/seafight-backend/internal/repository"
	"github.com/rocketscienceinc/seafight-backend/internal/repository/storage"
	"github.com/rocketscienceinc/seafight-backend/internal/transport/nats"
	"github.com/rocketscienceinc/seafight-backend/internal/usecase"
	"github.com/rocketscienceinc/seafight-backend/transport/rest"
	"github.com/rocketscienceinc/seafight-backend/transport/websocket"
)

const flushTimeout = 5 * time.Second

var (
	ErrAddrNotFound        = errors.New("redis address string is empty")
	ErrInvalidStartingSeat = errors.New("starting seat must be creator or random")
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	settings, err := gameSettings(conf.Game)
	if err != nil {
		return err
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	matchRepo := repository.NewMatchRepository(redisStorage, conf.Redis.RecordTTL)

	var archive *usecase.Archive

	if conf.NATS.Enabled() {
		publisher, natsErr := nats.NewPublisher(logger, conf.NATS.URL, conf.NATS.Subject)
		if natsErr != nil {
			return fmt.Errorf("could not connect to nats: %w", natsErr)
		}
		defer publisher.Close()

		log.Info("Publishing finished matches", "subject", publisher.Subject())

		archive = usecase.NewArchive(logger, matchRepo, publisher, conf.Game.ArchiveQueue)
	} else {
		log.Info("NATS url is empty, finished matches are only stored")

		archive = usecase.NewArchive(logger, matchRepo, nil, conf.Game.ArchiveQueue)
	}

	archiveCtx, stopArchive := context.WithCancel(context.Background())
	defer stopArchive()

	archiveDone := make(chan struct{})
	go func() {
		defer close(archiveDone)
		archive.Run(archiveCtx)
	}()

	manager := usecase.NewGameManager(logger, usecase.ManagerOptions{
		Settings:     settings,
		CodeLength:   conf.Game.CodeLength,
		CodeCooldown: conf.Game.CodeCooldown,
	}, archive)

	defer func() {
		// stopped rooms still enqueue their records
		manager.Close()
		stopArchive()
		<-archiveDone

		flushCtx, cancelFlush := context.WithTimeout(context.Background(), flushTimeout)
		defer cancelFlush()

		archive.Flush(flushCtx)
	}()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		handlers := rest.NewHandlers(logger, manager, matchRepo)
		if httpErr := rest.Start(ctx, conf.HTTPPort, handlers); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, manager, conf.Gateway)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

func gameSettings(conf config.Game) (game.Settings, error) {
	starting := game.StartingSeat(conf.StartingSeat)
	if starting != game.StartCreator && starting != game.StartRandom {
		return game.Settings{}, fmt.Errorf("%w: got %q", ErrInvalidStartingSeat, conf.StartingSeat)
	}

	fleet, noTouch := conf.Fleet, conf.NoTouch

	if conf.FleetPreset != "" {
		preset, presetNoTouch, err := game.FleetPreset(conf.FleetPreset)
		if err != nil {
			return game.Settings{}, err
		}

		fleet, noTouch = preset, noTouch || presetNoTouch
	}

	return game.Settings{
		BoardSize:    conf.BoardSize,
		Fleet:        fleet,
		StartingSeat: starting,
		Placement: game.PlacementOptions{
			NoTouch:     noTouch,
			MaxAttempts: conf.PlacementAttempts,
		},
	}, nil
}
