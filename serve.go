// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dikshapatel15/Decentralized-Voting-System/auth"
	"github.com/dikshapatel15/Decentralized-Voting-System/cliparse"
	"github.com/dikshapatel15/Decentralized-Voting-System/db"
	"github.com/dikshapatel15/Decentralized-Voting-System/election"
	"github.com/dikshapatel15/Decentralized-Voting-System/ledger"
	"github.com/dikshapatel15/Decentralized-Voting-System/metrics"
	"github.com/dikshapatel15/Decentralized-Voting-System/notify"
	"github.com/dikshapatel15/Decentralized-Voting-System/router"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(cfg *cliparse.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the election API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *cfg, slog.Default())
		},
	}
}

// openStore returns the configured store and a function releasing it.
func openStore(ctx context.Context, cfg cliparse.Config) (ledger.Store, func(), error) {
	if cfg.DatabaseType == db.TypeMemory {
		return db.NewMemoryStore(), func() {}, nil
	}

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return db.NewSQLStore(conn), func() { conn.Close() }, nil
}

// newPublisher fans events out to the log and to every configured broker.
func newPublisher(ctx context.Context, cfg cliparse.Config, electionName string, logger *slog.Logger) (notify.Publisher, func(), error) {
	fanout := notify.Fanout{notify.NewLogPublisher(logger)}
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.RedisURL != "" {
		client, err := notify.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { client.Close() })
		fanout = append(fanout, notify.NewRedisPublisher(client, cfg.RedisChannel, electionName))
		logger.Info("Publishing events to Redis", "channel", cfg.RedisChannel)
	}

	if len(cfg.KafkaBrokers) > 0 {
		kp, err := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, electionName)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, kp.Close)
		if err := kp.EnsureTopic(ctx, 1, 1); err != nil {
			closeAll()
			return nil, nil, err
		}
		fanout = append(fanout, kp)
		logger.Info("Publishing events to Kafka", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	return fanout, closeAll, nil
}

// serve runs the HTTP server and the notification dispatcher until ctx is
// cancelled, then drains queued notifications before returning.
func serve(ctx context.Context, cfg cliparse.Config, logger *slog.Logger) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT secret required (use --jwt-secret or JWT_SECRET env)")
	}
	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info("Database ready", "type", cfg.DatabaseType)

	// Notifications carry the stored name when there is one.
	electionName := cfg.ElectionName
	if snap, err := store.Load(ctx); err == nil {
		electionName = snap.Name
	}

	publisher, closePublisher, err := newPublisher(ctx, cfg, electionName, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	m := metrics.New()
	dispatcher := notify.NewDispatcher(publisher, cfg.NotifyBuffer,
		notify.WithLogger(logger),
		notify.WithMetrics(m),
	)

	l, err := ledger.Open(ctx, store, ledger.Bootstrap{
		Administrator: election.Principal(cfg.Administrator),
		Name:          cfg.ElectionName,
	},
		ledger.WithLogger(logger),
		ledger.WithMetrics(m),
		ledger.WithPublisher(dispatcher),
	)
	if err != nil {
		dispatcher.Close()
		return err
	}

	server := &http.Server{
		Handler:           router.NewRouter(l, tokens, m, logger),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Runs past cancellation; Close ends it once the server has stopped.
		return dispatcher.Run(context.WithoutCancel(gctx))
	})
	g.Go(func() error {
		logger.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		dispatcher.Close()
		return err
	})

	err = g.Wait()
	logger.Info("Server closed", "error", err)
	return err
}
