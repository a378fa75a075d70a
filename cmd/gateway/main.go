// Package main implements the bzd gateway entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/bzd-chat/gateway/internal/aggregate"
	"github.com/bzd-chat/gateway/internal/api"
	"github.com/bzd-chat/gateway/internal/audit"
	"github.com/bzd-chat/gateway/internal/auth"
	"github.com/bzd-chat/gateway/internal/backend"
	"github.com/bzd-chat/gateway/internal/config"
	"github.com/bzd-chat/gateway/internal/logging"
	"github.com/bzd-chat/gateway/internal/metrics"
)

const Version = "1.0.0"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flagSet := pflag.NewFlagSet("gateway", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "path to the YAML configuration file")
	envFile := flagSet.String("env-file", ".env", "dotenv file loaded before reading the environment")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", *envFile, err)
	}

	// Step 1: configuration and logging
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		return err
	}
	log.WithField("version", Version).Info("Starting gateway")

	// Step 2: credential verification
	publicKey, err := auth.LoadPublicKey(cfg.Auth.PublicKeyFile)
	if err != nil {
		return err
	}
	verifier, err := auth.NewVerifier(auth.VerifierConfig{
		PublicKey:     publicKey,
		RequireExpiry: cfg.Auth.RequireExpiry,
		Leeway:        cfg.Auth.Leeway,
	})
	if err != nil {
		return fmt.Errorf("failed to create token verifier: %w", err)
	}

	// Step 3: backend clients
	collector := metrics.NewCollector()
	pool, err := backend.NewPool(backend.PoolConfig{
		Auth:     cfg.Clients.Auth.Endpoint,
		Users:    cfg.Clients.Users.Endpoint,
		Contacts: cfg.Clients.Contacts.Endpoint,
		Sources:  cfg.Clients.Sources.Endpoint,
		Messages: cfg.Clients.Messages.Endpoint,
		Topics:   cfg.Clients.Topics.Endpoint,
	}, backend.WithObserver(collector), backend.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to create backend clients: %w", err)
	}
	defer func() {
		if err := pool.Close(); err != nil {
			log.WithError(err).Warn("Error closing backend clients")
		}
	}()

	// Step 4: audit trail
	auditLogger, err := audit.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize audit logger: %w", err)
	}
	defer func() {
		if err := auditLogger.Close(); err != nil {
			log.WithError(err).Warn("Error closing audit logger")
		}
	}()

	// Step 5: HTTP server
	deps := api.Deps{
		Backends:   api.BackendsFromPool(pool),
		Aggregator: aggregate.NewEngine(pool.Users, pool.Sources, pool.Topics, log),
		Guard:      auth.NewGuard(verifier, log),
		Log:        log,
		Metrics:    collector,
	}
	if auditLogger != nil {
		deps.Audit = auditLogger
	}

	opts := api.Options{
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}
	if cfg.Metrics.Enabled {
		opts.MetricsPath = cfg.Metrics.Path
	}

	server, err := api.NewServer(deps, opts)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(cfg.HTTP.Endpoint)
	}()

	return waitForShutdown(log, server, auditLogger, cfg.HTTP, serverErr)
}

// waitForShutdown blocks until a termination signal or a server failure.
// SIGHUP rotates the audit file and keeps serving.
func waitForShutdown(log logrus.FieldLogger, server *api.Server, auditLogger *audit.Logger, cfg config.HTTPConfig, serverErr <-chan error) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)

	for {
		select {
		case err := <-serverErr:
			return err
		case sig := <-signals:
			if sig == syscall.SIGHUP {
				if err := auditLogger.Rotate(); err != nil {
					log.WithError(err).Warn("Audit rotation failed")
				} else {
					log.Info("Audit log rotated")
				}
				continue
			}

			log.WithField("signal", sig.String()).Info("Initiating graceful shutdown")
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			err := server.Stop(ctx)
			cancel()
			if err != nil {
				return fmt.Errorf("error stopping HTTP server: %w", err)
			}
			log.Info("Gateway shutdown complete")
			return nil
		}
	}
}
