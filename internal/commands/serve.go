package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"evalgo.org/bffgate/internal/api"
	"evalgo.org/bffgate/internal/auth"
	"evalgo.org/bffgate/internal/engine"
	"evalgo.org/bffgate/internal/project"
	"evalgo.org/bffgate/internal/store"
	"evalgo.org/bffgate/internal/transport"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the gateway",
	Long: `Start the gateway HTTP server.

Public endpoints of the project are served at their paths, POST /login
issues tokens when security is enabled and /api/v1 exposes the admin API.
With project.watch enabled, edits to the project file are applied without
a restart.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}

	st, err := store.New(p)
	if err != nil {
		return fmt.Errorf("project rejected: %w", err)
	}

	issuer := auth.NewIssuerFromConfig(cfg)
	eng := engine.New(transport.NewHTTPTransport(cfg.Gateway.CallTimeout), issuer, engine.Options{
		ExecutionTimeout: cfg.Gateway.ExecutionTimeout,
		MaxParallel:      cfg.Gateway.MaxParallel,
		MaxPasses:        cfg.Gateway.MaxPasses,
	})

	server := api.New(cfg, st, eng, issuer)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	if cfg.Project.Watch {
		watcher := project.NewWatcher(cfg.Project.File, st)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.WithError(err).Error("Project watcher stopped")
			}
		}()
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}
