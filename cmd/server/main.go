package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/yukikurage/collab-task-api/internal/config"
	"github.com/yukikurage/collab-task-api/internal/database"
	"github.com/yukikurage/collab-task-api/internal/logging"
	"github.com/yukikurage/collab-task-api/internal/router"
	"github.com/yukikurage/collab-task-api/internal/seed"
	"github.com/yukikurage/collab-task-api/internal/services"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// app holds what every subcommand needs.
type app struct {
	cfg *config.Config
	log *logrus.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "server",
		Short:        "Collaborative task management API",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.cfg = config.Load()
			a.log = logging.New(a.cfg)
		},
	}

	cmd.AddCommand(a.serveCommand())
	cmd.AddCommand(a.migrateCommand())
	cmd.AddCommand(a.seedCommand())
	return cmd
}

func (a *app) connect() (*gorm.DB, error) {
	db, err := database.Connect(a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	if err := database.MigrateDatabase(db, a.log); err != nil {
		return nil, err
	}
	return db, nil
}

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			gin.SetMode(a.cfg.GinMode)

			db, err := a.connect()
			if err != nil {
				return err
			}

			var aiService *services.AIService
			if a.cfg.OpenAIAPIKey != "" {
				aiService = services.NewAIService(a.cfg.OpenAIAPIKey)
			}

			r, err := router.New(router.Deps{Config: a.cfg, DB: db, Log: a.log, AI: aiService})
			if err != nil {
				return err
			}

			return a.listen(cmd.Context(), r)
		},
	}
}

func (a *app) listen(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", srv.Addr).Info("Server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *app) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.connect()
			return err
		},
	}
}

func (a *app) seedCommand() *cobra.Command {
	var (
		file    string
		destroy bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace all data with fixtures, or delete everything with --destroy",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.connect()
			if err != nil {
				return err
			}
			seeder := seed.New(db, a.log)

			if destroy {
				return seeder.Destroy(cmd.Context())
			}

			var data []byte
			if file != "" {
				if data, err = os.ReadFile(file); err != nil {
					return fmt.Errorf("failed to read fixtures: %w", err)
				}
			}
			fixtures, err := seed.Parse(data)
			if err != nil {
				return err
			}
			_, err = seeder.Import(cmd.Context(), fixtures)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixture file (defaults to the built-in fixtures)")
	cmd.Flags().BoolVarP(&destroy, "destroy", "d", false, "delete all data instead of importing")
	return cmd
}
