// Package server implements the `server` CLI command: load the HCL
// configuration, open the metadata database, build one Etherpad client per
// configured tenant domain, mount the HTTP API and run the inactivity job.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/OPEN-ENT-NG/collaborative-editor/internal/api"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/auth"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/cmd/base"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/config"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/explorer"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/inactivity"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/notifications"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/pads"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/search"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/server"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/database"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/etherpad"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/models"
)

const defaultAddr = ":8090"

type Command struct {
	*base.Command

	flagConfig string
}

func (c *Command) Synopsis() string {
	return "Run the collaborative editor server"
}

func (c *Command) Help() string {
	return `Usage: collaborative-editor server -config=<path>

  Starts the collaborative editor HTTP API and its background jobs.

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet("server")
	f.StringVar(&c.flagConfig, "config", "config.hcl",
		"Path to the HCL configuration file")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := config.NewConfig(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}

	log := c.Log
	if cfg.LogLevel != "" {
		log = hclog.New(&hclog.LoggerOptions{
			Name:  c.Log.Name(),
			Level: hclog.LevelFromString(cfg.LogLevel),
		})
	}

	db, err := database.Connect(database.Config{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		Path:     cfg.Database.Path,
	}, log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error connecting to database: %v", err))
		return 1
	}
	if err := db.AutoMigrate(models.ModelsToAutoMigrate()...); err != nil {
		c.UI.Error(fmt.Sprintf("error migrating database: %v", err))
		return 1
	}

	targets, err := cfg.Etherpad.Targets()
	if err != nil {
		c.UI.Error(fmt.Sprintf("error building etherpad targets: %v", err))
		return 1
	}
	registry, err := etherpad.NewRegistry(targets, log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error building etherpad clients: %v", err))
		return 1
	}

	padsSvc := pads.NewService(db, log.Named("pads"))
	timeline := &notifications.LogNotifier{Logger: log.Named("timeline")}
	srv := server.Server{
		Registry:   registry,
		Pads:       padsSvc,
		Authorizer: auth.NewDBAuthorizer(db),
		Explorer:   &explorer.LogNotifier{Logger: log.Named("explorer")},
		Timeline:   timeline,
		Search:     search.NewEvents(padsSvc, log.Named("search")),
		Config:     cfg,
		DB:         db,
		Logger:     log,
	}

	mux := http.NewServeMux()
	mux.Handle("/api/pads", api.PadsHandler(srv))
	mux.Handle("/api/pads/", api.PadsHandler(srv))
	mux.Handle("/api/sessions", api.SessionsHandler(srv))
	mux.Handle("/api/sessions/", api.SessionsHandler(srv))
	mux.Handle("/api/shares/", api.SharesHandler(srv))
	mux.Handle("/api/search", api.SearchHandler(srv))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Inactivity == nil || cfg.Inactivity.Enabled == nil || *cfg.Inactivity.Enabled {
		job := c.inactivityJob(cfg, padsSvc, registry, timeline, log)
		go func() {
			if err := job.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("inactivity job exited", "error", err)
			}
		}()
	}

	addr := defaultAddr
	if cfg.Server != nil && cfg.Server.Addr != "" {
		addr = cfg.Server.Addr
	}
	httpServer := &http.Server{
		Addr:    addr,
		Handler: auth.Middleware(mux),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		c.UI.Error(fmt.Sprintf("server error: %v", err))
		return 1
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		c.UI.Error(fmt.Sprintf("error shutting down: %v", err))
		return 1
	}
	return 0
}

func (c *Command) inactivityJob(
	cfg *config.Config,
	padsSvc *pads.Service,
	registry *etherpad.Registry,
	notifier notifications.Notifier,
	log hclog.Logger,
) *inactivity.Job {
	jobCfg := inactivity.Config{}
	if cfg.Inactivity != nil {
		jobCfg.DaysWithoutActivity = cfg.Inactivity.DaysWithoutActivity
		jobCfg.RecurringNotificationDays = cfg.Inactivity.RecurringNotificationDays
		if cfg.Inactivity.Interval != "" {
			// Validated at config load time.
			d, _ := time.ParseDuration(cfg.Inactivity.Interval)
			jobCfg.Interval = d
		}
	}
	return inactivity.NewJob(padsSvc, registry, notifier, jobCfg,
		log.Named("inactivity"))
}
