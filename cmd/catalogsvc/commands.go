package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/JonMunkholm/catalogsvc/internal/admin"
	"github.com/JonMunkholm/catalogsvc/internal/config"
	"github.com/JonMunkholm/catalogsvc/internal/core"
	"github.com/JonMunkholm/catalogsvc/internal/logging"
	"github.com/JonMunkholm/catalogsvc/internal/store"
	"github.com/JonMunkholm/catalogsvc/internal/web"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

// loadEnv reads the env file if it exists (Overload overwrites existing env vars).
func loadEnv(c *cli.Context) error {
	path := c.String("env-file")
	if err := godotenv.Overload(path); err != nil {
		if c.IsSet("env-file") {
			return fmt.Errorf("load %s: %w", path, err)
		}
		slog.Debug("no .env file found, using environment variables")
	}
	return nil
}

// setup loads the configuration, installs the logger and opens the store.
func setup(c *cli.Context) (*config.Config, store.Backend, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	backend, closeFn, err := store.Open(c.Context, cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, backend, closeFn, nil
}

func serveCommand(c *cli.Context) error {
	cfg, backend, closeFn, err := setup(c)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := backend.Migrate(c.Context); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"driver", cfg.Database.Driver,
		"db_max_conns", cfg.Database.MaxConns,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"upload_max_file_size", humanize.Bytes(uint64(cfg.Upload.MaxFileSize)),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	service := core.NewService(backend, cfg)
	server := web.NewServer(service, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-sigCh:
		slog.Info("shutting down...", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if status := service.UploadLimiterStatus(); status.Active > 0 {
		slog.Info("waiting for uploads to complete", "active", status.Active)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}

func migrateCommand(c *cli.Context) error {
	_, backend, closeFn, err := setup(c)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := backend.Migrate(c.Context); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	slog.Info("schema up to date")
	return nil
}

func importCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("import expects exactly one FILE argument", 2)
	}
	kind := core.EntityKind(c.String("kind"))
	if kind != core.KindCatalog && kind != core.KindProduct {
		return cli.Exit(fmt.Sprintf("unknown kind %q: want catalogs or products", kind), 2)
	}

	cfg, backend, closeFn, err := setup(c)
	if err != nil {
		return err
	}
	defer closeFn()
	if err := backend.Migrate(c.Context); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	path := c.Args().First()
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	up := core.Upload{
		FileName:    filepath.Base(path),
		ContentType: c.String("content-type"),
		Size:        info.Size(),
		Body:        f,
	}
	opts := core.ImportOptions{RaiseOnError: c.Bool("raise-on-error")}

	service := core.NewService(backend, cfg)
	var message string
	switch kind {
	case core.KindCatalog:
		var res *core.ImportResult[core.Catalog]
		res, err = service.ImportCatalogs(c.Context, up, opts)
		if err == nil {
			message = res.Message()
		}
	case core.KindProduct:
		var res *core.ImportResult[core.Product]
		res, err = service.ImportProducts(c.Context, up, opts)
		if err == nil {
			message = res.Message()
		}
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("%s\n%v", core.FormatUserError(err), err), 1)
	}

	fmt.Fprintln(c.App.Writer, message)
	return nil
}

func resetCommand(c *cli.Context) error {
	_, backend, closeFn, err := setup(c)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := admin.ResetAll(c.Context, backend, c.Bool("yes")); err != nil {
		if errors.Is(err, admin.ErrNotConfirmed) {
			return cli.Exit("refusing to delete every record without --yes", 2)
		}
		return err
	}
	fmt.Fprintln(c.App.Writer, "catalogs and products reset")
	return nil
}
