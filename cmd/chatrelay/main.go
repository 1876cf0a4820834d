// Command chatrelay carries a conversation from one AI chat site to another.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/chatrelay/internal/adapters/driven/browser/cdp"
	"github.com/custodia-labs/chatrelay/internal/adapters/driven/config/file"
	"github.com/custodia-labs/chatrelay/internal/adapters/driven/export"
	"github.com/custodia-labs/chatrelay/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/chatrelay/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/chatrelay/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/chatrelay/internal/adapters/driving/cli"
	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
	"github.com/custodia-labs/chatrelay/internal/core/services"
	"github.com/custodia-labs/chatrelay/internal/logger"
	"github.com/custodia-labs/chatrelay/internal/sites"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// stores holds the storage ports chosen by settings.
type stores struct {
	transient driven.TransientStore
	history   driven.TransferLog
	closers   []func() error
}

// bootstrap wires every adapter into the services for one invocation.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	configStore, err := openConfig(opts.ConfigDir)
	if err != nil {
		return nil, nil, err
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("reading settings: %w", err)
	}
	if opts.BrowserURL != "" {
		settings.Browser.URL = opts.BrowserURL
	}
	logger.Debug("config: %s", configStore.Path())

	st, err := openStores(ctx, settings.Storage, opts.ConfigDir)
	if err != nil {
		return nil, nil, err
	}

	registry := sites.NewRegistry(settings.Transfer.WaitTimeout)
	agent := services.NewPageAgent(registry, st.transient)
	browser := cdp.NewLazy(settings.Browser.URL, agent)

	var exporter driven.Exporter
	if settings.Export.Enabled {
		exporter = export.NewFileExporter(settings.Export.Dir)
	}

	orchestrator := services.NewTransferOrchestrator(browser, registry, st.history, settings.Transfer)
	transfer := services.NewTransferService(browser, st.transient, exporter, st.history, orchestrator)

	cleanup := func() {
		var errs []error
		errs = append(errs, browser.Close())
		for _, c := range st.closers {
			errs = append(errs, c())
		}
		if err := errors.Join(errs...); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}

	return &cli.Services{
		Transfer:     transfer,
		Orchestrator: orchestrator,
		Messages:     services.NewMessageRouter(browser, transfer),
		Settings:     settingsService,
		Registry:     registry,
	}, cleanup, nil
}

// openStores opens the transient slot and the transfer log for backend.
func openStores(ctx context.Context, cfg domain.StorageSettings, configDir string) (*stores, error) {
	switch cfg.Backend {
	case domain.StorageMemory:
		return &stores{transient: memory.NewTransientStore(), history: memory.NewTransferLog()}, nil

	case domain.StorageRedis:
		rdb := redis.NewTransientStore(cfg.RedisAddr, redis.DefaultTTL)
		if err := rdb.Ping(ctx); err != nil {
			_ = rdb.Close()
			return nil, err
		}
		db, err := openSQLite(configDir)
		if err != nil {
			_ = rdb.Close()
			return nil, err
		}
		return &stores{
			transient: rdb,
			history:   db.TransferLog(),
			closers:   []func() error{rdb.Close, db.Close},
		}, nil

	default:
		db, err := openSQLite(configDir)
		if err != nil {
			return nil, err
		}
		return &stores{
			transient: db.TransientStore(),
			history:   db.TransferLog(),
			closers:   []func() error{db.Close},
		}, nil
	}
}

// openConfig opens the TOML config. When the file cannot be created the run
// carries on with defaults held in memory; a file that exists but does not
// parse is still an error.
func openConfig(configDir string) (driven.ConfigStore, error) {
	store, err := file.NewConfigStore(configDir)
	if err == nil {
		return store, nil
	}
	if errors.Is(err, fs.ErrPermission) {
		logger.Warn("config not writable, settings will not persist: %v", err)
		return memory.NewConfigStore(), nil
	}
	return nil, fmt.Errorf("loading config: %w", err)
}

func openSQLite(configDir string) (*sqlite.Store, error) {
	dataDir := ""
	if configDir != "" {
		dataDir = filepath.Join(configDir, "data")
	}
	db, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	logger.Debug("database: %s", db.Path())
	return db, nil
}
