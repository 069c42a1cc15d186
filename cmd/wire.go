package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lexhive/juris-cli/internal/adapters/cache/disk"
	"github.com/lexhive/juris-cli/internal/adapters/cache/memory"
	"github.com/lexhive/juris-cli/internal/adapters/docsink"
	tomlrepo "github.com/lexhive/juris-cli/internal/adapters/repo/toml"
	"github.com/lexhive/juris-cli/internal/adapters/tribunal"
	"github.com/lexhive/juris-cli/internal/application"
	"github.com/lexhive/juris-cli/internal/domain"
	"github.com/lexhive/juris-cli/internal/metrics"
	"github.com/lexhive/juris-cli/internal/ports"
)

type app struct {
	cfg      *viper.Viper
	profiles ports.ProfileRepository
	now      func() time.Time
}

// core is the wired remote access stack for one deployment profile. One
// core per process invocation; everything inside shares one collector.
type core struct {
	service *application.CaseService
	client  *tribunal.Client
	closers []io.Closer
}

func (c *core) Close() {
	for _, closer := range c.closers {
		_ = closer.Close()
	}
}

func wireApp() (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg := viper.New()
	cfg.SetEnvPrefix("JURIS")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault("log.level", "warn")
	cfg.SetDefault("cache.backend", "memory")
	cfg.SetDefault("cache.path", filepath.Join(homeDir, ".juris", "cache"))
	cfg.SetDefault("cache.ttl", time.Hour)
	cfg.SetDefault("cache.batch_ttl", 30*time.Minute)
	cfg.SetDefault("downloads.dir", filepath.Join(homeDir, ".juris", "downloads"))
	cfg.SetDefault("remote.max_concurrent", 10)
	cfg.SetDefault("remote.max_concurrent_downloads", 3)
	cfg.SetDefault("remote.requests_per_second", 0)

	repo, err := tomlrepo.NewRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire profile repository: %w", err)
	}

	setupLogging(cfg.GetString("log.level"))

	return &app{
		cfg:      cfg,
		profiles: repo,
		now:      time.Now,
	}, nil
}

// buildCore assembles the access layer for the profile: cache store,
// document sink, remote client and the deduplicating case service on top.
func (a *app) buildCore(profile domain.Profile) (*core, error) {
	if profile.BaseURL == "" {
		return nil, errors.New("profile has no base url")
	}

	collector := metrics.NewCollector()
	logger := slog.Default()
	clock := ports.SystemClock{}

	var store ports.CacheStore
	var closers []io.Closer
	switch backend := a.cfg.GetString("cache.backend"); backend {
	case "disk":
		diskStore, err := disk.Open(a.cfg.GetString("cache.path"))
		if err != nil {
			return nil, fmt.Errorf("open disk cache: %w", err)
		}
		store = diskStore
		closers = append(closers, diskStore)
	case "memory":
		store = memory.NewStore()
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}

	downloadDir := profile.DownloadDir
	if downloadDir == "" {
		downloadDir = a.cfg.GetString("downloads.dir")
	}

	client := tribunal.NewClient(tribunal.Config{
		BaseURL:                profile.BaseURL,
		Credential:             profile.Credential,
		MaxConcurrent:          a.cfg.GetInt64("remote.max_concurrent"),
		MaxConcurrentDownloads: a.cfg.GetInt64("remote.max_concurrent_downloads"),
		RequestsPerSecond:      a.cfg.GetFloat64("remote.requests_per_second"),
	}, collector, docsink.NewDirSink(downloadDir), clock, logger)

	service := application.NewCaseService(client, store, collector, clock, logger,
		application.WithBatchFetcher(client),
		application.WithTTLs(a.cfg.GetDuration("cache.ttl"), a.cfg.GetDuration("cache.batch_ttl")),
	)

	return &core{
		service: service,
		client:  client,
		closers: closers,
	}, nil
}

// resolveProfile picks the named profile, or the active one when no name
// was given.
func (a *app) resolveProfile(ctx context.Context, name string) (domain.Profile, error) {
	if name != "" {
		profile, err := a.profiles.GetByName(ctx, name)
		if err != nil {
			return domain.Profile{}, fmt.Errorf("load profile %q: %w", name, err)
		}
		return profile, nil
	}

	profile, err := a.profiles.Active(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return domain.Profile{}, errors.New("no active profile; add one with `juris profile add`")
		}
		return domain.Profile{}, fmt.Errorf("load active profile: %w", err)
	}

	return profile, nil
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
