// Package bimbridge parses bridge flags and runs the MCP command bridge.
package bimbridge

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/louisbranch/bimbridge/internal/bridge"
	"github.com/louisbranch/bimbridge/internal/host"
	entrypoint "github.com/louisbranch/bimbridge/internal/platform/cmd"
	"github.com/louisbranch/bimbridge/internal/platform/logging"
	"github.com/louisbranch/bimbridge/internal/platform/timeouts"
	"github.com/louisbranch/bimbridge/internal/platform/units"
	"github.com/louisbranch/bimbridge/internal/services/bim/domain"
	auditsqlite "github.com/louisbranch/bimbridge/internal/services/bim/storage/sqlite"
	"github.com/louisbranch/bimbridge/internal/services/mcp/service"
	"go.uber.org/zap"
)

// Config holds bridge command configuration.
type Config struct {
	Transport    string   `env:"BIMBRIDGE_MCP_TRANSPORT"     envDefault:"stdio"`
	HTTPAddr     string   `env:"BIMBRIDGE_MCP_HTTP_ADDR"     envDefault:"localhost:8081"`
	AllowedHosts []string `env:"BIMBRIDGE_MCP_ALLOWED_HOSTS" envSeparator:","`
	AuthToken    string   `env:"BIMBRIDGE_MCP_AUTH_TOKEN"`
	JWTSecret    string   `env:"BIMBRIDGE_MCP_JWT_SECRET"`
	JWTAudience  string   `env:"BIMBRIDGE_MCP_JWT_AUDIENCE"`

	AuditDBPath string `env:"BIMBRIDGE_AUDIT_DB_PATH"`
	// DigestKey is a hex-encoded 32-byte key for parameter digests.
	DigestKey      string `env:"BIMBRIDGE_AUDIT_DIGEST_KEY"`
	TimeoutProfile string `env:"BIMBRIDGE_TIMEOUT_PROFILE"`

	HostVersion   string `env:"BIMBRIDGE_HOST_VERSION"    envDefault:"2025"`
	DocumentTitle string `env:"BIMBRIDGE_DOCUMENT_TITLE"  envDefault:"Project1"`
	DocumentPath  string `env:"BIMBRIDGE_DOCUMENT_PATH"`
	HostQueueSize int    `env:"BIMBRIDGE_HOST_QUEUE_SIZE" envDefault:"64"`

	LogLevel  string `env:"BIMBRIDGE_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"BIMBRIDGE_LOG_FORMAT" envDefault:"json"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.AuditDBPath, "audit-db", cfg.AuditDBPath, "SQLite audit log path; empty disables auditing")
	fs.StringVar(&cfg.TimeoutProfile, "timeouts", cfg.TimeoutProfile, "YAML file with per-command timeout overrides")
	fs.StringVar(&cfg.DocumentTitle, "document", cfg.DocumentTitle, "Title of the document opened at start")
	fs.IntVar(&cfg.HostQueueSize, "queue-size", cfg.HostQueueSize, "Host thread queue depth")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: json or console")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration that cannot start the bridge.
func (c Config) Validate() error {
	if _, err := service.ParseTransportKind(c.Transport); err != nil {
		return err
	}
	if c.HostQueueSize <= 0 {
		return fmt.Errorf("host queue size must be positive, got %d", c.HostQueueSize)
	}
	if strings.TrimSpace(c.DocumentTitle) == "" {
		return errors.New("document title is required")
	}
	if _, err := c.digestKey(); err != nil {
		return err
	}
	return nil
}

func (c Config) digestKey() ([]byte, error) {
	text := strings.TrimSpace(c.DigestKey)
	if text == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("decode digest key: %w", err)
	}
	if len(key) != bridge.DigestKeySize {
		return nil, fmt.Errorf("digest key must be %d bytes, got %d", bridge.DigestKeySize, len(key))
	}
	return key, nil
}

// Run starts the bridge and blocks until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBridge, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		return serve(ctx, cfg, logger)
	})
}

func serve(ctx context.Context, cfg Config, logger *zap.Logger) error {
	transport, err := service.ParseTransportKind(cfg.Transport)
	if err != nil {
		return err
	}

	var profile timeouts.Profile
	if path := strings.TrimSpace(cfg.TimeoutProfile); path != "" {
		if profile, err = timeouts.LoadProfile(path); err != nil {
			return err
		}
	}

	key, err := cfg.digestKey()
	if err != nil {
		return err
	}
	digester, err := bridge.NewDigester(key)
	if err != nil {
		return err
	}

	opts := service.Options{Logger: logger.Named("mcp")}
	var recorder bridge.Recorder = bridge.NopRecorder{}
	if path := strings.TrimSpace(cfg.AuditDBPath); path != "" {
		store, err := auditsqlite.Open(path)
		if err != nil {
			return fmt.Errorf("open audit store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("close audit store", zap.Error(err))
			}
		}()
		recorder = store
		opts.History = store
	}

	app := host.NewApp(cfg.HostVersion)
	doc, err := newDocument(cfg.DocumentTitle, cfg.DocumentPath)
	if err != nil {
		return err
	}
	app.Open(doc)
	thread := host.NewThread(app, cfg.HostQueueSize, logger.Named("host"))
	defer thread.Close()

	router, err := domain.NewRouter(bridge.Options{
		Dispatcher: bridge.NewDispatcher(thread),
		Logger:     logger.Named("bridge"),
		Recorder:   recorder,
		Digester:   digester,
	})
	if err != nil {
		return err
	}
	if err := router.ApplyTimeouts(profile); err != nil {
		return err
	}

	server, err := service.New(router, opts)
	if err != nil {
		return err
	}
	logger.Info("bridge ready",
		zap.String("transport", string(transport)),
		zap.String("document", doc.Title()),
		zap.Int("commands", len(router.Commands())),
		zap.Bool("audit", opts.History != nil),
	)
	return server.Run(ctx, service.Config{
		Transport: transport,
		HTTP: service.HTTPConfig{
			Addr:         cfg.HTTPAddr,
			AllowedHosts: cfg.AllowedHosts,
			AuthToken:    cfg.AuthToken,
			JWTSecret:    cfg.JWTSecret,
			JWTAudience:  cfg.JWTAudience,
		},
	})
}

// newDocument returns an empty project with the two levels of the default
// template.
func newDocument(title, path string) (*host.Document, error) {
	doc := host.NewDocument(strings.TrimSpace(title), strings.TrimSpace(path))
	err := doc.Transact("create project", func() error {
		for _, level := range []struct {
			name      string
			elevation float64
		}{
			{name: "Level 1", elevation: 0},
			{name: "Level 2", elevation: 4000},
		} {
			if _, err := doc.Add(&host.Element{
				Kind:      host.KindLevel,
				Name:      level.name,
				Elevation: units.MMToFeet(level.elevation),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}
