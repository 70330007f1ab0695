package bimbridge

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("bimbridge", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Transport != "stdio" {
		t.Fatalf("transport = %q, want stdio", cfg.Transport)
	}
	if cfg.HTTPAddr != "localhost:8081" {
		t.Fatalf("http addr = %q", cfg.HTTPAddr)
	}
	if cfg.HostQueueSize != 64 || cfg.DocumentTitle != "Project1" || cfg.LogLevel != "info" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("BIMBRIDGE_MCP_HTTP_ADDR", "env-http")
	t.Setenv("BIMBRIDGE_MCP_ALLOWED_HOSTS", "bim.internal, cad.internal")
	t.Setenv("BIMBRIDGE_AUDIT_DB_PATH", "/tmp/env.db")

	fs := flag.NewFlagSet("bimbridge", flag.ContinueOnError)
	args := []string{"-transport", "http", "-http-addr", "flag-http", "-queue-size", "8"}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Transport != "http" || cfg.HTTPAddr != "flag-http" || cfg.HostQueueSize != 8 {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.AuditDBPath != "/tmp/env.db" {
		t.Fatalf("audit path = %q", cfg.AuditDBPath)
	}
	if len(cfg.AllowedHosts) != 2 || strings.TrimSpace(cfg.AllowedHosts[1]) != "cad.internal" {
		t.Fatalf("allowed hosts = %v", cfg.AllowedHosts)
	}
}

func TestParseConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
		want string
	}{
		{name: "transport", args: []string{"-transport", "grpc"}, want: "not supported"},
		{name: "queue size", args: []string{"-queue-size", "0"}, want: "queue size"},
		{name: "document", args: []string{"-document", " "}, want: "document title"},
		{name: "digest key", env: map[string]string{"BIMBRIDGE_AUDIT_DIGEST_KEY": "abcd"}, want: "digest key"},
		{name: "digest hex", env: map[string]string{"BIMBRIDGE_AUDIT_DIGEST_KEY": "zz"}, want: "decode digest key"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for key, value := range tc.env {
				t.Setenv(key, value)
			}
			_, err := ParseConfig(flag.NewFlagSet("bimbridge", flag.ContinueOnError), tc.args)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestNewDocument(t *testing.T) {
	doc, err := newDocument(" Tower ", "")
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	if doc.Title() != "Tower" || doc.Revision() != 1 {
		t.Fatalf("title %q revision %d", doc.Title(), doc.Revision())
	}
	levels := doc.Levels()
	if len(levels) != 2 || levels[0].Name != "Level 1" || levels[1].Name != "Level 2" {
		t.Fatalf("levels = %v", levels)
	}
}

func serveConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Transport:     "http",
		HTTPAddr:      "127.0.0.1:0",
		AuditDBPath:   filepath.Join(t.TempDir(), "audit.db"),
		HostVersion:   "2025",
		DocumentTitle: "Project1",
		HostQueueSize: 4,
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg := serveConfig(t)
	profile := filepath.Join(t.TempDir(), "timeouts.yaml")
	if err := os.WriteFile(profile, []byte("commands:\n  export_room_data: 3m\n"), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	cfg.TimeoutProfile = profile

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, zap.NewNop()) }()
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestServeRejectsUnknownProfileCommand(t *testing.T) {
	cfg := serveConfig(t)
	profile := filepath.Join(t.TempDir(), "timeouts.yaml")
	if err := os.WriteFile(profile, []byte("commands:\n  make_coffee: 1s\n"), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	cfg.TimeoutProfile = profile

	err := serve(context.Background(), cfg, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "make_coffee") {
		t.Fatalf("err = %v, want unknown command error", err)
	}
}
