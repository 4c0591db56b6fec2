package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mwantia/objectstore"
	"github.com/mwantia/objectstore/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Log.Level != "INFO" {
		t.Fatalf("Log.Level = %q, want %q", cfg.Log.Level, "INFO")
	}
	if cfg.Metrics.Enabled {
		t.Fatal("Metrics.Enabled = true, want default false")
	}
	if len(cfg.Routes) != 2 {
		t.Fatalf("Routes length = %d, want 2", len(cfg.Routes))
	}
	if cfg.Routes[0].Prefix != "s3://" || cfg.Routes[0].Type != TypeS3 {
		t.Fatalf("Routes[0] = %+v, want s3:// -> s3", cfg.Routes[0])
	}
	if cfg.Routes[1].Prefix != "" || cfg.Routes[1].Type != TypeLocal {
		t.Fatalf("Routes[1] = %+v, want default -> local", cfg.Routes[1])
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate default config: %v", err)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("OBJECTSTORE_LOG_LEVEL", "debug")
	t.Setenv("OBJECTSTORE_S3_ENDPOINT", "localhost:9000")
	t.Setenv("OBJECTSTORE_S3_ACCESS_KEY", "minio")
	t.Setenv("OBJECTSTORE_S3_SECRET_KEY", "minio123")
	t.Setenv("OBJECTSTORE_S3_SECURE", "true")
	t.Setenv("OBJECTSTORE_S3_REGION", "eu-central-1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Fatalf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}

	s3 := cfg.Routes[0].S3
	if s3 == nil {
		t.Fatal("Routes[0].S3 = nil, want overrides")
	}
	if s3.Endpoint != "localhost:9000" {
		t.Fatalf("S3.Endpoint = %q, want %q", s3.Endpoint, "localhost:9000")
	}
	if s3.AccessKey != "minio" || s3.SecretKey != "minio123" {
		t.Fatalf("S3 credentials = %q/%q, want overrides", s3.AccessKey, s3.SecretKey)
	}
	if !s3.Secure {
		t.Fatal("S3.Secure = false, want true")
	}
	if s3.Region != "eu-central-1" {
		t.Fatalf("S3.Region = %q, want %q", s3.Region, "eu-central-1")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "objectstore.yaml")
	content := `
log:
  level: warn
  json: true
metrics:
  enabled: true
routes:
  - prefix: "memory://"
    type: memory
  - prefix: "sqlite://"
    type: sql
    sql:
      driver: sqlite
      dsn: ":memory:"
  - prefix: ""
    type: local
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.Level != "warn" || !cfg.Log.JSON {
		t.Fatalf("Log = %+v, want warn/json", cfg.Log)
	}
	if !cfg.Metrics.Enabled {
		t.Fatal("Metrics.Enabled = false, want true")
	}
	if len(cfg.Routes) != 3 {
		t.Fatalf("Routes length = %d, want 3 (file replaces defaults)", len(cfg.Routes))
	}
	if cfg.Routes[1].SQL == nil || cfg.Routes[1].SQL.DSN != ":memory:" {
		t.Fatalf("Routes[1].SQL = %+v, want sqlite :memory:", cfg.Routes[1].SQL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load of missing file succeeded, want error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"unknown type", func(c *Config) { c.Routes[0].Type = "ftp" }},
		{"duplicate prefix", func(c *Config) { c.Routes[1].Prefix = c.Routes[0].Prefix }},
		{"sql without dsn", func(c *Config) { c.Routes[0] = RouteConfig{Prefix: "sqlite://", Type: TypeSQL} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			if err := cfg.Validate(); !errors.Is(err, objectstore.ErrConfiguration) {
				t.Fatalf("Validate error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	ctx := t.Context()
	cfg := &Config{
		Log:     LogConfig{Level: "ERROR"},
		Metrics: MetricsConfig{Enabled: true},
		Routes: []RouteConfig{
			{Prefix: "memory://", Type: TypeMemory},
			{Prefix: "", Type: TypeLocal},
		},
	}

	reg := prometheus.NewRegistry()
	router, err := cfg.Build(ctx, WithRegisterer(reg), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	routes := router.Routes()
	if len(routes) != 1 || routes[0].Prefix != "memory://" {
		t.Fatalf("Routes = %+v, want single memory:// route", routes)
	}

	if err := router.Put(ctx, "memory://bucket/key", []byte("value")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	local := filepath.Join(t.TempDir(), "file.txt")
	if err := router.Put(ctx, local, []byte("value")); err != nil {
		t.Fatalf("Put to default route: %v", err)
	}
	if _, err := os.Stat(local); err != nil {
		t.Fatalf("default route did not write to disk: %v", err)
	}

	got, err := testutil.GatherAndCount(reg, "objectstore_operations_total")
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got != 2 {
		t.Fatalf("operations_total series = %d, want 2", got)
	}
}

func TestBuildReadOnly(t *testing.T) {
	cfg := &Config{
		Routes: []RouteConfig{
			{Prefix: "memory://", Type: TypeMemory, ReadOnly: true},
		},
	}

	router, err := cfg.Build(t.Context(), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if err := router.Put(t.Context(), "memory://bucket/key", []byte("x")); !errors.Is(err, objectstore.ErrReadOnly) {
		t.Fatalf("Put error = %v, want ErrReadOnly", err)
	}
}

func TestBuildInvalid(t *testing.T) {
	cfg := Default()
	cfg.Routes = append(cfg.Routes, RouteConfig{Prefix: "x://", Type: "unknown"})

	if _, err := cfg.Build(t.Context()); !errors.Is(err, objectstore.ErrConfiguration) {
		t.Fatalf("Build error = %v, want ErrConfiguration", err)
	}
}
