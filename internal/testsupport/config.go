package testsupport

import (
	"path/filepath"
	"testing"

	"veld/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with a unique temp directory per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfgVal.Logging.Format = "console"
	cfgVal.Logging.Level = "debug"
	cfgVal.Notifications.WebhookURL = ""

	builder := &configBuilder{
		t:   t,
		cfg: &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return builder.cfg
}

// WithWebhookURL sets the notification webhook endpoint on the test config.
func WithWebhookURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.WebhookURL = url
	}
}

// WithSweepThresholds overrides every maintenance sweep threshold at once.
func WithSweepThresholds(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Maintenance.StringTableSweepThreshold = n
		b.cfg.Maintenance.SymbolTableSweepThreshold = n
		b.cfg.Maintenance.WeakTableUnlinkThreshold = n
	}
}

// WithHeapLimitMiB overrides the managed heap limit on the test config.
func WithHeapLimitMiB(mib int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Heap.LimitMiB = mib
	}
}
