package config

const (
	defaultLogDir    = "~/.local/share/veld/logs"
	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultHeapLimitMiB = 512
	defaultThreadSlots  = 128

	defaultStringTableSweepThreshold = 256
	defaultSymbolTableSweepThreshold = 256
	defaultWeakTableUnlinkThreshold  = 128
	defaultHeapUsagePercent          = 85
	defaultHostMinAvailableMiB       = 256
	defaultSensorCooldownSeconds     = 30
	defaultGCRecordLimit             = 64

	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Heap: Heap{
			LimitMiB:    defaultHeapLimitMiB,
			ThreadSlots: defaultThreadSlots,
		},
		Maintenance: Maintenance{
			StringTableSweepThreshold: defaultStringTableSweepThreshold,
			SymbolTableSweepThreshold: defaultSymbolTableSweepThreshold,
			WeakTableUnlinkThreshold:  defaultWeakTableUnlinkThreshold,
			HeapUsagePercent:          defaultHeapUsagePercent,
			HostMinAvailableMiB:       defaultHostMinAvailableMiB,
			SensorCooldownSeconds:     defaultSensorCooldownSeconds,
			GCRecordLimit:             defaultGCRecordLimit,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
