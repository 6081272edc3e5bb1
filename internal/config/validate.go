package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateHeap(); err != nil {
		return err
	}
	if err := c.validateMaintenance(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateHeap() error {
	if c.Heap.LimitMiB <= 0 {
		return errors.New("heap.limit_mib must be positive")
	}
	if c.Heap.ThreadSlots <= 0 {
		return errors.New("heap.thread_slots must be positive")
	}
	return nil
}

func (c *Config) validateMaintenance() error {
	if c.Maintenance.StringTableSweepThreshold <= 0 {
		return errors.New("maintenance.string_table_sweep_threshold must be positive")
	}
	if c.Maintenance.SymbolTableSweepThreshold <= 0 {
		return errors.New("maintenance.symbol_table_sweep_threshold must be positive")
	}
	if c.Maintenance.WeakTableUnlinkThreshold <= 0 {
		return errors.New("maintenance.weak_table_unlink_threshold must be positive")
	}
	if c.Maintenance.HeapUsagePercent < 1 || c.Maintenance.HeapUsagePercent > 100 {
		return errors.New("maintenance.heap_usage_percent must be between 1 and 100")
	}
	if c.Maintenance.HostMinAvailableMiB < 0 {
		return errors.New("maintenance.host_min_available_mib must not be negative")
	}
	if c.Maintenance.SensorCooldownSeconds < 0 {
		return errors.New("maintenance.sensor_cooldown_seconds must not be negative")
	}
	if c.Maintenance.GCRecordLimit <= 0 {
		return errors.New("maintenance.gc_record_limit must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.WebhookURL != "" && c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive when a webhook is configured")
	}
	return nil
}
