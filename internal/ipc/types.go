package ipc

import "time"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// WorkerStatus mirrors the maintenance worker counters for IPC callers.
type WorkerStatus struct {
	QueueDepth     int    `json:"queue_depth"`
	InflightID     string `json:"inflight_id"`
	Iterations     uint64 `json:"iterations"`
	Delivered      uint64 `json:"delivered"`
	DispatchErrors uint64 `json:"dispatch_errors"`
}

// TableStatus summarizes one maintenance table.
type TableStatus struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
	Dead    int    `json:"dead"`
	Removed int64  `json:"removed"`
}

// StatusResponse represents combined kernel/worker status information.
type StatusResponse struct {
	PID           int              `json:"pid"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	HeapUsed      int64            `json:"heap_used"`
	HeapLimit     int64            `json:"heap_limit"`
	LiveObjects   int64            `json:"live_objects"`
	FreedObjects  int64            `json:"freed_objects"`
	Worker        WorkerStatus     `json:"worker"`
	Tables        []TableStatus    `json:"tables"`
	SensorTrips   map[string]int64 `json:"sensor_trips"`
	GCDelivered   int64            `json:"gc_delivered"`
	GCDropped     int64            `json:"gc_dropped"`
	JournalCount  int64            `json:"journal_count"`
	LockPath      string           `json:"lock_path"`
	LastError     string           `json:"last_error"`
}

// HistoryRequest fetches recent deliveries from the journal.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// DeliveryRecord is one journal row.
type DeliveryRecord struct {
	ID          int64     `json:"id"`
	EventID     string    `json:"event_id"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	ObjectRefs  int       `json:"object_refs"`
	CodeRefs    int       `json:"code_refs"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// HistoryResponse contains recent deliveries, newest first.
type HistoryResponse struct {
	Deliveries []DeliveryRecord `json:"deliveries"`
}

// InjectRequest enqueues a deferred event with synthetic payload references.
type InjectRequest struct {
	Kind        string `json:"kind"`
	Message     string `json:"message"`
	ObjectCount int    `json:"object_count"`
	CodeCount   int    `json:"code_count"`
}

// InjectResponse reports the enqueued event id.
type InjectResponse struct {
	EventID string `json:"event_id"`
}

// GCRequest triggers a stop-the-world collection.
type GCRequest struct {
	Cause string `json:"cause"`
}

// GCResponse reports collection results.
type GCResponse struct {
	FreedBytes  int64 `json:"freed_bytes"`
	PauseMicros int64 `json:"pause_micros"`
}

// ChurnRequest interns and retires synthetic table entries.
type ChurnRequest struct {
	Count int `json:"count"`
}

// ChurnResponse acknowledges the churn run.
type ChurnResponse struct {
	Interned int `json:"interned"`
}

// NotifyTestRequest pushes a test notification.
type NotifyTestRequest struct{}

// NotifyTestResponse reports test notification outcome.
type NotifyTestResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
