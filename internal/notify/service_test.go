package notify_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"veld/internal/config"
	"veld/internal/notify"
)

func TestNewServiceReturnsNoopWhenWebhookMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.WebhookURL = ""
	svc := notify.NewService(&cfg)
	if err := svc.Test(context.Background()); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := svc.EventDelivered(context.Background(), "class_prepared", "demo"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestWebhookServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(svc notify.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "event delivered",
			send: func(svc notify.Service) error {
				return svc.EventDelivered(context.Background(), "class_prepared", "class Demo ready")
			},
			expectTitle:   "Veld - Runtime Event",
			expectMessage: "class_prepared: class Demo ready",
			expectTags:    "veld,event,class_prepared",
		},
		{
			name: "sensor alert",
			send: func(svc notify.Service) error {
				return svc.SensorAlert(context.Background(), "heap-usage", 900, 800)
			},
			expectTitle:    "Veld - Memory Pressure",
			expectMessage:  "Sensor heap-usage tripped: 900 bytes used, threshold 800",
			expectTags:     "veld,sensor,heap-usage",
			expectPriority: "high",
		},
		{
			name: "gc cycle",
			send: func(svc notify.Service) error {
				return svc.GCCycle(context.Background(), "explicit", 4096, 1500*time.Microsecond)
			},
			expectTitle:   "Veld - GC Cycle",
			expectMessage: "GC (explicit): freed 4096 bytes, paused 1.5ms",
			expectTags:    "veld,gc,explicit",
		},
		{
			name: "test",
			send: func(svc notify.Service) error {
				return svc.Test(context.Background())
			},
			expectTitle:    "Veld - Test",
			expectMessage:  "Notification channel test",
			expectTags:     "veld,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.WebhookURL = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notify.NewService(&cfg)
			if err := tc.send(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestWebhookServiceSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic not found", http.StatusNotFound)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.WebhookURL = server.URL
	svc := notify.NewService(&cfg)
	if err := svc.Test(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx webhook response")
	}
}
