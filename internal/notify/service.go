package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"veld/internal/config"
)

const userAgent = "Veld/0.1.0"

// Service is the outbound notification surface used by the maintenance
// subsystem's delivery channels.
type Service interface {
	EventDelivered(ctx context.Context, kind, message string) error
	SensorAlert(ctx context.Context, sensor string, used, threshold uint64) error
	GCCycle(ctx context.Context, cause string, freed int64, pause time.Duration) error
	Test(ctx context.Context) error
}

// NewService builds a notification service backed by an ntfy-compatible
// webhook when configured. When no webhook is configured, a noop
// implementation is returned.
func NewService(cfg *config.Config) Service {
	endpoint := strings.TrimSpace(cfg.Notifications.WebhookURL)
	if endpoint == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &webhookService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type webhookService struct {
	endpoint string
	client   *http.Client
}

func (s *webhookService) EventDelivered(ctx context.Context, kind, message string) error {
	data := payload{
		title:   "Veld - Runtime Event",
		message: fmt.Sprintf("%s: %s", kind, message),
		tags:    []string{"veld", "event", kind},
	}
	return s.send(ctx, data)
}

func (s *webhookService) SensorAlert(ctx context.Context, sensor string, used, threshold uint64) error {
	data := payload{
		title:    "Veld - Memory Pressure",
		message:  fmt.Sprintf("Sensor %s tripped: %d bytes used, threshold %d", sensor, used, threshold),
		tags:     []string{"veld", "sensor", sensor},
		priority: "high",
	}
	return s.send(ctx, data)
}

func (s *webhookService) GCCycle(ctx context.Context, cause string, freed int64, pause time.Duration) error {
	data := payload{
		title:   "Veld - GC Cycle",
		message: fmt.Sprintf("GC (%s): freed %d bytes, paused %s", cause, freed, pause.Round(time.Microsecond)),
		tags:    []string{"veld", "gc", cause},
	}
	return s.send(ctx, data)
}

func (s *webhookService) Test(ctx context.Context) error {
	data := payload{
		title:    "Veld - Test",
		message:  "Notification channel test",
		tags:     []string{"veld", "test"},
		priority: "low",
	}
	return s.send(ctx, data)
}

func (s *webhookService) send(ctx context.Context, data payload) error {
	if s == nil || s.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) EventDelivered(context.Context, string, string) error        { return nil }
func (noopService) SensorAlert(context.Context, string, uint64, uint64) error   { return nil }
func (noopService) GCCycle(context.Context, string, int64, time.Duration) error { return nil }
func (noopService) Test(context.Context) error                                  { return nil }
