package kernel

import (
	"context"
	"fmt"

	"veld/internal/journal"
	"veld/internal/maintenance"
)

// deliverySink is the worker's event sink: deliveries go out through the
// notification service and are recorded in the journal.
type deliverySink struct {
	kernel *Kernel
}

func (s *deliverySink) DeliverEvent(ctx context.Context, ev *maintenance.DeferredEvent) error {
	k := s.kernel
	if err := k.notifier.EventDelivered(ctx, string(ev.Kind()), ev.Message()); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if err := k.journal.RecordDelivery(ctx, journal.Delivery{
		EventID:    ev.ID(),
		Kind:       string(ev.Kind()),
		Message:    ev.Message(),
		ObjectRefs: ev.ObjectCount(),
		CodeRefs:   ev.CodeUnitCount(),
	}); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}
