package dashboard

import (
	"context"
	"errors"
)

// NotificationsClient is the minimal interface needed from a notifications
// service.
type NotificationsClient interface {
	PublishDashboardEvent(ctx context.Context, channel string, event ChangeEvent) error
}

// NotificationsHook forwards change events to an external notifications client.
// Reasons limits forwarding to the listed reasons; empty forwards everything.
type NotificationsHook struct {
	Client  NotificationsClient
	Channel string
	Reasons []string
}

// DocumentChanged publishes events to the configured notifications client.
func (h *NotificationsHook) DocumentChanged(ctx context.Context, event ChangeEvent) error {
	if h == nil || h.Client == nil || !h.accepts(event.Reason) {
		return nil
	}
	return h.Client.PublishDashboardEvent(ctx, h.Channel, event)
}

func (h *NotificationsHook) accepts(reason string) bool {
	if len(h.Reasons) == 0 {
		return true
	}
	for _, r := range h.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}

// MultiHook fans a change out to several hooks, joining their errors.
type MultiHook []ChangeHook

// DocumentChanged calls every hook even when an earlier one fails.
func (m MultiHook) DocumentChanged(ctx context.Context, event ChangeEvent) error {
	var errs []error
	for _, hook := range m {
		if hook == nil {
			continue
		}
		if err := hook.DocumentChanged(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type noopChangeHook struct{}

func (noopChangeHook) DocumentChanged(context.Context, ChangeEvent) error { return nil }
