package builder

import (
	"context"
	"errors"
)

// Notice severities.
const (
	NoticeInfo  = "info"
	NoticeError = "error"
)

// Notice is a user-visible message for the surrounding shell, for example a
// toast after a failed save.
type Notice struct {
	Level    string `json:"level"`
	Message  string `json:"message"`
	LayoutID string `json:"layout_id,omitempty"`
	Err      error  `json:"-"`
}

// Notifier reports notices to the shell.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, notice Notice)

// Notify satisfies Notifier.
func (f NotifierFunc) Notify(ctx context.Context, notice Notice) {
	if f != nil {
		f(ctx, notice)
	}
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notice) {}

// NotificationsClient defines the minimal interface needed from go-notifications (or similar).
type NotificationsClient interface {
	PublishLayoutEvent(ctx context.Context, event ChangeEvent) error
}

// NotificationsHook forwards change events to an external notifications client.
type NotificationsHook struct {
	Client  NotificationsClient
	Channel string
}

// LayoutChanged publishes events to the configured notifications client.
func (h *NotificationsHook) LayoutChanged(ctx context.Context, event ChangeEvent) error {
	if h == nil || h.Client == nil {
		return nil
	}
	return h.Client.PublishLayoutEvent(ctx, event)
}

type noopChangeHook struct{}

func (noopChangeHook) LayoutChanged(context.Context, ChangeEvent) error { return nil }

// ChangeHooks fans a change out to every hook. All hooks run; their errors
// are joined.
type ChangeHooks []ChangeHook

// LayoutChanged satisfies ChangeHook.
func (hooks ChangeHooks) LayoutChanged(ctx context.Context, event ChangeEvent) error {
	var errs error
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		errs = errors.Join(errs, hook.LayoutChanged(ctx, event))
	}
	return errs
}
