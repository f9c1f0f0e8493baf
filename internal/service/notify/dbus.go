package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
)

// Freedesktop notification service coordinates.
const (
	notificationsDestination = "org.freedesktop.Notifications"
	notificationsInterface   = "org.freedesktop.Notifications"
	notificationsPath        = dbus.ObjectPath("/org/freedesktop/Notifications")

	signalActionInvoked      = notificationsInterface + ".ActionInvoked"
	signalNotificationClosed = notificationsInterface + ".NotificationClosed"

	// dismissAction is the key of the single notification button.
	dismissAction = "dismiss"
	// defaultAction is sent when the notification body is clicked.
	defaultAction = "default"
	// closedByUser is the NotificationClosed reason for a user dismissal.
	closedByUser = uint32(2)
	// urgencyCritical keeps the notification on screen until acted on.
	urgencyCritical = byte(2)
	// signalBuffer is the capacity of the signal channel.
	signalBuffer = 16
)

// DBus presents alerts as freedesktop notifications on the session bus.
type DBus struct {
	// appName is reported as the notification sender.
	appName string
	// icon is the freedesktop icon name.
	icon string
}

// NewDBus creates a notification presenter.
func NewDBus(appName string) *DBus {
	return &DBus{
		appName: appName,
		icon:    "alarm-clock",
	}
}

// Ping checks that a notification server answers on the session bus.
func (d *DBus) Ping(ctx context.Context) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}

	defer func() { _ = conn.Close() }()

	var capabilities []string

	err = conn.Object(notificationsDestination, notificationsPath).
		CallWithContext(ctx, notificationsInterface+".GetCapabilities", 0).
		Store(&capabilities)
	if err != nil {
		return fmt.Errorf("query notification server: %w", err)
	}

	return nil
}

// Present shows an urgent, resident notification with a Dismiss action.
func (d *DBus) Present(ctx context.Context, alert Alert, onDismiss func()) (Presentation, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w: %w", domain.ErrPresentationSuppressed, err)
	}

	err = conn.AddMatchSignalContext(ctx,
		dbus.WithMatchInterface(notificationsInterface),
		dbus.WithMatchObjectPath(notificationsPath),
	)
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("subscribe to notification signals: %w: %w", domain.ErrPresentationSuppressed, err)
	}

	signals := make(chan *dbus.Signal, signalBuffer)
	conn.Signal(signals)

	hints := map[string]dbus.Variant{
		"urgency":  dbus.MakeVariant(urgencyCritical),
		"resident": dbus.MakeVariant(true),
		"category": dbus.MakeVariant("alarm"),
	}

	var id uint32

	err = conn.Object(notificationsDestination, notificationsPath).CallWithContext(ctx,
		notificationsInterface+".Notify", 0,
		d.appName, uint32(0), d.icon, alert.Title, alert.Body,
		[]string{dismissAction, "Dismiss"}, hints, int32(0),
	).Store(&id)
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("send notification: %w: %w", domain.ErrPresentationSuppressed, err)
	}

	p := &dbusPresentation{
		conn: conn,
		id:   id,
		done: make(chan struct{}),
	}

	go p.listen(ctx, signals, onDismiss)

	logger.DebugKV(ctx, "Notification shown", "session_id", alert.SessionID, "notification_id", id)

	return p, nil
}

// dbusPresentation is a shown notification.
type dbusPresentation struct {
	conn *dbus.Conn
	id   uint32
	done chan struct{}
	once sync.Once
	err  error
}

// listen calls onDismiss when the user acts on the notification.
func (p *dbusPresentation) listen(ctx context.Context, signals <-chan *dbus.Signal, onDismiss func()) {
	ctx = context.WithoutCancel(ctx)

	for {
		select {
		case <-p.done:
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}

			if isDismissal(sig, p.id) {
				logger.InfoKV(ctx, "Notification dismissed by user", "notification_id", p.id)

				if onDismiss != nil {
					onDismiss()
				}

				return
			}
		}
	}
}

// isDismissal reports whether sig is the user dismissing notification id.
func isDismissal(sig *dbus.Signal, id uint32) bool {
	if sig == nil || len(sig.Body) < 2 {
		return false
	}

	if sigID, ok := sig.Body[0].(uint32); !ok || sigID != id {
		return false
	}

	switch sig.Name {
	case signalActionInvoked:
		action, _ := sig.Body[1].(string)

		return action == dismissAction || action == defaultAction
	case signalNotificationClosed:
		reason, _ := sig.Body[1].(uint32)

		return reason == closedByUser
	default:
		return false
	}
}

// Close withdraws the notification and drops the bus connection.
func (p *dbusPresentation) Close() error {
	p.once.Do(func() {
		close(p.done)

		call := p.conn.Object(notificationsDestination, notificationsPath).
			Call(notificationsInterface+".CloseNotification", 0, p.id)
		if call.Err != nil {
			p.err = fmt.Errorf("close notification: %w", call.Err)
		}

		_ = p.conn.Close()
	})

	return p.err
}
