// Package alert raises freedesktop desktop notifications when a component
// fails fatally.
package alert

import (
	"fmt"

	"github.com/bryanchriswhite/qalttab/internal/logger"
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

const (
	notificationsService = "org.freedesktop.Notifications"
	notificationsPath    = "/org/freedesktop/Notifications"
	notifyMethod         = notificationsService + ".Notify"

	urgencyCritical byte = 2
)

// caller is the part of dbus.BusObject the alerter uses
type caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Alerter sends notifications over the session bus. A nil *Alerter is valid
// and does nothing.
type Alerter struct {
	conn    *dbus.Conn
	obj     caller
	appName string
	log     *zerolog.Logger
}

// New connects to the session bus
func New(appName string) (*Alerter, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	a := newAlerter(conn.Object(notificationsService, dbus.ObjectPath(notificationsPath)), appName)
	a.conn = conn
	return a, nil
}

func newAlerter(obj caller, appName string) *Alerter {
	return &Alerter{
		obj:     obj,
		appName: appName,
		log:     logger.WithComponent(logger.ComponentAlert),
	}
}

// Notify shows a critical notification and returns its id
func (a *Alerter) Notify(summary, body string) (uint32, error) {
	if a == nil {
		return 0, nil
	}

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(urgencyCritical),
	}
	call := a.obj.Call(notifyMethod, 0,
		a.appName,  // app_name
		uint32(0),  // replaces_id
		"",         // app_icon
		summary,    // summary
		body,       // body
		[]string{}, // actions
		hints,      // hints
		int32(-1),  // expire_timeout
	)

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("notify failed: %w", err)
	}
	return id, nil
}

// Fatal reports a fatal component failure. Delivery failures are only logged.
func (a *Alerter) Fatal(component string, cause error) {
	if a == nil {
		return
	}

	summary := fmt.Sprintf("%s: %s stopped", a.appName, component)
	if _, err := a.Notify(summary, cause.Error()); err != nil {
		a.log.Warn().Err(err).Str("failed_component", component).Msg("Could not send desktop alert")
		return
	}
	a.log.Debug().Str("failed_component", component).Msg("Desktop alert sent")
}

// Close releases the bus connection
func (a *Alerter) Close() error {
	if a == nil || a.conn == nil {
		return nil
	}
	return a.conn.Close()
}
