// Package actionhandlers feeds system events into the AniMe controller.
package actionhandlers

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	log "github.com/s00500/env_logger"
)

const (
	logindService   = "org.freedesktop.login1"
	logindPath      = dbus.ObjectPath("/org/freedesktop/login1")
	logindInterface = "org.freedesktop.login1.Manager"

	signalPrepareForSleep    = logindInterface + ".PrepareForSleep"
	signalPrepareForShutdown = logindInterface + ".PrepareForShutdown"
	propLidClosed            = logindInterface + ".LidClosed"
	propOnExternalPower      = logindInterface + ".OnExternalPower"
)

// DefaultPollInterval is how often the lid and power properties are read.
// logind does not signal changes to them.
const DefaultPollInterval = 2 * time.Second

// ConnectSystemBus opens the bus used by Run. Tests replace it.
var ConnectSystemBus = dbus.ConnectSystemBus

// SystemEvents receives power and lid changes. anime.Controller implements it.
type SystemEvents interface {
	OnSleep(sleeping bool)
	OnShutdown(shuttingDown bool)
	OnLid(closed bool)
	OnPower(pluggedIn bool)
}

type propertyGetter interface {
	GetProperty(p string) (dbus.Variant, error)
}

// Logind forwards logind's sleep and shutdown signals and polls lid and
// external power state.
type Logind struct {
	PollInterval time.Duration

	conn    *dbus.Conn
	handler SystemEvents

	lidClosed *bool
	plugged   *bool
}

// NewLogind creates a watcher for h. Nothing is connected until Run.
func NewLogind(h SystemEvents) *Logind {
	return &Logind{PollInterval: DefaultPollInterval, handler: h}
}

// Run connects to the system bus and dispatches events until ctx is done.
func (l *Logind) Run(ctx context.Context) error {
	conn, err := ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("connect system bus: %w", err)
	}
	l.conn = conn
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warnln("Error closing D-Bus connection:", err)
		}
	}()

	for _, member := range []string{"PrepareForSleep", "PrepareForShutdown"} {
		if err := conn.AddMatchSignal(
			dbus.WithMatchInterface(logindInterface),
			dbus.WithMatchMember(member),
			dbus.WithMatchObjectPath(logindPath),
		); err != nil {
			return fmt.Errorf("match %s: %w", member, err)
		}
	}
	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	obj := conn.Object(logindService, logindPath)
	l.poll(obj)

	ticker := time.NewTicker(l.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return fmt.Errorf("system bus closed")
			}
			l.handleSignal(sig)
		case <-ticker.C:
			l.poll(obj)
		}
	}
}

func (l *Logind) handleSignal(sig *dbus.Signal) {
	if sig == nil || len(sig.Body) == 0 {
		return
	}
	start, ok := sig.Body[0].(bool)
	if !ok {
		return
	}
	switch sig.Name {
	case signalPrepareForSleep:
		log.Debugf("Logind PrepareForSleep(%v)", start)
		l.handler.OnSleep(start)
	case signalPrepareForShutdown:
		log.Debugf("Logind PrepareForShutdown(%v)", start)
		l.handler.OnShutdown(start)
	}
}

// poll reads the lid and power properties and reports changes. The first
// read only records the state.
func (l *Logind) poll(obj propertyGetter) {
	if closed, err := boolProperty(obj, propLidClosed); err == nil {
		if l.lidClosed != nil && *l.lidClosed != closed {
			l.handler.OnLid(closed)
		}
		l.lidClosed = &closed
	}
	if plugged, err := boolProperty(obj, propOnExternalPower); err == nil {
		if l.plugged != nil && *l.plugged != plugged {
			l.handler.OnPower(plugged)
		}
		l.plugged = &plugged
	}
}

func boolProperty(obj propertyGetter, name string) (bool, error) {
	v, err := obj.GetProperty(name)
	if err != nil {
		return false, err
	}
	b, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%s is %s, not bool", name, v.Signature())
	}
	return b, nil
}
