// Package dbusapi exports the AniMe controller on the system bus.
package dbusapi

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/godbus/dbus/v5"
	log "github.com/s00500/env_logger"

	anime "github.com/rogtools/go-anime"
	"github.com/rogtools/go-anime/internal/config"
)

const (
	BusName   = "org.asuslinux.Daemon"
	Path      = dbus.ObjectPath("/org/asuslinux/Anime")
	Interface = "org.asuslinux.Anime"
)

// State is the wire form of the device state returned by DeviceState and
// sent with NotifyDeviceState.
type State struct {
	DisplayEnabled   bool
	Brightness       byte
	BuiltinsEnabled  bool
	Boot             byte
	Awake            byte
	Sleep            byte
	Shutdown         byte
	OffWhenUnplugged bool
	OffWhenSuspended bool
	OffWhenLidClosed bool
}

// Anime is the exported object. Every setter persists the change to the
// configuration file and emits NotifyDeviceState.
type Anime struct {
	ctrl *anime.Controller
	conn *dbus.Conn

	mu       sync.Mutex
	conf     *config.Config
	confPath string
}

func New(ctrl *anime.Controller, conf *config.Config, confPath string) *Anime {
	return &Anime{ctrl: ctrl, conf: conf, confPath: confPath}
}

// Export registers the object on conn and claims the daemon's bus name.
func (a *Anime) Export(conn *dbus.Conn) error {
	a.conn = conn
	if err := conn.Export(a, Path, Interface); err != nil {
		return fmt.Errorf("export %s: %w", Path, err)
	}
	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request name %s: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner && reply != dbus.RequestNameReplyAlreadyOwner {
		return fmt.Errorf("name %s already taken", BusName)
	}
	return nil
}

// Replace swaps in a configuration read from disk. It reports false when
// conf matches the current one, which is the case after the object saved
// its own change.
func (a *Anime) Replace(conf *config.Config) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if reflect.DeepEqual(a.conf, conf) {
		return false
	}
	a.conf = conf
	return true
}

func dbusErr(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	return dbus.MakeFailedError(err)
}

// update applies f to the configuration, saves it and signals listeners.
func (a *Anime) update(f func(c *config.Config)) {
	a.mu.Lock()
	f(a.conf)
	if a.confPath != "" {
		if err := config.Save(a.confPath, a.conf); err != nil {
			log.Warnf("Could not save config: %v", err)
		}
	}
	st := a.state()
	a.mu.Unlock()

	if a.conn != nil {
		if err := a.conn.Emit(Path, Interface+".NotifyDeviceState", st); err != nil {
			log.Debugf("Emit NotifyDeviceState: %v", err)
		}
	}
}

func (a *Anime) state() State {
	return State{
		DisplayEnabled:   a.conf.DisplayEnabled,
		Brightness:       byte(a.conf.Brightness),
		BuiltinsEnabled:  a.conf.BuiltinsEnabled,
		Boot:             byte(a.conf.Builtins.Boot),
		Awake:            byte(a.conf.Builtins.Awake),
		Sleep:            byte(a.conf.Builtins.Sleep),
		Shutdown:         byte(a.conf.Builtins.Shutdown),
		OffWhenUnplugged: a.conf.OffWhenUnplugged,
		OffWhenSuspended: a.conf.OffWhenSuspended,
		OffWhenLidClosed: a.conf.OffWhenLidClosed,
	}
}

// Write shows a raw frame, stopping any running sequence.
func (a *Anime) Write(data []byte) *dbus.Error {
	fb, err := anime.FrameBufferFromBytes(a.ctrl.Session().Variant(), data)
	if err != nil {
		return dbusErr(err)
	}
	return dbusErr(a.ctrl.Write(fb))
}

func (a *Anime) SetBrightness(b byte) *dbus.Error {
	if err := a.ctrl.SetBrightness(anime.Brightness(b)); err != nil {
		return dbusErr(err)
	}
	a.update(func(c *config.Config) { c.Brightness = anime.Brightness(b) })
	return nil
}

func (a *Anime) SetBuiltinsEnabled(on bool) *dbus.Error {
	if err := a.ctrl.SetBuiltinsEnabled(on); err != nil {
		return dbusErr(err)
	}
	a.update(func(c *config.Config) {
		c.BuiltinsEnabled = on
		c.DisplayEnabled = on
	})
	return nil
}

func (a *Anime) SetBuiltinAnimations(boot, awake, sleep, shutdown byte) *dbus.Error {
	b := anime.Builtins{
		Boot:     anime.BootAnim(boot),
		Awake:    anime.AwakeAnim(awake),
		Sleep:    anime.SleepAnim(sleep),
		Shutdown: anime.ShutdownAnim(shutdown),
	}
	if err := a.ctrl.SetBuiltinAnimations(b); err != nil {
		return dbusErr(err)
	}
	a.update(func(c *config.Config) { c.Builtins = b })
	return nil
}

func (a *Anime) SetEnableDisplay(on bool) *dbus.Error {
	if err := a.ctrl.SetState(on); err != nil {
		return dbusErr(err)
	}
	a.update(func(c *config.Config) { c.DisplayEnabled = on })
	return nil
}

func (a *Anime) SetBrightnessScale(f float64) *dbus.Error {
	if err := a.ctrl.SetBrightnessScale(f); err != nil {
		return dbusErr(err)
	}
	a.update(func(c *config.Config) { c.BrightnessScale = f })
	return nil
}

func (a *Anime) setPolicy(f func(p *anime.Policy)) {
	p := a.ctrl.Policy()
	f(&p)
	a.ctrl.SetPolicy(p)
	a.update(func(c *config.Config) {
		c.OffWhenUnplugged = p.OffWhenUnplugged
		c.OffWhenSuspended = p.OffWhenSuspended
		c.OffWhenLidClosed = p.OffWhenLidClosed
	})
}

func (a *Anime) SetOffWhenUnplugged(on bool) *dbus.Error {
	a.setPolicy(func(p *anime.Policy) { p.OffWhenUnplugged = on })
	return nil
}

func (a *Anime) SetOffWhenSuspended(on bool) *dbus.Error {
	a.setPolicy(func(p *anime.Policy) { p.OffWhenSuspended = on })
	return nil
}

func (a *Anime) SetOffWhenLidClosed(on bool) *dbus.Error {
	a.setPolicy(func(p *anime.Policy) { p.OffWhenLidClosed = on })
	return nil
}

// RunMainLoop restarts the system sequence, or stops whatever is running.
func (a *Anime) RunMainLoop(start bool) *dbus.Error {
	if start {
		a.ctrl.RunCachedSequence(anime.TriggerSystem)
		return nil
	}
	return dbusErr(a.ctrl.Sequencer().Stop())
}

func (a *Anime) DeviceState() (State, *dbus.Error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state(), nil
}
