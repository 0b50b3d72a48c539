package anime

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/s00500/env_logger"
)

// Trigger selects a cached sequence.
type Trigger int

const (
	TriggerSystem Trigger = iota
	TriggerBoot
	TriggerWake
	TriggerSleep
	TriggerShutdown
)

// Triggers lists every trigger.
var Triggers = []Trigger{TriggerSystem, TriggerBoot, TriggerWake, TriggerSleep, TriggerShutdown}

func (t Trigger) String() string {
	switch t {
	case TriggerBoot:
		return "boot"
	case TriggerWake:
		return "wake"
	case TriggerSleep:
		return "sleep"
	case TriggerShutdown:
		return "shutdown"
	}
	return "system"
}

// Policy controls how the display reacts to power events.
type Policy struct {
	OffWhenSuspended bool `yaml:"off_when_suspended" toml:"off_when_suspended"`
	OffWhenLidClosed bool `yaml:"off_when_lid_closed" toml:"off_when_lid_closed"`
	OffWhenUnplugged bool `yaml:"off_when_unplugged" toml:"off_when_unplugged"`
}

// Settings is everything the Controller needs from configuration.
type Settings struct {
	DisplayEnabled  bool
	Brightness      Brightness
	BuiltinsEnabled bool
	Builtins        Builtins
	BrightnessScale float64
	Policy          Policy
	// Actions per trigger, loaded relative to Dir
	Actions map[Trigger][]ActionLoader
	Dir     string
}

// Controller is the boundary of the engine towards the rest of the daemon.
// Direct writes always stop the sequencer first; cached sequences are
// replaced as a whole and never mutated while they may be running.
type Controller struct {
	session   *Session
	sequencer *Sequencer

	mu        sync.RWMutex
	sequences map[Trigger]*Sequence
	settings  Settings
}

// NewController wires a session to a fresh sequencer.
func NewController(s *Session, bus *Bus) *Controller {
	s.SetBus(bus)
	return &Controller{
		session:   s,
		sequencer: NewSequencer(s, bus),
		sequences: map[Trigger]*Sequence{},
		settings: Settings{
			DisplayEnabled:  true,
			Brightness:      BrightnessMed,
			BuiltinsEnabled: true,
			BrightnessScale: 1,
			Policy:          Policy{true, true, true},
		},
	}
}

// Session returns the device session.
func (c *Controller) Session() *Session {
	return c.session
}

// Sequencer returns the sequencer driving the session.
func (c *Controller) Sequencer() *Sequencer {
	return c.sequencer
}

// Write stops any running sequence and writes fb directly.
func (c *Controller) Write(fb FrameBuffer) error {
	if err := c.sequencer.Stop(); err != nil {
		return err
	}
	return c.session.WriteFrame(fb)
}

// SetState enables or disables the display. Disabling stops any run and
// blanks the display before returning. Enabling resumes the system sequence.
func (c *Controller) SetState(on bool) error {
	if !on {
		if err := c.blank(); err != nil {
			return err
		}
	} else if err := c.session.SetEnabled(true); err != nil {
		return err
	}
	c.mu.Lock()
	c.settings.DisplayEnabled = on
	c.mu.Unlock()

	if on {
		c.RunCachedSequence(TriggerSystem)
	}
	return nil
}

// blank stops any run, clears the panel and turns it off.
func (c *Controller) blank() error {
	if err := c.sequencer.Stop(); err != nil {
		return err
	}
	if err := c.session.WriteFrame(NewFrameBuffer(c.session.Variant())); err != nil {
		return err
	}
	return c.session.SetEnabled(false)
}

// SetBrightness sets the hardware brightness level.
func (c *Controller) SetBrightness(b Brightness) error {
	if err := c.session.SetBrightness(b); err != nil {
		return err
	}
	c.mu.Lock()
	c.settings.Brightness = b
	c.mu.Unlock()
	return nil
}

// SetBrightnessScale changes the write-time multiplier.
func (c *Controller) SetBrightnessScale(f float64) error {
	if err := c.session.SetBrightnessScale(f); err != nil {
		return err
	}
	c.mu.Lock()
	c.settings.BrightnessScale = f
	c.mu.Unlock()
	return nil
}

// SetBuiltinsEnabled hands the display to the builtin animations, stopping
// any custom sequence, or takes it back.
func (c *Controller) SetBuiltinsEnabled(on bool) error {
	if on {
		if err := c.sequencer.Stop(); err != nil {
			return err
		}
	}
	c.mu.RLock()
	b := c.settings.Brightness
	c.mu.RUnlock()
	if err := c.session.SetBuiltinAnimationsEnabled(on, b); err != nil {
		return err
	}
	c.mu.Lock()
	c.settings.BuiltinsEnabled = on
	c.settings.DisplayEnabled = on
	c.mu.Unlock()
	return nil
}

// SetBuiltinAnimations selects the builtin animation per stage.
func (c *Controller) SetBuiltinAnimations(b Builtins) error {
	if err := c.session.SetBuiltinAnimations(b); err != nil {
		return err
	}
	c.mu.Lock()
	c.settings.Builtins = b
	c.mu.Unlock()
	return nil
}

// DeviceState returns a snapshot of the display state.
func (c *Controller) DeviceState() DeviceState {
	return c.session.DeviceState()
}

// Sequence returns the cached sequence for a trigger, nil if none.
func (c *Controller) Sequence(t Trigger) *Sequence {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sequences[t]
}

// SetSequences replaces every cached sequence.
func (c *Controller) SetSequences(seqs map[Trigger]*Sequence) {
	next := make(map[Trigger]*Sequence, len(seqs))
	for t, s := range seqs {
		next[t] = s
	}
	c.mu.Lock()
	c.sequences = next
	c.mu.Unlock()
}

// RunCachedSequence starts the sequence for a trigger. The system sequence
// loops, all others run once. Failures are logged only, as the callers are
// power and lid observers that cannot act on them.
func (c *Controller) RunCachedSequence(t Trigger) {
	seq := c.Sequence(t)
	if seq == nil || len(seq.Actions) == 0 {
		log.Debugf("AniMe no %s sequence configured", t)
		return
	}
	if err := c.sequencer.Start(seq, t != TriggerSystem); err != nil {
		log.Errorf("AniMe could not run %s sequence: %v", t, err)
	}
}

// Reload applies settings to the device, rebuilds every cached sequence and
// plays the boot sequence when builtins are off. Handing the panel to the
// builtins or turning it off stops the running sequence first. Sequences that fail to
// build are dropped and reported together; the remaining ones are cached.
func (c *Controller) Reload(s Settings) error {
	v := c.session.Variant()
	seqs := make(map[Trigger]*Sequence, len(s.Actions))
	var errs []error
	for _, t := range Triggers {
		loaders := s.Actions[t]
		if len(loaders) == 0 {
			continue
		}
		seq, err := BuildSequence(t.String(), loaders, v, s.Dir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		seqs[t] = seq
	}
	c.SetSequences(seqs)

	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()

	if s.BuiltinsEnabled {
		// the builtins own the panel from here on
		if err := c.sequencer.Stop(); err != nil {
			return errors.Join(append(errs, err)...)
		}
	}
	if err := c.session.SetBrightnessScale(s.BrightnessScale); err != nil {
		errs = append(errs, err)
	}
	if err := c.session.SetBuiltinAnimations(s.Builtins); err != nil {
		return errors.Join(append(errs, err)...)
	}
	if err := c.session.SetBuiltinAnimationsEnabled(s.BuiltinsEnabled, s.Brightness); err != nil {
		return errors.Join(append(errs, err)...)
	}
	if !s.BuiltinsEnabled {
		if !s.DisplayEnabled {
			if err := c.blank(); err != nil {
				return errors.Join(append(errs, err)...)
			}
		} else {
			if err := c.session.SetEnabled(true); err != nil {
				return errors.Join(append(errs, err)...)
			}
			if c.Sequence(TriggerBoot) != nil {
				c.RunCachedSequence(TriggerBoot)
			} else {
				c.RunCachedSequence(TriggerSystem)
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("anime: reload: %w", errors.Join(errs...))
	}
	return nil
}

// Policy returns the power event policy.
func (c *Controller) Policy() Policy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Policy
}

// SetPolicy replaces the power event policy.
func (c *Controller) SetPolicy(p Policy) {
	c.mu.Lock()
	c.settings.Policy = p
	c.mu.Unlock()
}

func (c *Controller) policy() (Settings, Policy) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings, c.settings.Policy
}

// OnSleep reacts to the system preparing to suspend (true) or resuming.
func (c *Controller) OnSleep(sleeping bool) {
	s, p := c.policy()
	if !s.DisplayEnabled {
		return
	}
	if p.OffWhenSuspended {
		if err := c.session.SetEnabled(!sleeping); err != nil {
			log.Warnf("AniMe sleep: %v", err)
		}
	}
	if !s.BuiltinsEnabled {
		if sleeping {
			c.RunCachedSequence(TriggerSleep)
		} else {
			c.RunCachedSequence(TriggerWake)
		}
	}
}

// OnShutdown reacts to the system preparing to shut down (true) or the
// shutdown being cancelled.
func (c *Controller) OnShutdown(shuttingDown bool) {
	s, _ := c.policy()
	if !s.DisplayEnabled || s.BuiltinsEnabled {
		return
	}
	if shuttingDown {
		c.RunCachedSequence(TriggerShutdown)
	} else {
		c.RunCachedSequence(TriggerBoot)
	}
}

// OnLid turns the display off while the lid is closed.
func (c *Controller) OnLid(closed bool) {
	s, p := c.policy()
	if !s.DisplayEnabled || !p.OffWhenLidClosed {
		return
	}
	if err := c.session.SetEnabled(!closed); err != nil {
		log.Warnf("AniMe lid: %v", err)
	}
}

// OnPower turns the display off while on battery.
func (c *Controller) OnPower(pluggedIn bool) {
	s, p := c.policy()
	if !s.DisplayEnabled || !p.OffWhenUnplugged {
		return
	}
	if err := c.session.SetEnabled(pluggedIn); err != nil {
		log.Warnf("AniMe power: %v", err)
	}
}
