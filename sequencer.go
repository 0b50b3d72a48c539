package anime

import (
	"sync"
	"time"

	log "github.com/s00500/env_logger"
	"go.uber.org/atomic"
)

// Display is what the Sequencer drives. *Session implements it.
type Display interface {
	Variant() Variant
	WriteFrame(FrameBuffer) error
	PausePowersave() error
	ResumePowersave() error
}

// RunState is the lifecycle of a sequence run.
type RunState int32

const (
	Idle RunState = iota
	Running
	Draining
)

func (s RunState) String() string {
	switch s {
	case Running:
		return "Running"
	case Draining:
		return "Draining"
	}
	return "Idle"
}

const (
	// CheckpointInterval bounds how long a sleep goes without looking at the
	// cancellation flag
	CheckpointInterval = time.Millisecond
	// DefaultStopTimeout bounds how long Start and Stop wait for a previous
	// run to drain
	DefaultStopTimeout = 2 * time.Second
)

// Sequencer plays sequences on a Display from a background goroutine. At most
// one run is active: Start cancels the current run and waits for it to drain
// before the next one begins. Cancellation is cooperative and checked before
// every frame write and every CheckpointInterval while sleeping.
type Sequencer struct {
	display Display
	bus     *Bus

	cancel  *atomic.Bool
	running *atomic.Bool
	state   *atomic.Int32

	// serialises Start and Stop
	startMu sync.Mutex

	StopTimeout time.Duration
}

// NewSequencer creates an idle sequencer for d.
func NewSequencer(d Display, bus *Bus) *Sequencer {
	return &Sequencer{
		display:     d,
		bus:         bus,
		cancel:      atomic.NewBool(false),
		running:     atomic.NewBool(false),
		state:       atomic.NewInt32(int32(Idle)),
		StopTimeout: DefaultStopTimeout,
	}
}

// State returns the current run state.
func (s *Sequencer) State() RunState {
	return RunState(s.state.Load())
}

// Running reports whether a run is active, including while it drains.
func (s *Sequencer) Running() bool {
	return s.running.Load()
}

// Cancel asks the current run to stop without waiting for it.
func (s *Sequencer) Cancel() {
	s.cancel.Store(true)
}

// Cancelled reports whether the cancellation flag is set.
func (s *Sequencer) Cancelled() bool {
	return s.cancel.Load()
}

// Stop cancels the current run and waits for it to drain. The cancellation
// flag stays set until the next Start.
func (s *Sequencer) Stop() error {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	return s.stopLocked()
}

func (s *Sequencer) stopLocked() error {
	s.cancel.Store(true)
	deadline := time.Now().Add(s.StopTimeout)
	for s.running.Load() {
		if time.Now().After(deadline) {
			log.Warnln("AniMe previous sequence did not stop in time")
			return ErrStopTimeout
		}
		time.Sleep(CheckpointInterval)
	}
	return nil
}

// Start stops any current run and plays seq in the background. With once set
// the action list runs a single time, otherwise it repeats until cancelled
// unless an animation in it uses a Count.
func (s *Sequencer) Start(seq *Sequence, once bool) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	if err := s.stopLocked(); err != nil {
		return err
	}
	if seq == nil || len(seq.Actions) == 0 {
		log.Warnln("AniMe sequence was empty")
		return nil
	}
	log.Infof("AniMe starting sequence %q (once: %v)", seq.Name, once)
	s.cancel.Store(false)
	s.running.Store(true)
	s.state.Store(int32(Running))
	sequencerRunning.Set(1)
	sequenceRuns.WithLabelValues(seq.Name).Inc()
	s.bus.Publish(SequenceStarted{Name: seq.Name, Once: once, At: time.Now()})

	go s.run(seq, once)
	return nil
}

type runResult int

const (
	runContinue runResult = iota
	runCancelled
	runAborted
)

func (s *Sequencer) run(seq *Sequence, once bool) {
	result := runContinue
	defer func() {
		s.drain(seq, result)
	}()

	if err := s.display.PausePowersave(); err != nil {
		log.Warnf("AniMe could not pause power-save animation: %v", err)
		if IsDeviceAbsent(err) {
			result = runAborted
			return
		}
	}

	for {
		for _, a := range seq.Actions {
			if s.cancel.Load() {
				result = runCancelled
				return
			}
			switch a := a.(type) {
			case *Animation:
				result = s.playAnimation(a)
			case *Procedural:
				result = s.playProcedural(a)
			case *Image:
				result = s.write(a.Buffer)
			case Pause:
				result = s.sleep(time.Duration(a))
			}
			if result != runContinue {
				return
			}
		}
		if once || !seq.Repeats() {
			return
		}
		if !seq.timed() {
			// only stills: hold the last one until cancelled
			for !s.cancel.Load() {
				time.Sleep(CheckpointInterval)
			}
			result = runCancelled
			return
		}
	}
}

func (s *Sequencer) drain(seq *Sequence, result runResult) {
	s.state.Store(int32(Draining))
	if result != runAborted {
		if err := s.display.WriteFrame(NewFrameBuffer(s.display.Variant())); err != nil {
			log.Warnf("AniMe could not blank display: %v", err)
		}
		if err := s.display.ResumePowersave(); err != nil {
			log.Warnf("AniMe could not restore power-save animation: %v", err)
		}
	}
	if result == runAborted {
		sequenceAborts.Inc()
	}
	log.Infof("AniMe sequence %q exited", seq.Name)
	s.bus.Publish(SequenceStopped{
		Name:      seq.Name,
		Cancelled: result == runCancelled,
		Aborted:   result == runAborted,
		At:        time.Now(),
	})
	s.state.Store(int32(Idle))
	sequencerRunning.Set(0)
	s.running.Store(false)
}

// write is the checkpoint in front of every device write. A failed write is
// logged and skipped unless the device is gone.
func (s *Sequencer) write(fb FrameBuffer) runResult {
	if s.cancel.Load() {
		return runCancelled
	}
	if err := s.display.WriteFrame(fb); err != nil {
		if IsDeviceAbsent(err) {
			log.Errorf("AniMe device absent, ending sequence: %v", err)
			return runAborted
		}
		log.Warnf("AniMe frame write failed: %v", err)
	}
	return runContinue
}

// sleep waits for d, checking for cancellation every CheckpointInterval.
func (s *Sequencer) sleep(d time.Duration) runResult {
	deadline := time.Now().Add(d)
	for {
		if s.cancel.Load() {
			return runCancelled
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return runContinue
		}
		if remaining > CheckpointInterval {
			remaining = CheckpointInterval
		}
		time.Sleep(remaining)
	}
}

func (s *Sequencer) playAnimation(a *Animation) runResult {
	if len(a.Frames) == 0 {
		return runContinue
	}
	start := time.Now()
	runTime, timed := a.runTime()
	if a.Time.Kind == TimeFade && a.Time.Fade.Total() > runTime {
		log.Debugln("AniMe fade time is longer than the animation, halving fades")
	}

	var count uint32
	for {
		for _, f := range a.Frames {
			out := f.Buffer
			if a.Time.Kind == TimeFade {
				out = out.Scaled(a.Time.Fade.Scalar(time.Since(start), runTime))
			}
			if r := s.write(out); r != runContinue {
				return r
			}
			if timed && time.Since(start) > runTime {
				return runContinue
			}
			if r := s.sleep(f.Delay); r != runContinue {
				return r
			}
		}
		if a.Time.Kind == TimeCount {
			count++
			if count >= a.Time.Count {
				return runContinue
			}
		}
	}
}

func (s *Sequencer) playProcedural(p *Procedural) runResult {
	anim := &Animation{Time: p.Time}
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second
	}
	start := time.Now()
	var count uint32
	for {
		fb, err := p.Render(time.Now())
		if err != nil {
			log.Warnf("AniMe could not render %s: %v", p.Name, err)
			if r := s.sleep(interval); r != runContinue {
				return r
			}
			return runContinue
		}
		anim.Frames = []Frame{{Buffer: fb, Delay: interval}}
		out := fb
		if p.Time.Kind == TimeFade {
			rt, _ := anim.runTime()
			out = out.Scaled(p.Time.Fade.Scalar(time.Since(start), rt))
		}
		if r := s.write(out); r != runContinue {
			return r
		}
		if rt, timed := anim.runTime(); timed && time.Since(start) > rt {
			return runContinue
		}
		if r := s.sleep(interval); r != runContinue {
			return r
		}
		if p.Time.Kind == TimeCount {
			count++
			if count >= p.Time.Count {
				return runContinue
			}
		}
	}
}
