package anime

import (
	"fmt"
	"time"
)

// Duration is a time.Duration that reads and writes as "1.5s" in
// configuration files.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// AnimTimeKind selects how an Animation terminates.
type AnimTimeKind int

const (
	// Infinite loops until cancelled
	TimeInfinite AnimTimeKind = iota
	// Count loops the frames a fixed number of times
	TimeCount
	// Time loops for a wall-clock duration
	TimeDuration
	// Fade loops with a fade in and fade out
	TimeFade
)

// Fade describes a fade in, an optional hold and a fade out. Without a hold
// the fades span the total frame time of the animation.
type Fade struct {
	In      time.Duration
	ShowFor *time.Duration
	Out     time.Duration
}

// Total is the combined fade in and fade out time.
func (f Fade) Total() time.Duration {
	return f.In + f.Out
}

// fadeRunBuffer is added to the fade run time so the last frames are shown.
const fadeRunBuffer = 250 * time.Millisecond

// RunTime is how long an animation with this fade plays, given the summed
// delay of its frames.
func (f Fade) RunTime(frameTime time.Duration) time.Duration {
	rt := frameTime
	if f.ShowFor != nil {
		rt = *f.ShowFor + f.Total()
	}
	return rt + fadeRunBuffer
}

// effective returns the fade times actually used. If both fades do not fit in
// the run time each is cut to half of it.
func (f Fade) effective(runTime time.Duration) (in, out time.Duration) {
	if f.Total() > runTime {
		return runTime / 2, runTime / 2
	}
	return f.In, f.Out
}

// Scalar is the brightness multiplier for a frame shown at elapsed, within
// [0, 1]. It rises linearly over the fade in and falls linearly over the
// fade out that ends at runTime.
func (f Fade) Scalar(elapsed, runTime time.Duration) float64 {
	in, out := f.effective(runTime)
	var s float64 = 1
	switch {
	case elapsed < 0:
		s = 0
	case in > 0 && elapsed <= in:
		s = float64(elapsed) / float64(in)
	case out > 0 && elapsed > runTime-out:
		s = float64(runTime-elapsed) / float64(out)
	}
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// AnimTime is the playback policy of an Animation.
type AnimTime struct {
	Kind     AnimTimeKind
	Count    uint32
	Duration time.Duration
	Fade     Fade
}

// Infinite plays until cancelled.
func Infinite() AnimTime { return AnimTime{Kind: TimeInfinite} }

// Count plays the frames n times.
func Count(n uint32) AnimTime { return AnimTime{Kind: TimeCount, Count: n} }

// ForTime plays for d.
func ForTime(d time.Duration) AnimTime { return AnimTime{Kind: TimeDuration, Duration: d} }

// FadeTime plays with a fade in, an optional hold and a fade out.
func FadeTime(in time.Duration, showFor *time.Duration, out time.Duration) AnimTime {
	return AnimTime{Kind: TimeFade, Fade: Fade{In: in, ShowFor: showFor, Out: out}}
}

func (t AnimTime) String() string {
	switch t.Kind {
	case TimeCount:
		return fmt.Sprintf("Count(%d)", t.Count)
	case TimeDuration:
		return fmt.Sprintf("Time(%s)", t.Duration)
	case TimeFade:
		if t.Fade.ShowFor != nil {
			return fmt.Sprintf("Fade(%s, %s, %s)", t.Fade.In, *t.Fade.ShowFor, t.Fade.Out)
		}
		return fmt.Sprintf("Fade(%s, -, %s)", t.Fade.In, t.Fade.Out)
	}
	return "Infinite"
}

// Frame is one pre-rendered frame and how long it stays up.
type Frame struct {
	Buffer FrameBuffer
	Delay  time.Duration
}

// Action is one step of a Sequence: *Animation, *Image, Pause or
// *Procedural.
type Action interface {
	action()
}

// Animation is a list of timed frames played according to Time.
type Animation struct {
	Frames []Frame
	Time   AnimTime
}

// TotalFrameTime is the sum of all frame delays.
func (a *Animation) TotalFrameTime() time.Duration {
	var d time.Duration
	for _, f := range a.Frames {
		d += f.Delay
	}
	return d
}

// runTime returns the wall-clock limit of the animation, if it has one.
func (a *Animation) runTime() (time.Duration, bool) {
	switch a.Time.Kind {
	case TimeDuration:
		return a.Time.Duration, true
	case TimeFade:
		return a.Time.Fade.RunTime(a.TotalFrameTime()), true
	}
	return 0, false
}

// Image is a single frame written once.
type Image struct {
	Buffer FrameBuffer
}

// Pause holds the current frame for a duration.
type Pause time.Duration

// Procedural renders a fresh frame every Interval, such as a clock.
type Procedural struct {
	Name     string
	Render   func(now time.Time) (FrameBuffer, error)
	Interval time.Duration
	Time     AnimTime
}

func (*Animation) action()  {}
func (*Image) action()      {}
func (Pause) action()       {}
func (*Procedural) action() {}

// Sequence is a named, read-only list of actions. Rebuilding a sequence
// replaces it; a running sequence is never mutated.
type Sequence struct {
	Name    string
	Actions []Action
}

// Repeats reports whether the action list loops when not run once. A count
// on any animation makes the whole list terminal.
func (s *Sequence) Repeats() bool {
	for _, a := range s.Actions {
		switch a := a.(type) {
		case *Animation:
			if a.Time.Kind == TimeCount {
				return false
			}
		case *Procedural:
			if a.Time.Kind == TimeCount {
				return false
			}
		}
	}
	return true
}

// timed reports whether a pass over the list takes any time at all.
func (s *Sequence) timed() bool {
	for _, a := range s.Actions {
		switch a := a.(type) {
		case *Image:
		case Pause:
			if a > 0 {
				return true
			}
		case *Animation:
			if len(a.Frames) > 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}
