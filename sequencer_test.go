package anime

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type fakeDisplay struct {
	v Variant

	mu        sync.Mutex
	frames    []FrameBuffer
	powersave []bool
	err       error
}

func (d *fakeDisplay) Variant() Variant { return d.v }

func (d *fakeDisplay) WriteFrame(fb FrameBuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.frames = append(d.frames, fb)
	return nil
}

func (d *fakeDisplay) PausePowersave() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.powersave = append(d.powersave, false)
	return d.err
}

func (d *fakeDisplay) ResumePowersave() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.powersave = append(d.powersave, true)
	return d.err
}

func (d *fakeDisplay) written() []FrameBuffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]FrameBuffer(nil), d.frames...)
}

func lit(v Variant, b byte) FrameBuffer {
	fb := NewFrameBuffer(v)
	for i := range Positions(v) {
		fb.SetSlot(i, b)
	}
	return fb
}

func waitIdle(t *testing.T, s *Sequencer) {
	t.Helper()
	require.Eventually(t, func() bool { return !s.Running() }, 2*time.Second, time.Millisecond)
}

func TestSequencerImageOnce(t *testing.T) {
	d := &fakeDisplay{v: GA402}
	s := NewSequencer(d, nil)
	img := lit(GA402, 10)

	require.NoError(t, s.Start(&Sequence{Name: "one", Actions: []Action{&Image{Buffer: img}}}, true))
	waitIdle(t, s)

	frames := d.written()
	require.Len(t, frames, 2)
	assert.Equal(t, img.Data(), frames[0].Data())
	// drain blanks the display
	assert.Equal(t, NewFrameBuffer(GA402).Data(), frames[1].Data())
	assert.Equal(t, []bool{false, true}, d.powersave)
	assert.Equal(t, Idle, s.State())
}

func TestSequencerCancelPauseIsFast(t *testing.T) {
	d := &fakeDisplay{v: GA401}
	s := NewSequencer(d, nil)
	seq := &Sequence{Name: "pause", Actions: []Action{&Image{Buffer: lit(GA401, 1)}, Pause(5 * time.Second)}}

	require.NoError(t, s.Start(seq, false))
	require.Eventually(t, func() bool { return len(d.written()) == 1 }, time.Second, time.Millisecond)

	begin := time.Now()
	require.NoError(t, s.Stop())
	assert.Less(t, time.Since(begin), 200*time.Millisecond)
	assert.False(t, s.Running())
	assert.True(t, s.Cancelled())

	frames := d.written()
	assert.Equal(t, NewFrameBuffer(GA401).Data(), frames[len(frames)-1].Data())
}

func TestSequencerSingleRun(t *testing.T) {
	d := &fakeDisplay{v: GA402}
	s := NewSequencer(d, nil)
	loop := &Sequence{Name: "loop", Actions: []Action{&Animation{
		Frames: []Frame{{Buffer: lit(GA402, 5), Delay: 2 * time.Millisecond}},
		Time:   Infinite(),
	}}}
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Start(loop, false))
		assert.True(t, s.Running())
	}
	require.NoError(t, s.Stop())
	assert.Equal(t, Idle, s.State())

	// every run drained with a blank frame before the next one started
	blank := NewFrameBuffer(GA402).Data()
	drains := 0
	for _, f := range d.written() {
		if assert.ObjectsAreEqual(blank, f.Data()) {
			drains++
		}
	}
	assert.Equal(t, 5, drains)
}

func TestSequencerCountStops(t *testing.T) {
	d := &fakeDisplay{v: GA402}
	s := NewSequencer(d, nil)
	anim := &Animation{
		Frames: []Frame{
			{Buffer: lit(GA402, 1), Delay: time.Millisecond},
			{Buffer: lit(GA402, 2), Delay: time.Millisecond},
		},
		Time: Count(3),
	}
	// a count makes even a looping sequence terminal
	require.NoError(t, s.Start(&Sequence{Name: "count", Actions: []Action{anim}}, false))
	waitIdle(t, s)
	assert.Len(t, d.written(), 3*2+1)
}

func TestSequencerForTime(t *testing.T) {
	d := &fakeDisplay{v: GA402}
	s := NewSequencer(d, nil)
	anim := &Animation{
		Frames: []Frame{{Buffer: lit(GA402, 1), Delay: 5 * time.Millisecond}},
		Time:   ForTime(40 * time.Millisecond),
	}
	begin := time.Now()
	require.NoError(t, s.Start(&Sequence{Name: "timed", Actions: []Action{anim}}, true))
	waitIdle(t, s)
	assert.GreaterOrEqual(t, time.Since(begin), 40*time.Millisecond)
	assert.Greater(t, len(d.written()), 2)
}

func TestSequencerFadeScalesFrames(t *testing.T) {
	d := &fakeDisplay{v: GA402}
	s := NewSequencer(d, nil)
	anim := &Animation{
		Frames: []Frame{{Buffer: lit(GA402, 200), Delay: 10 * time.Millisecond}},
		Time:   FadeTime(50*time.Millisecond, nil, 50*time.Millisecond),
	}
	require.NoError(t, s.Start(&Sequence{Name: "fade", Actions: []Action{anim}}, true))
	waitIdle(t, s)

	frames := d.written()
	require.Greater(t, len(frames), 2)
	// the first frame is written at the very start of the fade in
	assert.Less(t, frames[0].Slot(0), byte(200))
	for _, f := range frames {
		assert.LessOrEqual(t, f.Slot(0), byte(200))
	}
}

func TestSequencerAbortsWhenDeviceAbsent(t *testing.T) {
	d := &fakeDisplay{v: GA402, err: &DeviceError{Op: "write", Err: ErrDeviceAbsent}}
	bus := NewBus()
	stopped := make(chan SequenceStopped, 1)
	bus.Subscribe(func(e SequenceStopped) { stopped <- e })

	s := NewSequencer(d, bus)
	require.NoError(t, s.Start(&Sequence{Name: "gone", Actions: []Action{&Image{Buffer: lit(GA402, 1)}}}, false))
	select {
	case e := <-stopped:
		assert.True(t, e.Aborted)
		assert.Equal(t, "gone", e.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("sequence did not stop")
	}
	waitIdle(t, s)
	assert.Empty(t, d.written())
}

func TestSequencerEmptySequence(t *testing.T) {
	d := &fakeDisplay{v: GA402}
	s := NewSequencer(d, nil)
	require.NoError(t, s.Start(&Sequence{Name: "empty"}, false))
	assert.False(t, s.Running())
	assert.Empty(t, d.written())
}

func TestSequencerProcedural(t *testing.T) {
	d := &fakeDisplay{v: GA402}
	s := NewSequencer(d, nil)
	calls := 0
	p := &Procedural{
		Name: "counter",
		Render: func(time.Time) (FrameBuffer, error) {
			calls++
			return lit(GA402, byte(calls)), nil
		},
		Interval: time.Millisecond,
		Time:     Count(4),
	}
	require.NoError(t, s.Start(&Sequence{Name: "proc", Actions: []Action{p}}, true))
	waitIdle(t, s)
	frames := d.written()
	require.Len(t, frames, 5)
	assert.Equal(t, byte(4), frames[3].Slot(0))
}

func TestSequencerFailingRenderWaitsInterval(t *testing.T) {
	d := &fakeDisplay{v: GA402}
	s := NewSequencer(d, nil)
	calls := atomic.NewInt32(0)
	p := &Procedural{
		Name: "broken",
		Render: func(time.Time) (FrameBuffer, error) {
			calls.Inc()
			return FrameBuffer{}, errors.New("no font")
		},
		Interval: 20 * time.Millisecond,
	}
	require.NoError(t, s.Start(&Sequence{Name: "broken", Actions: []Action{p}}, false))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.LessOrEqual(t, calls.Load(), int32(7))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestSequencerEmptyAnimationHolds(t *testing.T) {
	d := &fakeDisplay{v: GA402}
	s := NewSequencer(d, nil)
	require.NoError(t, s.Start(&Sequence{Name: "hollow", Actions: []Action{&Animation{}}}, false))
	time.Sleep(20 * time.Millisecond)
	assert.True(t, s.Running())
	require.NoError(t, s.Stop())

	// only the blank written on the way out
	frames := d.written()
	require.Len(t, frames, 1)
	assert.Equal(t, NewFrameBuffer(GA402).Data(), frames[0].Data())
}
