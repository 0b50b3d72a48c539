package anime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestFadeScalarMonotonic(t *testing.T) {
	show := 100 * time.Millisecond
	f := Fade{In: 200 * time.Millisecond, ShowFor: &show, Out: 300 * time.Millisecond}
	rt := f.RunTime(0)
	assert.Equal(t, 850*time.Millisecond, rt)

	prev := -1.0
	for e := time.Duration(0); e <= 200*time.Millisecond; e += 5 * time.Millisecond {
		s := f.Scalar(e, rt)
		assert.GreaterOrEqual(t, s, prev, "fade in at %s", e)
		prev = s
	}
	assert.Equal(t, 1.0, f.Scalar(300*time.Millisecond, rt))

	prev = 2.0
	for e := rt - 300*time.Millisecond; e <= rt+50*time.Millisecond; e += 5 * time.Millisecond {
		s := f.Scalar(e, rt)
		assert.LessOrEqual(t, s, prev, "fade out at %s", e)
		assert.GreaterOrEqual(t, s, 0.0)
		prev = s
	}
	assert.Equal(t, 0.0, f.Scalar(rt, rt))
	assert.Equal(t, 0.0, f.Scalar(-time.Second, rt))
}

func TestFadeHalvedWhenTooLong(t *testing.T) {
	f := Fade{In: time.Second, Out: time.Second}
	rt := f.RunTime(750 * time.Millisecond)
	assert.Equal(t, time.Second, rt)
	in, out := f.effective(rt)
	assert.Equal(t, 500*time.Millisecond, in)
	assert.Equal(t, 500*time.Millisecond, out)
	assert.InDelta(t, 0.5, f.Scalar(250*time.Millisecond, rt), 1e-9)
}

func TestAnimationRunTime(t *testing.T) {
	a := &Animation{
		Frames: []Frame{{Delay: 100 * time.Millisecond}, {Delay: 50 * time.Millisecond}},
		Time:   Infinite(),
	}
	assert.Equal(t, 150*time.Millisecond, a.TotalFrameTime())
	_, timed := a.runTime()
	assert.False(t, timed)

	a.Time = ForTime(time.Second)
	rt, timed := a.runTime()
	assert.True(t, timed)
	assert.Equal(t, time.Second, rt)

	a.Time = FadeTime(10*time.Millisecond, nil, 10*time.Millisecond)
	rt, _ = a.runTime()
	assert.Equal(t, 400*time.Millisecond, rt)
}

func TestSequenceRepeats(t *testing.T) {
	img := &Image{Buffer: NewFrameBuffer(GA402)}
	assert.True(t, (&Sequence{Actions: []Action{img, Pause(time.Second)}}).Repeats())
	assert.False(t, (&Sequence{Actions: []Action{img, &Animation{Time: Count(2)}}}).Repeats())
	assert.False(t, (&Sequence{Actions: []Action{&Procedural{Time: Count(1)}}}).Repeats())

	assert.False(t, (&Sequence{Actions: []Action{img, Pause(0)}}).timed())
	assert.True(t, (&Sequence{Actions: []Action{img, Pause(1)}}).timed())
	assert.False(t, (&Sequence{Actions: []Action{&Animation{}}}).timed())
	assert.True(t, (&Sequence{Actions: []Action{StillAnimation(NewFrameBuffer(GA402), Infinite())}}).timed())
	assert.True(t, (&Sequence{Actions: []Action{&Procedural{}}}).timed())
}

func TestAnimTimeString(t *testing.T) {
	show := time.Second
	assert.Equal(t, "Infinite", Infinite().String())
	assert.Equal(t, "Count(3)", Count(3).String())
	assert.Equal(t, "Time(2s)", ForTime(2*time.Second).String())
	assert.Equal(t, "Fade(1s, 1s, 2s)", FadeTime(time.Second, &show, 2*time.Second).String())
}

func TestTimeSpecFromYAML(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want AnimTime
	}{
		{`{}`, Infinite()},
		{`{count: 2}`, Count(2)},
		{`{for: 1.5s}`, ForTime(1500 * time.Millisecond)},
		{`{count: 2, fade_in: 1s}`, FadeTime(time.Second, nil, 0)},
	} {
		var ts TimeSpec
		assert.NoError(t, yaml.Unmarshal([]byte(tc.in), &ts), tc.in)
		assert.Equal(t, tc.want, ts.AnimTime(), tc.in)
	}

	var ts TimeSpec
	assert.NoError(t, yaml.Unmarshal([]byte(`{fade_in: 1s, show_for: 2s, fade_out: 500ms}`), &ts))
	got := ts.AnimTime()
	assert.Equal(t, TimeFade, got.Kind)
	if assert.NotNil(t, got.Fade.ShowFor) {
		assert.Equal(t, 2*time.Second, *got.Fade.ShowFor)
	}
	assert.Equal(t, 500*time.Millisecond, got.Fade.Out)
}
