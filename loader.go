package anime

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ActionKind names the type of an ActionLoader.
type ActionKind string

const (
	// Stock ASUS gif on the slanted template
	KindAsusAnimation ActionKind = "AsusAnimation"
	// Still image on the slanted template
	KindAsusImage ActionKind = "AsusImage"
	// Gif of any size, or a still played as an animation
	KindImageAnimation ActionKind = "ImageAnimation"
	// Still image of any size
	KindImage ActionKind = "Image"
	// Text or clock rendered every interval
	KindText ActionKind = "Text"
	// Pause between actions
	KindPause ActionKind = "Pause"
)

// TimeSpec is the serialisable form of AnimTime. A fade wins over a count,
// and a count wins over a duration; an empty TimeSpec is Infinite.
type TimeSpec struct {
	Count   uint32    `yaml:"count,omitempty" toml:"count,omitempty"`
	For     Duration  `yaml:"for,omitempty" toml:"for,omitempty"`
	FadeIn  Duration  `yaml:"fade_in,omitempty" toml:"fade_in,omitempty"`
	ShowFor *Duration `yaml:"show_for,omitempty" toml:"show_for,omitempty"`
	FadeOut Duration  `yaml:"fade_out,omitempty" toml:"fade_out,omitempty"`
}

// AnimTime converts t to its playback policy.
func (t TimeSpec) AnimTime() AnimTime {
	switch {
	case t.FadeIn > 0 || t.FadeOut > 0 || t.ShowFor != nil:
		var show *time.Duration
		if t.ShowFor != nil {
			d := time.Duration(*t.ShowFor)
			show = &d
		}
		return FadeTime(time.Duration(t.FadeIn), show, time.Duration(t.FadeOut))
	case t.Count > 0:
		return Count(t.Count)
	case t.For > 0:
		return ForTime(time.Duration(t.For))
	}
	return Infinite()
}

// ActionLoader is a serialisable description of an Action. Load turns it
// into pre-rendered frames for a variant.
type ActionLoader struct {
	Kind        ActionKind `yaml:"kind" toml:"kind"`
	File        string     `yaml:"file,omitempty" toml:"file,omitempty"`
	Scale       float64    `yaml:"scale,omitempty" toml:"scale,omitempty"`
	Angle       float64    `yaml:"angle,omitempty" toml:"angle,omitempty"`
	Translation Vec2       `yaml:"translation,omitempty" toml:"translation,omitempty"`
	Brightness  float64    `yaml:"brightness,omitempty" toml:"brightness,omitempty"`
	Time        TimeSpec   `yaml:"time,omitempty" toml:"time,omitempty"`
	Pause       Duration   `yaml:"pause,omitempty" toml:"pause,omitempty"`
	Text        string     `yaml:"text,omitempty" toml:"text,omitempty"`
	Layout      string     `yaml:"layout,omitempty" toml:"layout,omitempty"`
	FontSize    float64    `yaml:"font_size,omitempty" toml:"font_size,omitempty"`
	Interval    Duration   `yaml:"interval,omitempty" toml:"interval,omitempty"`
}

// brightness treats an unset brightness as full.
func (l ActionLoader) brightness() float64 {
	if l.Brightness == 0 {
		return 1
	}
	return l.Brightness
}

func (l ActionLoader) placement() Placement {
	scale := l.Scale
	if scale == 0 {
		scale = 1
	}
	return Placement{
		Scale:       Vec2{scale, scale},
		Angle:       l.Angle,
		Translation: l.Translation,
		Brightness:  l.brightness(),
	}
}

// Load builds the action for a variant. Relative file paths are resolved
// against dir.
func (l ActionLoader) Load(v Variant, dir string) (Action, error) {
	file := l.File
	if file != "" && !filepath.IsAbs(file) && dir != "" {
		file = filepath.Join(dir, file)
	}
	t := l.Time.AnimTime()

	switch l.Kind {
	case KindAsusAnimation:
		return DiagonalGifFromFile(file, l.brightness(), t, v)
	case KindAsusImage:
		fb, err := DiagonalFromFile(file, l.brightness(), v)
		if err != nil {
			return nil, err
		}
		return stillAction(fb, t), nil
	case KindImageAnimation:
		if strings.EqualFold(filepath.Ext(file), ".gif") {
			return GifFromFile(file, l.placement(), t, v)
		}
		fb, err := ImageFromFile(file, l.placement(), v)
		if err != nil {
			return nil, err
		}
		return StillAnimation(fb, t), nil
	case KindImage:
		fb, err := ImageFromFile(file, l.placement(), v)
		if err != nil {
			return nil, err
		}
		return stillAction(fb, t), nil
	case KindText:
		return NewTextAction(TextOptions{
			Text:      l.Text,
			Layout:    l.Layout,
			Size:      l.FontSize,
			Placement: l.placement(),
			Time:      t,
			Interval:  time.Duration(l.Interval),
		}, v)
	case KindPause:
		return Pause(l.Pause), nil
	}
	return nil, fmt.Errorf("anime: unknown action kind %q", l.Kind)
}

// stillAction keeps an untimed still as a plain Image.
func stillAction(fb FrameBuffer, t AnimTime) Action {
	if t.Kind == TimeInfinite {
		return &Image{Buffer: fb}
	}
	return StillAnimation(fb, t)
}

// BuildSequence loads every action of a trigger. The first failing action
// aborts the build so no partial sequence is cached.
func BuildSequence(name string, loaders []ActionLoader, v Variant, dir string) (*Sequence, error) {
	seq := &Sequence{Name: name, Actions: make([]Action, 0, len(loaders))}
	for i, l := range loaders {
		a, err := l.Load(v, dir)
		if err != nil {
			return nil, fmt.Errorf("%s action %d (%s): %w", name, i, l.Kind, err)
		}
		seq.Actions = append(seq.Actions, a)
	}
	return seq, nil
}
