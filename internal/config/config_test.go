package config

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	anime "github.com/rogtools/go-anime"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asusd", "anime.yaml")
	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), conf)

	_, err = os.Stat(path)
	require.NoError(t, err, "defaults are written on first load")

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, conf, again)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anime.yaml")
	doc := `
model: GA402
brightness: High
builtins_enabled: false
brightness_scale: 0.5
off_when_unplugged: false
builtins:
  boot: StaticEmergence
  sleep: Starfield
system:
  - kind: Image
    file: logo.png
    scale: 0.8
  - kind: Pause
    pause: 2s
hooks:
  - on: sequence_started
    command: [notify-send, anime]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, anime.GA402, conf.Variant())
	assert.Equal(t, anime.BrightnessHigh, conf.Brightness)
	assert.False(t, conf.BuiltinsEnabled)
	assert.Equal(t, 0.5, conf.BrightnessScale)
	assert.False(t, conf.OffWhenUnplugged)
	// absent keys keep their defaults
	assert.True(t, conf.DisplayEnabled)
	assert.True(t, conf.OffWhenLidClosed)
	assert.Equal(t, anime.StaticEmergence, conf.Builtins.Boot)
	assert.Equal(t, anime.Starfield, conf.Builtins.Sleep)
	require.Len(t, conf.System, 2)
	assert.Equal(t, anime.KindImage, conf.System[0].Kind)
	assert.Equal(t, anime.Duration(2*time.Second), conf.System[1].Pause)
	assert.Equal(t, []Hook{{On: "sequence_started", Command: []string{"notify-send", "anime"}}}, conf.Hooks)
}

func TestTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anime.toml")
	conf := Default()
	conf.Brightness = anime.BrightnessLow
	conf.Builtins.Shutdown = anime.SeeYa
	conf.Wake = []anime.ActionLoader{{Kind: anime.KindImage, File: "wake.png", Brightness: 0.7}}
	require.NoError(t, Save(path, conf))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, anime.BrightnessLow, back.Brightness)
	assert.Equal(t, anime.SeeYa, back.Builtins.Shutdown)
	require.Len(t, back.Wake, 1)
	assert.Equal(t, "wake.png", back.Wake[0].File)
	assert.Equal(t, 0.7, back.Wake[0].Brightness)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	for name, doc := range map[string]string{
		"scale":  "brightness_scale: 1.5\n",
		"model":  "model: G15\n",
		"hook":   "hooks:\n  - on: device_state\n",
		"syntax": "brightness: [\n",
		"level":  "brightness: Max\n",
	} {
		path := filepath.Join(dir, name+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
		_, err := Load(path)
		assert.Error(t, err, name)
	}
}

func TestValidateNaN(t *testing.T) {
	conf := Default()
	conf.BrightnessScale = math.NaN()
	assert.Error(t, conf.Validate())
}

func TestSettings(t *testing.T) {
	conf := Default()
	conf.OffWhenSuspended = false
	conf.Sleep = []anime.ActionLoader{{Kind: anime.KindPause}}

	s := conf.Settings("/etc/asusd")
	assert.Equal(t, "/etc/asusd", s.Dir)
	assert.Equal(t, anime.Policy{OffWhenLidClosed: true, OffWhenUnplugged: true}, s.Policy)
	assert.Len(t, s.Actions[anime.TriggerSleep], 1)
	assert.Empty(t, s.Actions[anime.TriggerBoot])
	assert.Equal(t, anime.BrightnessMed, s.Brightness)
	assert.Equal(t, anime.Unsupported, conf.Variant())
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anime.yaml")
	require.NoError(t, Save(path, Default()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan *Config, 4)
	require.NoError(t, Watch(ctx, path, 20*time.Millisecond, func(c *Config) { changes <- c }))

	// invalid content is skipped
	require.NoError(t, os.WriteFile(path, []byte("brightness_scale: 4\n"), 0o644))
	time.Sleep(100 * time.Millisecond)

	next := Default()
	next.Brightness = anime.BrightnessOff
	require.NoError(t, Save(path, next))

	select {
	case c := <-changes:
		assert.Equal(t, anime.BrightnessOff, c.Brightness)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "anime.yaml"), time.Millisecond, func(*Config) {})
	assert.Error(t, err)
}
