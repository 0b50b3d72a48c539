package actionhandlers

import (
	"errors"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	anime "github.com/rogtools/go-anime"
)

type startRecorder struct {
	mu   sync.Mutex
	cmds []*exec.Cmd
	err  error
}

func (s *startRecorder) start(cmd *exec.Cmd) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmds = append(s.cmds, cmd)
	return s.err
}

func (s *startRecorder) started() []*exec.Cmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*exec.Cmd(nil), s.cmds...)
}

func TestNewExecAction(t *testing.T) {
	_, err := NewExecAction("lid_closed", []string{"true"})
	assert.Error(t, err)
	_, err = NewExecAction(OnDeviceState, nil)
	assert.Error(t, err)

	a, err := NewExecAction(OnSequenceStopped, []string{"logger", "-t", "anime"})
	require.NoError(t, err)
	assert.Equal(t, OnSequenceStopped, a.On)
}

func TestExecActionRunsOnEvent(t *testing.T) {
	bus := anime.NewBus()
	a, err := NewExecAction(OnSequenceStarted, []string{"notify-send", "AniMe"})
	require.NoError(t, err)
	rec := &startRecorder{}
	a.start = rec.start

	unsub := a.Subscribe(bus)
	bus.Publish(anime.SequenceStarted{Name: "boot", Once: true, At: time.Now()})
	// other events do not run the hook
	bus.Publish(anime.SequenceStopped{Name: "boot"})

	require.Eventually(t, func() bool { return len(rec.started()) == 1 }, time.Second, 5*time.Millisecond)
	cmd := rec.started()[0]
	assert.Equal(t, []string{"notify-send", "AniMe"}, cmd.Args)
	assert.Contains(t, cmd.Env, "ANIME_EVENT=sequence_started")
	assert.Contains(t, cmd.Env, "ANIME_SEQUENCE=boot")
	assert.Contains(t, cmd.Env, "ANIME_ONCE=true")

	unsub()
	bus.Publish(anime.SequenceStarted{Name: "system"})
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, rec.started(), 1)
}

func TestExecActionDevicePresence(t *testing.T) {
	bus := anime.NewBus()
	a, err := NewExecAction(OnDevicePresence, []string{"true"})
	require.NoError(t, err)
	rec := &startRecorder{err: errors.New("not found")}
	a.start = rec.start
	defer a.Subscribe(bus)()

	bus.Publish(anime.DevicePresence{Present: false, Syspath: "/sys/bus/usb/devices/1-3"})
	require.Eventually(t, func() bool { return len(rec.started()) == 1 }, time.Second, 5*time.Millisecond)
	env := rec.started()[0].Env
	assert.Contains(t, env, "ANIME_PRESENT=false")
	assert.Contains(t, env, "ANIME_SYSPATH=/sys/bus/usb/devices/1-3")
}
