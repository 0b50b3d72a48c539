package actionhandlers

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	log "github.com/s00500/env_logger"

	anime "github.com/rogtools/go-anime"
)

// Hook event names.
const (
	OnDeviceState     = "device_state"
	OnSequenceStarted = "sequence_started"
	OnSequenceStopped = "sequence_stopped"
	OnDevicePresence  = "device_presence"
)

// ExecAction runs a command whenever a bus event of the given kind is
// published. Event details are passed in ANIME_* environment variables.
type ExecAction struct {
	On      string
	Command []string

	// start is replaced in tests
	start func(cmd *exec.Cmd) error
}

func NewExecAction(on string, command []string) (*ExecAction, error) {
	switch on {
	case OnDeviceState, OnSequenceStarted, OnSequenceStopped, OnDevicePresence:
	default:
		return nil, fmt.Errorf("unknown hook event %q", on)
	}
	if len(command) == 0 {
		return nil, fmt.Errorf("hook %s has no command", on)
	}
	return &ExecAction{On: on, Command: command, start: (*exec.Cmd).Start}, nil
}

// Subscribe attaches the action to bus and returns the unsubscribe function.
func (action *ExecAction) Subscribe(bus *anime.Bus) func() {
	switch action.On {
	case OnDeviceState:
		return bus.Subscribe(func(e anime.DeviceStateChanged) {
			action.run(
				"ANIME_DISPLAY_ENABLED="+strconv.FormatBool(e.State.DisplayEnabled),
				"ANIME_BRIGHTNESS="+e.State.Brightness.String(),
				"ANIME_BUILTINS_ENABLED="+strconv.FormatBool(e.State.BuiltinsEnabled),
			)
		})
	case OnSequenceStarted:
		return bus.Subscribe(func(e anime.SequenceStarted) {
			action.run("ANIME_SEQUENCE="+e.Name, "ANIME_ONCE="+strconv.FormatBool(e.Once))
		})
	case OnSequenceStopped:
		return bus.Subscribe(func(e anime.SequenceStopped) {
			action.run(
				"ANIME_SEQUENCE="+e.Name,
				"ANIME_CANCELLED="+strconv.FormatBool(e.Cancelled),
				"ANIME_ABORTED="+strconv.FormatBool(e.Aborted),
			)
		})
	case OnDevicePresence:
		return bus.Subscribe(func(e anime.DevicePresence) {
			action.run("ANIME_PRESENT="+strconv.FormatBool(e.Present), "ANIME_SYSPATH="+e.Syspath)
		})
	}
	return func() {}
}

func (action *ExecAction) run(env ...string) {
	cmd := exec.Command(action.Command[0], action.Command[1:]...)
	cmd.Env = append(os.Environ(), append([]string{"ANIME_EVENT=" + action.On}, env...)...)
	if err := action.start(cmd); err != nil {
		log.Warnf("Hook %s: %v", action.On, err)
		return
	}
	if cmd.Process != nil {
		go func() {
			if err := cmd.Wait(); err != nil {
				log.Debugf("Hook %s exited: %v", action.On, err)
			}
		}()
	}
}
