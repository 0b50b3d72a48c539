package anime

import (
	"time"

	"github.com/kelindar/event"
)

// Event type identifiers for the notification bus.
const (
	TypeDeviceStateChanged uint32 = iota + 1
	TypeSequenceStarted
	TypeSequenceStopped
	TypeDevicePresence
)

// Event is anything published on a Bus.
type Event interface {
	Type() uint32
}

// DeviceStateChanged is published after any state-changing control write.
type DeviceStateChanged struct {
	State DeviceState
	At    time.Time
}

func (e DeviceStateChanged) Type() uint32 { return TypeDeviceStateChanged }

// SequenceStarted is published when a sequence run begins.
type SequenceStarted struct {
	Name string
	Once bool
	At   time.Time
}

func (e SequenceStarted) Type() uint32 { return TypeSequenceStarted }

// SequenceStopped is published after a run has drained. Aborted is set when
// the run ended because the device went away.
type SequenceStopped struct {
	Name      string
	Cancelled bool
	Aborted   bool
	At        time.Time
}

func (e SequenceStopped) Type() uint32 { return TypeSequenceStopped }

// DevicePresence is published by hot-plug watchers.
type DevicePresence struct {
	Present bool
	Syspath string
	At      time.Time
}

func (e DevicePresence) Type() uint32 { return TypeDevicePresence }

// Bus fans out engine notifications to subscribers. Handlers run on the
// dispatcher's goroutines, never on the sequencer's.
type Bus struct {
	dispatcher *event.Dispatcher
}

// NewBus creates an empty notification bus.
func NewBus() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish sends ev to every subscriber of its type. A nil Bus drops events.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	switch e := ev.(type) {
	case DeviceStateChanged:
		event.Publish(b.dispatcher, e)
	case SequenceStarted:
		event.Publish(b.dispatcher, e)
	case SequenceStopped:
		event.Publish(b.dispatcher, e)
	case DevicePresence:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a typed handler, such as func(SequenceStopped), and
// returns its unsubscribe function.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(DeviceStateChanged):
		return event.Subscribe(b.dispatcher, h)
	case func(SequenceStarted):
		return event.Subscribe(b.dispatcher, h)
	case func(SequenceStopped):
		return event.Subscribe(b.dispatcher, h)
	case func(DevicePresence):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
