package anime

import (
	"fmt"
	"sync"
	"time"

	"github.com/karalabe/hid"
	log "github.com/s00500/env_logger"
	"go.uber.org/atomic"
)

// DeviceInterface is the raw report channel of an AniMe device. A karalabe/hid
// device satisfies it directly, TCPClient and ConnTransport adapt other
// transports.
type DeviceInterface interface {
	Close() error
	SendFeatureReport([]byte) (int, error)
	Write([]byte) (int, error)
	Read([]byte) (int, error)
}

// DeviceSearchResult describes an enumerated AniMe USB device.
type DeviceSearchResult struct {
	Name      string
	Serial    string
	Path      string
	ProductID uint16
}

// DeviceState is a snapshot of the cached display state.
type DeviceState struct {
	Variant         Variant    `json:"variant"`
	DisplayEnabled  bool       `json:"display_enabled"`
	Brightness      Brightness `json:"brightness"`
	BuiltinsEnabled bool       `json:"builtins_enabled"`
	Builtins        Builtins   `json:"builtins"`
	BrightnessScale float64    `json:"brightness_scale"`
	Present         bool       `json:"present"`
}

// Session is the single owner of an AniMe device channel. Every report to the
// hardware goes through it and is serialised by its mutex. Failed writes are
// returned as *DeviceError and never retried.
type Session struct {
	mu      sync.Mutex
	fd      DeviceInterface
	variant Variant
	serial  string

	stateMu sync.RWMutex
	state   DeviceState

	scale     *atomic.Float64
	absent    *atomic.Bool
	lastWrite *atomic.Time

	bus *Bus
}

// Search enumerates AniMe USB devices.
func Search() []*DeviceSearchResult {
	result := []*DeviceSearchResult{}
	for _, device := range hid.Enumerate(VendorID, ProductID) {
		result = append(result, &DeviceSearchResult{
			ProductID: device.ProductID,
			Serial:    device.Serial,
			Path:      device.Path,
			Name:      device.Product,
		})
	}
	return result
}

// Open the first AniMe device, the most common entry point. The variant must
// come from DetectVariant or configuration since every model shares one
// product ID.
func Open(v Variant) (*Session, error) {
	return rawOpen(v, "")
}

// OpenBySerial opens the AniMe device with the given USB serial.
func OpenBySerial(v Variant, serial string) (*Session, error) {
	return rawOpen(v, serial)
}

func rawOpen(v Variant, serial string) (*Session, error) {
	if !v.Supported() {
		return nil, &UnsupportedVariantError{Name: v.String()}
	}
	devices := hid.Enumerate(VendorID, ProductID)
	if len(devices) == 0 {
		return nil, ErrNoDevice
	}
	for _, device := range devices {
		log.Debugln(log.Indent(device))
		if serial != "" && serial != device.Serial {
			continue
		}
		dev, err := device.Open()
		if err != nil {
			return nil, &DeviceError{Op: "open", Err: err}
		}
		s := NewSession(dev, v)
		s.serial = device.Serial
		return s, nil
	}
	return nil, fmt.Errorf("%w: no device with serial %q", ErrNoDevice, serial)
}

// NewSession wraps an already open channel. The display is assumed enabled at
// medium brightness with builtins on until told otherwise.
func NewSession(fd DeviceInterface, v Variant) *Session {
	return &Session{
		fd:      fd,
		variant: v,
		state: DeviceState{
			Variant:         v,
			DisplayEnabled:  true,
			Brightness:      BrightnessMed,
			BuiltinsEnabled: true,
			BrightnessScale: 1,
			Present:         true,
		},
		scale:     atomic.NewFloat64(1),
		absent:    atomic.NewBool(false),
		lastWrite: atomic.NewTime(time.Time{}),
	}
}

// SetBus attaches a notification bus for state changes.
func (s *Session) SetBus(b *Bus) {
	s.bus = b
}

// Variant returns the layout of the attached display.
func (s *Session) Variant() Variant {
	return s.variant
}

// GetSerial returns the device serial, empty for non-USB transports.
func (s *Session) GetSerial() string {
	return s.serial
}

// Present is false once a write has failed because the device went away.
func (s *Session) Present() bool {
	return !s.absent.Load()
}

// LastWrite is the time of the last successful report.
func (s *Session) LastWrite() time.Time {
	return s.lastWrite.Load()
}

// Close the device
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fd.Close()
}

// send writes one report. Callers hold s.mu.
func (s *Session) send(op string, pkt []byte) error {
	if s.absent.Load() {
		return &DeviceError{Op: op, Err: ErrDeviceAbsent}
	}
	if _, err := s.fd.SendFeatureReport(pkt); err != nil {
		writeErrors.WithLabelValues(op).Inc()
		de := &DeviceError{Op: op, Err: err}
		if de.Absent() && !s.absent.Swap(true) {
			log.Errorf("AniMe device went away: %v", err)
			s.updateState(func(st *DeviceState) { st.Present = false })
		}
		return de
	}
	s.lastWrite.Store(time.Now())
	return nil
}

// Initialise writes the two start-up reports. Needed once after boot.
func (s *Session) Initialise() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pkt := range PktsInit() {
		if err := s.send("init", pkt); err != nil {
			return err
		}
	}
	return nil
}

// WriteFrame scales the frame by the brightness scale, writes every pane and
// then flushes. The frame must be for this session's variant.
func (s *Session) WriteFrame(fb FrameBuffer) error {
	if fb.Variant() != s.variant || !fb.Valid() {
		return fmt.Errorf("anime: %d byte %s frame written to %s device", fb.Len(), fb.Variant(), s.variant)
	}
	pkts := Packets(fb.Scaled(s.scale.Load()))

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pkt := range pkts {
		if err := s.send("write frame", pkt); err != nil {
			return err
		}
	}
	if err := s.send("flush", PktFlush()); err != nil {
		return err
	}
	framesWritten.Inc()
	return nil
}

// WriteControl writes a single pre-built control report.
func (s *Session) WriteControl(pkt []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.send("write control", pkt)
}

func (s *Session) writeControls(op string, pkts ...[]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pkt := range pkts {
		if err := s.send(op, pkt); err != nil {
			return err
		}
	}
	return nil
}

// SetEnabled turns the display on or off.
func (s *Session) SetEnabled(on bool) error {
	if err := s.WriteControl(PktSetEnableDisplay(on)); err != nil {
		return err
	}
	boolGauge(displayEnabled, on)
	s.updateState(func(st *DeviceState) { st.DisplayEnabled = on })
	return nil
}

// SetBrightness sets the hardware brightness level.
func (s *Session) SetBrightness(b Brightness) error {
	if b > BrightnessHigh {
		return fmt.Errorf("anime: invalid brightness level %d", b)
	}
	if err := s.WriteControl(PktSetBrightness(b)); err != nil {
		return err
	}
	s.updateState(func(st *DeviceState) { st.Brightness = b })
	return nil
}

// SetBuiltinAnimationsEnabled switches the builtin power-save animations and
// the display together, then re-applies the brightness level.
func (s *Session) SetBuiltinAnimationsEnabled(on bool, b Brightness) error {
	err := s.writeControls("set builtins",
		PktSetEnablePowersaveAnim(on),
		PktSetEnableDisplay(on),
		PktSetBrightness(b),
		PktSetEnablePowersaveAnim(on),
	)
	if err != nil {
		return err
	}
	boolGauge(displayEnabled, on)
	s.updateState(func(st *DeviceState) {
		st.BuiltinsEnabled = on
		st.DisplayEnabled = on
		st.Brightness = b
	})
	return nil
}

// SetBuiltinAnimations selects which builtin plays at each stage.
func (s *Session) SetBuiltinAnimations(b Builtins) error {
	if err := s.WriteControl(b.Packet()); err != nil {
		return err
	}
	s.updateState(func(st *DeviceState) { st.Builtins = b })
	return nil
}

// SetBrightnessScale sets the multiplier applied to every frame at write
// time. Cached frames are not re-rendered.
func (s *Session) SetBrightnessScale(f float64) error {
	if err := validBrightness(f); err != nil {
		return err
	}
	s.scale.Store(f)
	s.updateState(func(st *DeviceState) { st.BrightnessScale = f })
	return nil
}

// PausePowersave stops the builtin power-save animation so a custom
// sequence can own the display.
func (s *Session) PausePowersave() error {
	return s.WriteControl(PktSetEnablePowersaveAnim(false))
}

// ResumePowersave restores the power-save animation to the builtin setting.
func (s *Session) ResumePowersave() error {
	return s.WriteControl(PktSetEnablePowersaveAnim(s.DeviceState().BuiltinsEnabled))
}

// DeviceState returns a snapshot of the cached state.
func (s *Session) DeviceState() DeviceState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Session) updateState(f func(*DeviceState)) {
	s.stateMu.Lock()
	f(&s.state)
	st := s.state
	s.stateMu.Unlock()
	s.bus.Publish(DeviceStateChanged{State: st, At: time.Now()})
}
