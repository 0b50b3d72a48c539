package anime

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"

	"github.com/karalabe/hid"
)

var (
	// ErrNoFrames is returned when an animated source decodes to zero frames
	ErrNoFrames = errors.New("anime: no frames in image")
	// ErrFormat is returned for undecodable or unsupported image data
	ErrFormat = errors.New("anime: unsupported image format")
	// ErrNoDevice is returned when no AniMe USB device is present
	ErrNoDevice = errors.New("anime: no AniMe Matrix device found")
	// ErrDeviceAbsent marks a session whose device has gone away
	ErrDeviceAbsent = errors.New("anime: device absent")
	// ErrUnsupportedVariant is matched by every *UnsupportedVariantError
	ErrUnsupportedVariant = errors.New("anime: unsupported AniMe Matrix device")
	// ErrPlacement is returned when a placement squashes the image to nothing
	ErrPlacement = errors.New("anime: placement is not invertible")
	// ErrStopTimeout is returned when a running sequence does not stop in time
	ErrStopTimeout = errors.New("anime: timed out waiting for sequence to stop")
)

// FormatError wraps a decoder failure.
type FormatError struct {
	Source string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("anime: could not decode image: %v", e.Err)
	}
	return fmt.Sprintf("anime: could not decode %s: %v", e.Source, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// InvalidBrightnessError is returned for brightness values outside [0, 1].
type InvalidBrightnessError struct {
	Brightness float64
}

func (e *InvalidBrightnessError) Error() string {
	return fmt.Sprintf("anime: image brightness must be between 0.0 and 1.0 (inclusive), was %v", e.Brightness)
}

// UnsupportedVariantError is returned when geometry or packets are requested
// for a board or model name with no known layout.
type UnsupportedVariantError struct {
	Name string
}

func (e *UnsupportedVariantError) Error() string {
	return fmt.Sprintf("anime: unsupported AniMe Matrix device %q", e.Name)
}

func (e *UnsupportedVariantError) Is(target error) bool { return target == ErrUnsupportedVariant }

// DeviceError is a failed hardware write. It is never retried by the Session.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("anime: %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Absent reports whether the underlying failure means the device is gone.
func (e *DeviceError) Absent() bool {
	return isAbsent(e.Err)
}

// IsDeviceAbsent reports whether err signals a missing or closed device.
func IsDeviceAbsent(err error) bool {
	var de *DeviceError
	if errors.As(err, &de) {
		return de.Absent()
	}
	return isAbsent(err)
}

func isAbsent(err error) bool {
	return errors.Is(err, ErrDeviceAbsent) ||
		errors.Is(err, hid.ErrDeviceClosed) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, syscall.ENODEV) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.EPIPE)
}

func validBrightness(b float64) error {
	if b < 0 || b > 1 || b != b {
		return &InvalidBrightnessError{Brightness: b}
	}
	return nil
}
