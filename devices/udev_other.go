//go:build !linux

package devices

import (
	"context"
	"errors"

	anime "github.com/rogtools/go-anime"
)

var errNoUdev = errors.New("devices: udev is only available on linux")

func Find() ([]string, error) { return nil, errNoUdev }

func DisableWakeup() error { return errNoUdev }

func Watch(ctx context.Context, bus *anime.Bus, onChange func(present bool)) error {
	return errNoUdev
}
