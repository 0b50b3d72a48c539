//go:build linux

package devices

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jochenvg/go-udev"
	log "github.com/s00500/env_logger"

	anime "github.com/rogtools/go-anime"
)

var (
	vendorID  = fmt.Sprintf("%04x", anime.VendorID)
	productID = fmt.Sprintf("%04x", anime.ProductID)
)

func isAnime(dev *udev.Device) bool {
	return strings.EqualFold(dev.SysattrValue("idVendor"), vendorID) &&
		strings.EqualFold(dev.SysattrValue("idProduct"), productID)
}

// isAnimeProduct matches on the PRODUCT property, which stays available in
// remove events after the sysfs attributes are gone. It looks like
// "b05/193b/100".
func isAnimeProduct(dev *udev.Device) bool {
	parts := strings.Split(dev.PropertyValue("PRODUCT"), "/")
	if len(parts) < 2 {
		return false
	}
	return strings.TrimLeft(parts[0], "0") == strings.TrimLeft(vendorID, "0") &&
		strings.TrimLeft(parts[1], "0") == strings.TrimLeft(productID, "0")
}

// Find returns the sysfs paths of every attached AniMe USB device.
func Find() ([]string, error) {
	u := udev.Udev{}
	e := u.NewEnumerate()
	e.AddMatchSubsystem("usb")
	e.AddMatchSysattr("idVendor", vendorID)
	devs, err := e.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate usb devices: %w", err)
	}
	var paths []string
	for _, d := range devs {
		if d.Devtype() == "usb_device" && isAnime(d) {
			paths = append(paths, d.Syspath())
		}
	}
	return paths, nil
}

// DisableWakeup stops the AniMe from waking the laptop from suspend, which
// some firmware enables by default.
func DisableWakeup() error {
	paths, err := Find()
	if err != nil {
		return err
	}
	for _, p := range paths {
		wakeup := filepath.Join(p, "power", "wakeup")
		if err := os.WriteFile(wakeup, []byte("disabled"), 0o644); err != nil {
			return fmt.Errorf("disable wakeup on %s: %w", p, err)
		}
		log.Debugf("AniMe wakeup disabled on %s", p)
	}
	return nil
}

// Watch publishes DevicePresence on bus whenever an AniMe device is added or
// removed, and calls onChange if it is not nil. It returns once the monitor
// is running; ctx stops it.
func Watch(ctx context.Context, bus *anime.Bus, onChange func(present bool)) error {
	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if mon == nil {
		return fmt.Errorf("failed to create udev monitor")
	}
	mon.FilterAddMatchSubsystemDevtype("usb", "usb_device")
	deviceCh, errCh, err := mon.DeviceChan(ctx)
	if err != nil {
		return fmt.Errorf("failed to get udev device channel: %w", err)
	}

	go func() {
		for err := range errCh {
			log.Warnf("Udev monitor error: %v", err)
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Debugln("Udev monitor stopped")
				return
			case dev, ok := <-deviceCh:
				if !ok {
					return
				}
				action := dev.Action()
				if action != "add" && action != "remove" {
					continue
				}
				if !isAnimeProduct(dev) {
					continue
				}
				present := action == "add"
				log.Infof("AniMe device %s: %s", action, dev.Syspath())
				bus.Publish(anime.DevicePresence{Present: present, Syspath: dev.Syspath(), At: time.Now()})
				if onChange != nil {
					onChange(present)
				}
			}
		}
	}()
	return nil
}
