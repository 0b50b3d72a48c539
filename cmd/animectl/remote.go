package main

import (
	"fmt"
	"strconv"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	anime "github.com/rogtools/go-anime"
	"github.com/rogtools/go-anime/internal/dbusapi"
)

// call invokes a method on the running animed.
func call(method string, args ...interface{}) (*dbus.Call, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	obj := conn.Object(dbusapi.BusName, dbusapi.Path)
	c := obj.Call(dbusapi.Interface+"."+method, 0, args...)
	if c.Err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", method, c.Err)
	}
	return c, conn.Close()
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the device state held by animed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := call("DeviceState")
		if err != nil {
			return err
		}
		var st dbusapi.State
		if err := c.Store(&st); err != nil {
			return err
		}
		b := anime.Builtins{
			Boot:     anime.BootAnim(st.Boot),
			Awake:    anime.AwakeAnim(st.Awake),
			Sleep:    anime.SleepAnim(st.Sleep),
			Shutdown: anime.ShutdownAnim(st.Shutdown),
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "display enabled:     %v\n", st.DisplayEnabled)
		fmt.Fprintf(w, "brightness:          %s\n", anime.Brightness(st.Brightness))
		fmt.Fprintf(w, "builtins enabled:    %v\n", st.BuiltinsEnabled)
		fmt.Fprintf(w, "builtins:            boot=%s awake=%s sleep=%s shutdown=%s\n", b.Boot, b.Awake, b.Sleep, b.Shutdown)
		fmt.Fprintf(w, "off when unplugged:  %v\n", st.OffWhenUnplugged)
		fmt.Fprintf(w, "off when suspended:  %v\n", st.OffWhenSuspended)
		fmt.Fprintf(w, "off when lid closed: %v\n", st.OffWhenLidClosed)
		return nil
	},
}

var displayCmd = &cobra.Command{
	Use:       "display on|off",
	Short:     "Turn the display on or off",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		_, err = call("SetEnableDisplay", on)
		return err
	},
}

var brightnessCmd = &cobra.Command{
	Use:   "brightness off|low|med|high",
	Short: "Set the hardware brightness level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var b anime.Brightness
		if err := b.UnmarshalText([]byte(args[0])); err != nil {
			return err
		}
		_, err := call("SetBrightness", byte(b))
		return err
	},
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}
