package anime

import (
	"fmt"
	"strings"
)

// Brightness is the hardware brightness level of the whole display.
type Brightness byte

const (
	BrightnessOff Brightness = iota
	BrightnessLow
	BrightnessMed
	BrightnessHigh
)

var brightnessNames = []string{"Off", "Low", "Med", "High"}

func (b Brightness) String() string {
	if int(b) < len(brightnessNames) {
		return brightnessNames[b]
	}
	return fmt.Sprintf("Brightness(%d)", b)
}

// MarshalText implements encoding.TextMarshaler.
func (b Brightness) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Brightness) UnmarshalText(text []byte) error {
	i, err := parseEnum(string(text), brightnessNames)
	if err != nil {
		return fmt.Errorf("brightness: %w", err)
	}
	*b = Brightness(i)
	return nil
}

// BootAnim is the builtin animation played while booting.
type BootAnim byte

const (
	GlitchConstruction BootAnim = iota
	StaticEmergence
)

var bootNames = []string{"GlitchConstruction", "StaticEmergence"}

// AwakeAnim is the builtin animation played while running.
type AwakeAnim byte

const (
	BinaryBannerScroll AwakeAnim = iota
	RogLogoGlitch
)

var awakeNames = []string{"BinaryBannerScroll", "RogLogoGlitch"}

// SleepAnim is the builtin animation played while suspended.
type SleepAnim byte

const (
	BannerSwipe SleepAnim = iota
	Starfield
)

var sleepNames = []string{"BannerSwipe", "Starfield"}

// ShutdownAnim is the builtin animation played while shutting down.
type ShutdownAnim byte

const (
	GlitchOut ShutdownAnim = iota
	SeeYa
)

var shutdownNames = []string{"GlitchOut", "SeeYa"}

func (a BootAnim) String() string     { return enumName(int(a), bootNames) }
func (a AwakeAnim) String() string    { return enumName(int(a), awakeNames) }
func (a SleepAnim) String() string    { return enumName(int(a), sleepNames) }
func (a ShutdownAnim) String() string { return enumName(int(a), shutdownNames) }

func (a BootAnim) MarshalText() ([]byte, error)     { return []byte(a.String()), nil }
func (a AwakeAnim) MarshalText() ([]byte, error)    { return []byte(a.String()), nil }
func (a SleepAnim) MarshalText() ([]byte, error)    { return []byte(a.String()), nil }
func (a ShutdownAnim) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *BootAnim) UnmarshalText(b []byte) error {
	i, err := parseEnum(string(b), bootNames)
	*a = BootAnim(i)
	return err
}

func (a *AwakeAnim) UnmarshalText(b []byte) error {
	i, err := parseEnum(string(b), awakeNames)
	*a = AwakeAnim(i)
	return err
}

func (a *SleepAnim) UnmarshalText(b []byte) error {
	i, err := parseEnum(string(b), sleepNames)
	*a = SleepAnim(i)
	return err
}

func (a *ShutdownAnim) UnmarshalText(b []byte) error {
	i, err := parseEnum(string(b), shutdownNames)
	*a = ShutdownAnim(i)
	return err
}

// Builtins is the selection of builtin animations for every stage.
type Builtins struct {
	Boot     BootAnim     `yaml:"boot" toml:"boot" json:"boot"`
	Awake    AwakeAnim    `yaml:"awake" toml:"awake" json:"awake"`
	Sleep    SleepAnim    `yaml:"sleep" toml:"sleep" json:"sleep"`
	Shutdown ShutdownAnim `yaml:"shutdown" toml:"shutdown" json:"shutdown"`
}

// Packet returns the selection report for these builtins.
func (b Builtins) Packet() []byte {
	return PktSetBuiltinAnimations(b.Boot, b.Awake, b.Sleep, b.Shutdown)
}

func enumName(i int, names []string) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("%d", i)
}

func parseEnum(s string, names []string) (int, error) {
	for i, n := range names {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown value %q, expected one of %s", s, strings.Join(names, ", "))
}
