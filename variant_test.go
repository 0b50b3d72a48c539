package anime

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseVariant(t *testing.T) {
	for _, v := range Variants {
		got, err := ParseVariant(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	got, err := ParseVariant(" ga402 ")
	require.NoError(t, err)
	assert.Equal(t, GA402, got)

	_, err = ParseVariant("GA503")
	assert.ErrorIs(t, err, ErrUnsupportedVariant)
	assert.False(t, Unsupported.Supported())
	assert.Panics(t, func() { Unsupported.Panes() })
}

func TestVariantText(t *testing.T) {
	var doc struct {
		Model Variant `yaml:"model"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("model: gu604"), &doc))
	assert.Equal(t, GU604, doc.Model)
	assert.Error(t, yaml.Unmarshal([]byte("model: G15"), &doc))

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, "model: GU604\n", string(out))
}

func TestRegisterBoard(t *testing.T) {
	RegisterBoard(GA401, "TESTBOARD1")
	assert.Equal(t, GA401, VariantForBoard("testboard1 rev 2"))
	assert.Equal(t, Unsupported, VariantForBoard("NOTHING-KNOWN"))
}

func TestDataLengths(t *testing.T) {
	assert.Equal(t, 627, PaneLength)
	assert.Equal(t, 1254, GA401.DataLength())
	assert.Equal(t, 1881, GA402.DataLength())
	assert.Equal(t, 1881, GU604.DataLength())
}

func TestBuiltinsText(t *testing.T) {
	b := Builtins{Boot: StaticEmergence, Awake: BinaryBannerScroll, Sleep: Starfield, Shutdown: GlitchOut}
	out, err := yaml.Marshal(b)
	require.NoError(t, err)

	var back Builtins
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, b, back)
	assert.Equal(t, PktSetBuiltinAnimations(b.Boot, b.Awake, b.Sleep, b.Shutdown), b.Packet())

	var a AwakeAnim
	assert.Error(t, a.UnmarshalText([]byte("Spin")))

	var br Brightness
	require.NoError(t, br.UnmarshalText([]byte("high")))
	assert.Equal(t, BrightnessHigh, br)
	assert.Equal(t, "Brightness(7)", Brightness(7).String())
	assert.Error(t, br.UnmarshalText([]byte("max")))
}

func TestDeviceAbsentErrors(t *testing.T) {
	for _, err := range []error{
		syscall.ENODEV,
		os.ErrClosed,
		io.ErrClosedPipe,
		fmt.Errorf("write: %w", syscall.EPIPE),
		&DeviceError{Op: "flush", Err: ErrDeviceAbsent},
	} {
		assert.True(t, IsDeviceAbsent(err), "%v", err)
	}
	assert.False(t, IsDeviceAbsent(errors.New("busy")))
	assert.False(t, IsDeviceAbsent(&DeviceError{Op: "flush", Err: syscall.EAGAIN}))

	fe := &FormatError{Source: "a.png", Err: errors.New("bad header")}
	assert.ErrorIs(t, fe, ErrFormat)
	assert.Equal(t, "anime: could not decode a.png: bad header", fe.Error())
}
