package anime

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawer(t *testing.T) {
	s, rec := recordedSession(GA402)
	d := NewDrawer(s, DefaultPlacement())
	assert.Equal(t, "AniMe GA402", d.String())
	assert.Equal(t, GA402.Rows(), d.Bounds().Dy())

	require.NoError(t, d.Draw(d.Bounds(), image.NewUniform(color.White), image.Point{}))
	pkts := written(rec)
	require.Len(t, pkts, GA402.Panes()+1)
	assert.Equal(t, byte(255), pkts[0][blockStart])

	require.NoError(t, d.Halt())
	pkts = written(rec)
	require.Len(t, pkts, 2*(GA402.Panes()+1))
	assert.Equal(t, byte(0), pkts[GA402.Panes()+1][blockStart])
}
