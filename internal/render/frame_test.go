package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breachline/internal/config"
	"breachline/internal/game"
	"breachline/internal/game/spatial"
)

func TestFrameSizes(t *testing.T) {
	for _, mode := range []game.Mode{game.ModeArena, game.ModeExtraction} {
		t.Run(mode.String(), func(t *testing.T) {
			g := game.New(config.SimConfig{}, 42, mode, game.DefaultLoadout(mode))
			for i := 0; i < 120; i++ {
				g.Tick(game.Input{Aim: spatial.V(1, 0), FireHeld: true})
			}

			img := Frame(g.Snapshot(), Options{Width: 320, Height: 240})
			assert.Equal(t, 320, img.Bounds().Dx())
			assert.Equal(t, 240, img.Bounds().Dy())

			follow := Frame(g.Snapshot(), Options{Width: 200, Height: 200, Follow: true, ViewRadius: 300})
			// The player is drawn at the center of a follow view, aiming right.
			r, gr, b, _ := follow.At(97, 100).RGBA()
			assert.Equal(t, [3]uint32{0, 220, 255}, [3]uint32{r >> 8, gr >> 8, b >> 8})
		})
	}
}

func TestFrameWithoutWorld(t *testing.T) {
	img := Frame(game.Snapshot{}, Options{})
	d := DefaultOptions()
	assert.Equal(t, d.Width, img.Bounds().Dx())
	assert.Equal(t, d.Height, img.Bounds().Dy())
}

func TestWritePNG(t *testing.T) {
	g := game.New(config.SimConfig{}, 7, game.ModeArena, game.DefaultLoadout(game.ModeArena))
	g.State.GameOver = true

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, g.Snapshot(), Options{Width: 160, Height: 120}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())
}
