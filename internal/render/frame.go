// Package render draws a top-down debug frame of a world snapshot.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"

	"breachline/internal/game"
	"breachline/internal/game/spatial"
)

// Options control the frame size and viewport.
type Options struct {
	Width, Height int
	// Follow centers the view on the player with ViewRadius world units of
	// context; otherwise the whole map is fitted.
	Follow     bool
	ViewRadius float64
}

// DefaultOptions fits the whole map into a 960x720 frame.
func DefaultOptions() Options {
	return Options{Width: 960, Height: 720, ViewRadius: 700}
}

var (
	colBackground = color.RGBA{12, 12, 28, 255}
	colGrid       = color.RGBA{30, 30, 45, 255}
	colObstacle   = color.RGBA{70, 78, 96, 255}
	colCrateWood  = color.RGBA{150, 105, 60, 255}
	colPlayer     = color.RGBA{0, 220, 255, 255}
	colBullet     = color.RGBA{255, 240, 120, 255}
	colEnemyShot  = color.RGBA{255, 80, 80, 255}
	colGrenade    = color.RGBA{120, 200, 80, 255}
	colCash       = color.RGBA{255, 200, 0, 255}
	colContainer  = color.RGBA{180, 140, 255, 255}
	colExit       = color.RGBA{83, 255, 69, 90}
	colTelegraph  = color.RGBA{255, 62, 62, 180}
	colText       = color.RGBA{230, 230, 240, 255}
)

var enemyColors = map[string]color.RGBA{
	"grunt":  {230, 90, 70, 255},
	"runner": {255, 149, 0, 255},
	"brute":  {170, 40, 40, 255},
	"gunner": {220, 60, 160, 255},
	"sniper": {150, 60, 220, 255},
}

var crateColors = map[game.CrateKind]color.RGBA{
	game.CrateHealth:  {83, 255, 69, 255},
	game.CrateArmor:   {80, 160, 255, 255},
	game.CrateGrenade: {120, 200, 80, 255},
	game.CrateMedkit:  {255, 255, 255, 255},
}

// view maps world coordinates to pixels.
type view struct {
	scale  float64
	ox, oy float64 // World point at pixel (0,0)
}

func (v view) pt(p spatial.Vec2) (float64, float64) {
	return (p.X - v.ox) * v.scale, (p.Y - v.oy) * v.scale
}

func (v view) len(d float64) float64 { return d * v.scale }

func newView(w *game.World, o Options) view {
	fw, fh := float64(o.Width), float64(o.Height)
	if o.Follow && w.Player != nil {
		r := o.ViewRadius
		if r <= 0 {
			r = 700
		}
		scale := math.Min(fw, fh) / (2 * r)
		return view{
			scale: scale,
			ox:    w.Player.Pos.X - fw/2/scale,
			oy:    w.Player.Pos.Y - fh/2/scale,
		}
	}
	scale := math.Min(fw/w.Bounds.Width, fh/w.Bounds.Height)
	return view{scale: scale}
}

// Frame draws a snapshot. Snapshots without a world give a blank frame.
func Frame(snap game.Snapshot, o Options) image.Image {
	if o.Width <= 0 || o.Height <= 0 {
		d := DefaultOptions()
		o.Width, o.Height = d.Width, d.Height
	}
	dc := gg.NewContext(o.Width, o.Height)
	dc.SetColor(colBackground)
	dc.Clear()

	w := snap.World
	if w == nil || w.Bounds.Width <= 0 || w.Bounds.Height <= 0 {
		return dc.Image()
	}
	v := newView(w, o)

	drawGrid(dc, w, v)
	drawExit(dc, w, v)
	drawObstacles(dc, w, v)
	drawPickups(dc, w, v)
	drawEnemies(dc, w, v)
	drawProjectiles(dc, w, v)
	drawPlayer(dc, w, v)
	drawHUD(dc, w)
	return dc.Image()
}

// WritePNG encodes a frame of snap to out.
func WritePNG(out io.Writer, snap game.Snapshot, o Options) error {
	img := Frame(snap, o)
	dc := gg.NewContextForImage(img)
	if err := dc.EncodePNG(out); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return nil
}

func drawGrid(dc *gg.Context, w *game.World, v view) {
	dc.SetColor(colGrid)
	dc.SetLineWidth(1)
	const gridSize = 200.0
	for x := 0.0; x <= w.Bounds.Width; x += gridSize {
		x0, y0 := v.pt(spatial.V(x, 0))
		x1, y1 := v.pt(spatial.V(x, w.Bounds.Height))
		dc.DrawLine(x0, y0, x1, y1)
	}
	for y := 0.0; y <= w.Bounds.Height; y += gridSize {
		x0, y0 := v.pt(spatial.V(0, y))
		x1, y1 := v.pt(spatial.V(w.Bounds.Width, y))
		dc.DrawLine(x0, y0, x1, y1)
	}
	dc.Stroke()
}

func drawExit(dc *gg.Context, w *game.World, v view) {
	if w.Map == nil {
		return
	}
	x, y := v.pt(w.Map.Exit)
	dc.SetColor(colExit)
	dc.DrawCircle(x, y, v.len(w.Map.ExitRadius))
	dc.Fill()
}

func drawShape(dc *gg.Context, s spatial.Shape, v view) {
	x, y := v.pt(s.Center)
	switch s.Kind {
	case spatial.ShapeCircle:
		dc.DrawCircle(x, y, v.len(s.Radius))
	case spatial.ShapeOBB:
		dc.Push()
		dc.Translate(x, y)
		dc.Rotate(s.Angle)
		dc.DrawRectangle(-v.len(s.Half.X), -v.len(s.Half.Y), v.len(2*s.Half.X), v.len(2*s.Half.Y))
		dc.Pop()
	default:
		dc.DrawRectangle(x-v.len(s.Half.X), y-v.len(s.Half.Y), v.len(2*s.Half.X), v.len(2*s.Half.Y))
	}
}

func drawObstacles(dc *gg.Context, w *game.World, v view) {
	dc.SetColor(colObstacle)
	for _, s := range w.Obstacles {
		drawShape(dc, s, v)
		dc.Fill()
	}
	for _, d := range w.Destructibles {
		c := colCrateWood
		if d.MaxHP > 0 {
			c.A = uint8(120 + 135*d.HP/d.MaxHP)
		}
		dc.SetColor(c)
		drawShape(dc, d.Shape, v)
		dc.Fill()
	}
}

func drawPickups(dc *gg.Context, w *game.World, v view) {
	for _, c := range w.Crates {
		if c.Blinking && (w.Tick/8)%2 == 0 {
			continue
		}
		x, y := v.pt(c.Pos)
		dc.SetColor(crateColors[c.Kind])
		dc.DrawRectangle(x-v.len(10), y-v.len(10), v.len(20), v.len(20))
		dc.Fill()
	}
	dc.SetColor(colCash)
	for _, c := range w.CashPickups {
		x, y := v.pt(c.Pos)
		dc.DrawCircle(x, y, math.Max(v.len(6), 1.5))
		dc.Fill()
	}
	for _, c := range w.Containers {
		x, y := v.pt(c.Pos)
		dc.SetColor(colContainer)
		if c.Searched {
			dc.SetColor(colObstacle)
		}
		dc.DrawRectangle(x-v.len(16), y-v.len(12), v.len(32), v.len(24))
		dc.Fill()
	}
}

func drawEnemies(dc *gg.Context, w *game.World, v view) {
	for _, e := range w.Enemies {
		x, y := v.pt(e.Pos)
		c, ok := enemyColors[e.Type]
		if !ok {
			c = enemyColors["grunt"]
		}
		if !e.Visible {
			c.A = 90
		}
		dc.SetColor(c)
		dc.DrawCircle(x, y, math.Max(v.len(e.Radius), 2))
		dc.Fill()

		if e.Telegraph > 0 {
			tx, ty := v.pt(e.Pos.Add(e.AimDir.Scale(600)))
			dc.SetColor(colTelegraph)
			dc.SetLineWidth(1)
			if e.AimLocked {
				dc.SetLineWidth(2)
			}
			dc.DrawLine(x, y, tx, ty)
			dc.Stroke()
		}

		if e.MaxHP > 0 && e.HP < e.MaxHP {
			bw := math.Max(v.len(2*e.Radius), 8)
			dc.SetColor(color.RGBA{51, 51, 51, 255})
			dc.DrawRectangle(x-bw/2, y-v.len(e.Radius)-5, bw, 3)
			dc.Fill()
			dc.SetColor(color.RGBA{255, 62, 62, 255})
			dc.DrawRectangle(x-bw/2, y-v.len(e.Radius)-5, bw*e.HP/e.MaxHP, 3)
			dc.Fill()
		}
	}
}

func drawProjectiles(dc *gg.Context, w *game.World, v view) {
	dc.SetLineWidth(2)
	dc.SetColor(colBullet)
	for _, p := range w.Projectiles {
		x0, y0 := v.pt(p.PrevPos)
		x1, y1 := v.pt(p.Pos)
		dc.DrawLine(x0, y0, x1, y1)
	}
	dc.Stroke()

	dc.SetColor(colEnemyShot)
	for _, p := range w.EnemyProjectiles {
		x0, y0 := v.pt(p.PrevPos)
		x1, y1 := v.pt(p.Pos)
		dc.DrawLine(x0, y0, x1, y1)
	}
	dc.Stroke()

	dc.SetColor(colGrenade)
	for _, g := range w.Grenades {
		x, y := v.pt(g.Pos)
		dc.DrawCircle(x, y, math.Max(v.len(6+g.Z*0.05), 2))
		dc.Fill()
	}
}

func drawPlayer(dc *gg.Context, w *game.World, v view) {
	p := w.Player
	if p == nil {
		return
	}
	x, y := v.pt(p.Pos)
	r := math.Max(v.len(p.Radius), 3)

	c := colPlayer
	if p.Dodge > 0 {
		c.A = 120
	}
	dc.SetColor(c)
	dc.DrawCircle(x, y, r)
	dc.Fill()

	// Aim line
	ax, ay := v.pt(p.Pos.Add(p.Aim.Scale(p.Radius * 2.5)))
	dc.SetColor(color.White)
	dc.SetLineWidth(2)
	dc.DrawLine(x, y, ax, ay)
	dc.Stroke()
}

func drawHUD(dc *gg.Context, w *game.World) {
	dc.SetColor(color.RGBA{0, 0, 0, 160})
	dc.DrawRectangle(8, 8, 300, 44)
	dc.Fill()

	dc.SetColor(colText)
	hp := 0.0
	if w.Player != nil {
		hp = w.Player.HP
	}
	dc.DrawString(fmt.Sprintf("%s  tick %d  wave %d", w.Mode, w.Tick, w.Spawner.Wave), 16, 26)
	dc.DrawString(fmt.Sprintf("hp %.0f  score %d  cash %d  enemies %d", hp, w.Score, w.Cash, len(w.Enemies)), 16, 44)

	switch {
	case w.GameOver:
		dc.SetColor(color.RGBA{255, 62, 62, 255})
		dc.DrawStringAnchored("GAME OVER", float64(dc.Width())/2, float64(dc.Height())/2, 0.5, 0.5)
	case w.Extracted:
		dc.SetColor(color.RGBA{83, 255, 69, 255})
		dc.DrawStringAnchored("EXTRACTED", float64(dc.Width())/2, float64(dc.Height())/2, 0.5, 0.5)
	}
}
