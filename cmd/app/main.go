package main

import (
	"fmt"
	"image/color"
	"log"
	"math"
	"os"
	"vehicle-dynamics/internal/common"
	"vehicle-dynamics/internal/config"
	"vehicle-dynamics/internal/hud"
	"vehicle-dynamics/internal/input"
	"vehicle-dynamics/internal/logging"
	"vehicle-dynamics/internal/physics"
	"vehicle-dynamics/internal/sim"
	"vehicle-dynamics/internal/terrain"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/spf13/pflag"
)

// Render window dimensions
const (
	WindowWidth  = 1200
	WindowHeight = 800
)

// PixelsPerMetre is the top-down zoom.
const PixelsPerMetre = 8

var (
	ColorGround   = color.RGBA{40, 60, 40, 255}
	ColorRib      = color.RGBA{90, 90, 90, 255}
	ColorCentre   = color.RGBA{200, 200, 200, 80}
	ColorCar      = color.RGBA{255, 0, 0, 255}
	ColorHeading  = color.RGBA{255, 255, 0, 255}
	ColorWheel    = color.RGBA{20, 20, 20, 255}
	ColorContact  = color.RGBA{50, 255, 50, 255}
	ColorTrail    = color.RGBA{255, 255, 0, 120}
	ColorPanel    = color.RGBA{0, 0, 0, 180}
	ColorSelector = color.RGBA{255, 255, 255, 200}
)

const trailLength = 400

type Game struct {
	Sim      *sim.Simulation
	Route    *terrain.Route
	Ground   *ebiten.Image // heightfield render, nil on flat ground
	Field    *terrain.Heightfield
	Keys     *input.Shared
	Knob     *input.SteeringKnob
	Selector *hud.GearSelector

	SpawnPos mgl64.Vec3
	SpawnRot mgl64.Quat

	Trail []common.Vec2
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Sim.Respawn(g.SpawnPos, g.SpawnRot)
		g.Knob.Reset()
		g.Trail = g.Trail[:0]
	}

	c := physics.Controls{}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		c.Gas = 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) || ebiten.IsKeyPressed(ebiten.KeySpace) {
		c.Brake = 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		c.Steer--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		c.Steer++
	}
	g.Keys.Set(c)

	// Hold G with the brake down and point WASD at a gear; release G to engage.
	var stick common.Vec2
	if ebiten.IsKeyPressed(ebiten.KeyW) {
		stick.Y++
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) {
		stick.Y--
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) {
		stick.X++
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) {
		stick.X--
	}
	g.Selector.Update(ebiten.IsKeyPressed(ebiten.KeyG), c, stick)

	f := g.Sim.Tick()
	if f.Tick%5 == 0 {
		g.Trail = append(g.Trail, common.Vec2{X: f.Position.X(), Y: f.Position.Z()})
		if len(g.Trail) > trailLength {
			g.Trail = g.Trail[len(g.Trail)-trailLength:]
		}
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	f := g.Sim.Snapshot()
	cam := common.Vec2{X: f.Position.X(), Y: f.Position.Z()}

	// World (x, z) to screen with +Z up and the car centred.
	toScreen := func(p common.Vec2) (float32, float32) {
		return float32((p.X-cam.X)*PixelsPerMetre + WindowWidth/2),
			float32(WindowHeight/2 - (p.Y-cam.Y)*PixelsPerMetre)
	}

	screen.Fill(ColorGround)
	if g.Ground != nil {
		op := &ebiten.DrawImageOptions{}
		s := g.Field.CellSize * PixelsPerMetre
		op.GeoM.Scale(s, -s)
		op.GeoM.Translate((g.Field.OriginX-cam.X)*PixelsPerMetre+WindowWidth/2, WindowHeight/2-(g.Field.OriginZ-cam.Y)*PixelsPerMetre)
		screen.DrawImage(g.Ground, op)
	}

	if g.Route != nil {
		for _, wp := range g.Route.Waypoints {
			half := wp.Normal.Scale(wp.Width / 2)
			p1x, p1y := toScreen(wp.Position.Sub(half))
			p2x, p2y := toScreen(wp.Position.Add(half))
			vector.StrokeLine(screen, p1x, p1y, p2x, p2y, 2, ColorRib, true)
		}
		for i := range g.Route.Waypoints {
			p1x, p1y := toScreen(g.Route.At(i).Position)
			p2x, p2y := toScreen(g.Route.At(i + 1).Position)
			vector.StrokeLine(screen, p1x, p1y, p2x, p2y, 1, ColorCentre, true)
		}
	}

	for j := 0; j+1 < len(g.Trail); j++ {
		p1x, p1y := toScreen(g.Trail[j])
		p2x, p2y := toScreen(g.Trail[j+1])
		vector.StrokeLine(screen, p1x, p1y, p2x, p2y, 2, ColorTrail, true)
	}

	g.drawCar(screen, f, toScreen)
	g.drawHUD(screen, f)
	if g.Selector.Open() {
		g.drawSelector(screen)
	}
}

func (g *Game) drawCar(screen *ebiten.Image, f sim.Frame, toScreen func(common.Vec2) (float32, float32)) {
	half := g.Sim.Body.HalfExtents()
	flat := func(local mgl64.Vec3) common.Vec2 {
		w := f.Position.Add(f.Rotation.Rotate(local))
		return common.Vec2{X: w.X(), Y: w.Z()}
	}

	corners := [4]mgl64.Vec3{
		{half.X(), 0, half.Z()},
		{half.X(), 0, -half.Z()},
		{-half.X(), 0, -half.Z()},
		{-half.X(), 0, half.Z()},
	}
	var path vector.Path
	for i, c := range corners {
		sx, sy := toScreen(flat(c))
		if i == 0 {
			path.MoveTo(sx, sy)
		} else {
			path.LineTo(sx, sy)
		}
	}
	path.Close()

	var cs ebiten.ColorScale
	cs.ScaleWithColor(ColorCar)
	vector.FillPath(screen, &path, nil, &vector.DrawPathOptions{
		AntiAlias:  true,
		ColorScale: cs,
	})

	headX, headY := toScreen(flat(mgl64.Vec3{}))
	tipX, tipY := toScreen(flat(mgl64.Vec3{0, 0, half.Z() + 1}))
	vector.StrokeLine(screen, headX, headY, tipX, tipY, 2, ColorHeading, true)

	for _, w := range g.Sim.Vehicle.Wheels() {
		st := w.State()
		centre := common.Vec2{X: st.Frame.Position.X(), Y: st.Frame.Position.Z()}
		dir := common.Vec2{X: st.Frame.Forward.X(), Y: st.Frame.Forward.Z()}.Normalize().Scale(0.4)
		p1x, p1y := toScreen(centre.Sub(dir))
		p2x, p2y := toScreen(centre.Add(dir))
		clr := ColorWheel
		if st.Contact {
			clr = ColorContact
		}
		vector.StrokeLine(screen, p1x, p1y, p2x, p2y, 3, clr, true)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image, f sim.Frame) {
	vector.FillRect(screen, 0, 0, 200, 150, ColorPanel, true)

	r := hud.NewReadout(f.Telemetry)
	msg := "VEHICLE\n"
	msg += "----------------\n"
	msg += r.String() + "\n"
	msg += fmt.Sprintf("Gear:  %d\n", f.Telemetry.Gear+1)
	msg += fmt.Sprintf("Steer: %+.2f\n", g.Sim.Vehicle.WheelRelativeTurn())
	msg += fmt.Sprintf("Contacts: %d/%d\n", f.Telemetry.Contacts, len(g.Sim.Vehicle.Wheels()))
	msg += "\nArrows drive, R respawn\nG+Space+WASD gear menu"
	ebitenutil.DebugPrint(screen, msg)
}

func (g *Game) drawSelector(screen *ebiten.Image) {
	cx, cy := float32(WindowWidth)-120, float32(WindowHeight)-120
	const radius = 80
	vector.FillCircle(screen, cx, cy, radius+10, ColorPanel, true)
	vector.StrokeCircle(screen, cx, cy, radius, 2, ColorSelector, true)

	// Sector centres, clockwise from straight up.
	labels := []struct {
		text string
		deg  float64
		mode physics.GearMode
	}{
		{"D", 45, physics.Driving},
		{"R", 135, physics.Reverse},
		{"N", 225, physics.Neutral},
		{"P", 315, physics.Parking},
	}
	selected, ok := g.Selector.Selected()
	for _, l := range labels {
		rad := l.deg * math.Pi / 180
		x := cx + float32(math.Sin(rad))*radius*0.7
		y := cy - float32(math.Cos(rad))*radius*0.7
		text := l.text
		if ok && selected == l.mode {
			text = "[" + text + "]"
		}
		ebitenutil.DebugPrintAt(screen, text, int(x)-6, int(y)-8)
	}

	// The arrow angle is counter-clockwise from straight up.
	rad := g.Selector.Arrow() * math.Pi / 180
	tipX := cx - float32(math.Sin(rad))*radius
	tipY := cy - float32(math.Cos(rad))*radius
	vector.StrokeLine(screen, cx, cy, tipX, tipY, 3, ColorHeading, true)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return WindowWidth, WindowHeight
}

// RenderHeightfield shades each sample by height, one pixel per sample.
func RenderHeightfield(hf *terrain.Heightfield, maxHeight float64) *ebiten.Image {
	img := ebiten.NewImage(hf.Width, hf.Depth)
	pixels := make([]byte, hf.Width*hf.Depth*4)
	for z := 0; z < hf.Depth; z++ {
		for x := 0; x < hf.Width; x++ {
			h, _ := hf.Get(x, z)
			shade := byte(40 + 180*common.Clamp(h/maxHeight, 0, 1))
			idx := (z*hf.Width + x) * 4
			pixels[idx] = shade / 2
			pixels[idx+1] = shade
			pixels[idx+2] = shade / 2
			pixels[idx+3] = 255
		}
	}
	img.WritePixels(pixels)
	return img
}

func main() {
	flags := pflag.NewFlagSet("vehicle-app", pflag.ExitOnError)
	cfgPath := flags.StringP("config", "c", "", "config file (json, yaml or toml)")
	flags.String("logLevel", "info", "debug, info, warn or error")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(*cfgPath, flags)
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.Setup(os.Stdout, nil, cfg.LogLevel)

	var probe physics.GroundProbe
	var surface terrain.Surface
	var field *terrain.Heightfield
	if cfg.Terrain.Heightmap != "" {
		field, err = terrain.LoadHeightmap(cfg.Terrain.Heightmap, cfg.Terrain.CellSize, cfg.Terrain.MaxHeight)
		if err != nil {
			log.Fatal(err)
		}
		probe, surface = field, field
	} else {
		plane := terrain.Plane{Height: cfg.Terrain.Height}
		probe, surface = plane, plane
	}

	tuning, err := cfg.Tuning()
	if err != nil {
		log.Fatal(err)
	}
	wheels, err := cfg.WheelSpecs()
	if err != nil {
		log.Fatal(err)
	}
	body, err := sim.NewRigidBody(cfg.Body.Mass, cfg.HalfExtents())
	if err != nil {
		log.Fatal(err)
	}
	body.SetDamping(cfg.Body.Damping)

	route := terrain.NewLoopRoute(cfg.Route.RadiusX, cfg.Route.RadiusZ, cfg.Route.Samples, cfg.Route.Width)
	spawnPos, spawnRot := sim.SpawnPose(route, surface, cfg.Route.SpawnWaypoint, cfg.Route.Clearance)
	body.Teleport(spawnPos, spawnRot)

	vehicle, err := physics.NewVehicle(tuning, wheels, body, probe,
		physics.WithLogger(logger.With("vehicle", cfg.Vehicle.Name)))
	if err != nil {
		log.Fatal(err)
	}

	keys := &input.Shared{}
	smooth := input.Smooth(keys)
	game := &Game{
		Sim:      sim.New(vehicle, body, smooth, cfg.TickDuration()),
		Route:    route,
		Field:    field,
		Keys:     keys,
		Knob:     smooth.Knob,
		Selector: hud.NewGearSelector(vehicle),
		SpawnPos: spawnPos,
		SpawnRot: spawnRot,
	}
	if field != nil {
		game.Ground = RenderHeightfield(field, cfg.Terrain.MaxHeight)
	}

	ebiten.SetWindowSize(WindowWidth, WindowHeight)
	ebiten.SetWindowTitle("Vehicle Dynamics")
	ebiten.SetTPS(int(math.Round(cfg.TickRate)))

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
