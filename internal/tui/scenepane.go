package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/missiondeck/missiondeck/internal/canvas"
	"github.com/missiondeck/missiondeck/internal/schema"
)

// scenePane rasterizes the scene snapshot into a character grid. It owns one
// asciiSurface registered with the canvas manager, so overlay lifecycle rules
// (release then recreate, inactive-target filtering) apply to the terminal
// renderer exactly as they would to a graphical one.
type scenePane struct {
	manager *canvas.Manager
	surface *asciiSurface
	id      canvas.ID

	width  int
	height int

	editing   bool
	hasCursor bool
	cursorX   float64
	cursorY   float64
	sceneTime float64
	hasScene  bool
}

func newScenePane(zoom canvas.ZoomRange) *scenePane {
	surface := newASCIISurface()
	manager := canvas.NewManager(zoom)
	p := &scenePane{
		manager: manager,
		surface: surface,
		id:      manager.Register(surface),
		width:   80,
		height:  24,
	}
	return p
}

func (p *scenePane) resize(width, height int) {
	if width < 20 {
		width = 20
	}
	if height < 8 {
		height = 8
	}
	p.width = width
	p.height = height
}

// render installs a snapshot through the canvas manager. The cursor starts at
// the scene center the first time limits are known.
func (p *scenePane) render(scene schema.SceneSnapshot) error {
	if err := p.manager.RenderSceneUpdate(p.id, scene); err != nil {
		return err
	}
	p.sceneTime = scene.Time
	p.hasScene = true
	if !p.hasCursor {
		p.cursorX = scene.Limits.XMin + scene.Limits.Width()/2
		p.cursorY = scene.Limits.YMin + scene.Limits.Height()/2
		p.hasCursor = true
	}
	return nil
}

// moveCursor steps the cursor in world coordinates, one raster cell per press,
// clamped to the scene limits.
func (p *scenePane) moveCursor(dx, dy int) {
	if !p.hasScene {
		return
	}
	limits := p.surface.limits
	stepX := limits.Width() / float64(max(p.width-1, 1))
	stepY := limits.Height() / float64(max(p.height-1, 1))
	p.cursorX = clamp(p.cursorX+float64(dx)*stepX, limits.XMin, limits.XMax)
	p.cursorY = clamp(p.cursorY+float64(dy)*stepY, limits.YMin, limits.YMax)
}

func (p *scenePane) toggleEditing() {
	p.editing = !p.editing
}

// doubleClickEvent builds a double-click event at the cursor. Only the design
// panel edits targets; the source tag tells the backend which rules apply.
// The caller delivers the event off the model goroutine.
func (p *scenePane) doubleClickEvent() (schema.SceneEvent, bool) {
	if !p.hasScene {
		return schema.SceneEvent{}, false
	}
	source := schema.EventSourceView
	if p.editing {
		source = schema.EventSourceDesign
	}
	return schema.SceneEvent{
		Source:   source,
		Type:     schema.EventMouseDoubleClick,
		Button:   schema.ButtonLeft,
		ScenePos: schema.Point{X: p.cursorX, Y: p.cursorY},
		HitCount: 2,
	}, true
}

func (p *scenePane) view() string {
	if !p.hasScene {
		return "\n  Waiting for scene data...\n"
	}

	grid := p.surface.rasterize(p.width, p.height)

	// The cursor never erases content: on an occupied cell it highlights the
	// occupant instead of replacing it.
	if col, row, ok := p.surface.toCell(p.cursorX, p.cursorY, p.width, p.height); ok {
		c := &grid[row][col]
		if c.glyph == " " {
			c.glyph = "+"
			c.style = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
		} else {
			c.style = c.style.Background(warningColor)
		}
	}

	var b strings.Builder
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  t=%.1f  cursor=(%.1f, %.1f)", p.sceneTime, p.cursorX, p.cursorY)))
	b.WriteString("\n")
	for _, row := range grid {
		for _, c := range row {
			if c.glyph == " " {
				b.WriteString(" ")
				continue
			}
			b.WriteString(c.style.Render(c.glyph))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// cell is one raster position: the glyph and its style kept separate so the
// cursor pass can restyle without re-parsing rendered output.
type cell struct {
	glyph string
	style lipgloss.Style
}

// asciiSurface implements canvas.Surface over retained scene content. The
// manager hands it regions and trajectories as tracked items; markers and
// targets arrive by bulk set.
type asciiSurface struct {
	next         canvas.ItemHandle
	regions      map[canvas.ItemHandle]schema.Region
	trajectories map[canvas.ItemHandle]schema.Trajectory
	markers      []schema.AgentMarker
	targets      []schema.Target
	limits       schema.Limits
	zoom         canvas.ZoomRange
}

func newASCIISurface() *asciiSurface {
	return &asciiSurface{
		regions:      make(map[canvas.ItemHandle]schema.Region),
		trajectories: make(map[canvas.ItemHandle]schema.Trajectory),
		limits:       schema.Limits{XMax: 100, YMax: 100},
	}
}

func (s *asciiSurface) AddRegion(r schema.Region) canvas.ItemHandle {
	s.next++
	s.regions[s.next] = r
	return s.next
}

func (s *asciiSurface) AddTrajectory(t schema.Trajectory) canvas.ItemHandle {
	s.next++
	s.trajectories[s.next] = t
	return s.next
}

func (s *asciiSurface) RemoveItem(h canvas.ItemHandle) {
	delete(s.regions, h)
	delete(s.trajectories, h)
}

func (s *asciiSurface) SetAgentMarkers(markers []schema.AgentMarker) {
	s.markers = markers
}

func (s *asciiSurface) SetTargets(targets []schema.Target) {
	s.targets = targets
}

func (s *asciiSurface) SetBackground(img canvas.BackgroundImage, t canvas.Transform) {
	// A terminal cannot show the image itself; placement is still computed by
	// the manager so a graphical surface would drop in without changes.
}

func (s *asciiSurface) SetViewLimits(limits schema.Limits, zoom canvas.ZoomRange) {
	s.limits = limits
	s.zoom = zoom
}

// toCell maps world coordinates to a grid cell. Y grows upward in the scene
// and downward on screen.
func (s *asciiSurface) toCell(x, y float64, width, height int) (col, row int, ok bool) {
	w := s.limits.Width()
	h := s.limits.Height()
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	col = int(math.Round((x - s.limits.XMin) / w * float64(width-1)))
	row = (height - 1) - int(math.Round((y-s.limits.YMin)/h*float64(height-1)))
	if col < 0 || col >= width || row < 0 || row >= height {
		return 0, 0, false
	}
	return col, row, true
}

// rasterize paints retained content into a fresh cell grid, back to front:
// regions, trajectories, targets, then agents.
func (s *asciiSurface) rasterize(width, height int) [][]cell {
	grid := make([][]cell, height)
	for r := range grid {
		grid[r] = make([]cell, width)
		for c := range grid[r] {
			grid[r][c] = cell{glyph: " "}
		}
	}

	put := func(x, y float64, glyph string, style lipgloss.Style) {
		if col, row, ok := s.toCell(x, y, width, height); ok {
			grid[row][col] = cell{glyph: glyph, style: style}
		}
	}

	for _, r := range s.regions {
		style := colorStyle(r.Color)
		switch r.Kind {
		case schema.RegionCircle:
			for i := 0; i < 64; i++ {
				theta := 2 * math.Pi * float64(i) / 64
				put(r.Center.X+r.Radius*math.Cos(theta), r.Center.Y+r.Radius*math.Sin(theta), "∙", style)
			}
		case schema.RegionPolygon:
			for i := range r.Points {
				a := r.Points[i]
				b := r.Points[(i+1)%len(r.Points)]
				s.plotLine(put, a, b, "∙", style)
			}
		}
	}

	for _, t := range s.trajectories {
		style := colorStyle(t.Color)
		for i := 0; i+1 < len(t.Points); i++ {
			s.plotLine(put, t.Points[i], t.Points[i+1], "·", style)
		}
	}

	for _, t := range s.targets {
		put(t.X, t.Y, "◆", colorStyle(t.Color))
	}

	for _, m := range s.markers {
		glyph := m.Symbol
		if glyph == "" {
			glyph = "●"
		}
		put(m.X, m.Y, glyph, colorStyle(m.Color))
	}

	return grid
}

// plotLine samples a world-space segment densely enough that no raster cell on
// the path is skipped.
func (s *asciiSurface) plotLine(put func(x, y float64, glyph string, style lipgloss.Style), a, b schema.Point, glyph string, style lipgloss.Style) {
	steps := int(math.Hypot(b.X-a.X, b.Y-a.Y)) * 2
	if steps < 2 {
		steps = 2
	}
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		put(a.X+(b.X-a.X)*f, a.Y+(b.Y-a.Y)*f, glyph, style)
	}
}

func colorStyle(hex string) lipgloss.Style {
	if hex == "" {
		return lipgloss.NewStyle().Foreground(fgColor)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
