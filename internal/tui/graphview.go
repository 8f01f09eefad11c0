package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/missiondeck/missiondeck/internal/layout"
	"github.com/missiondeck/missiondeck/internal/schema"
)

// graphView draws the task dependency graph on a character grid using the
// positions from the layout engine. Sequence edges render as solid directed
// lines, parallel edges as dashed undirected ones.
type graphView struct {
	engine *layout.Engine
	graph  schema.TaskGraph
	has    bool
}

func newGraphView(engine *layout.Engine) *graphView {
	return &graphView{engine: engine}
}

func (g *graphView) setGraph(graph schema.TaskGraph) {
	g.graph = graph
	g.has = true
}

func (g *graphView) view(width, height int) string {
	if !g.has || len(g.graph.Nodes) == 0 {
		return "\n  No task graph yet.\n"
	}
	if width < 20 {
		width = 20
	}
	if height < 8 {
		height = 8
	}
	// Reserve a margin so node labels do not clip at the edges.
	gw := width - 4
	gh := height - 2

	pos := g.engine.Positions(g.graph)

	grid := make([][]string, gh)
	for r := range grid {
		grid[r] = make([]string, gw)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}

	// Layout space is [-1,1]^2 with Y up; the grid has Y down.
	toCell := func(p layout.Point) (col, row int) {
		col = int(math.Round((p.X + 1) / 2 * float64(gw-1)))
		row = int(math.Round((1 - p.Y) / 2 * float64(gh-1)))
		return
	}
	put := func(col, row int, cell string) {
		if col >= 0 && col < gw && row >= 0 && row < gh {
			grid[row][col] = cell
		}
	}

	// Edges first so nodes paint over the line ends.
	for _, e := range g.graph.Edges {
		src, sok := pos[e.Source]
		dst, dok := pos[e.Target]
		if !sok || !dok {
			continue
		}
		c0, r0 := toCell(src)
		c1, r1 := toCell(dst)

		steps := max(abs(c1-c0), abs(r1-r0))
		if steps == 0 {
			continue
		}
		for i := 1; i < steps; i++ {
			f := float64(i) / float64(steps)
			col := c0 + int(math.Round(float64(c1-c0)*f))
			row := r0 + int(math.Round(float64(r1-r0)*f))
			if e.Kind == schema.EdgeParallel {
				if i%2 == 0 {
					continue
				}
				put(col, row, mutedStyle.Render("┄"))
			} else {
				put(col, row, mutedStyle.Render("·"))
			}
		}
		if e.Kind == schema.EdgeSequence {
			// Arrowhead one step short of the target node.
			f := float64(steps-1) / float64(steps)
			col := c0 + int(math.Round(float64(c1-c0)*f))
			row := r0 + int(math.Round(float64(r1-r0)*f))
			put(col, row, arrowGlyph(c1-c0, r1-r0))
		}
	}

	for _, n := range g.graph.Nodes {
		p, ok := pos[n.ID]
		if !ok {
			continue
		}
		col, row := toCell(p)
		put(col, row, selectedStyle.Render("◉"))
		label := n.Label
		if label == "" {
			label = n.ID
		}
		runes := []rune(label)
		// Labels sit to the right of the node, flipped left when they would
		// run off the grid.
		start := col + 2
		if start+len(runes) > gw {
			start = col - 1 - len(runes)
		}
		for i, ch := range runes {
			put(start+i, row, mutedStyle.Render(string(ch)))
		}
	}

	var b strings.Builder
	b.WriteString(helpStyle.Render(fmt.Sprintf(
		"  %d tasks, %d dependencies (%s layout)",
		len(g.graph.Nodes), len(g.graph.Edges), g.graph.Layout.Algorithm)))
	b.WriteString("\n")
	for _, row := range grid {
		b.WriteString("  ")
		b.WriteString(strings.Join(row, ""))
		b.WriteString("\n")
	}
	return b.String()
}

func arrowGlyph(dc, dr int) string {
	switch {
	case abs(dc) >= abs(dr) && dc > 0:
		return "▶"
	case abs(dc) >= abs(dr):
		return "◀"
	case dr > 0:
		return "▼"
	default:
		return "▲"
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
