// Package layout computes 2D node positions for task graphs and memoizes them
// by graph structure, so redraws skip the expensive part unless topology
// changed. Layouts are deterministic: identical topology yields identical
// positions across runs and processes.
package layout

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/missiondeck/missiondeck/internal/schema"
)

// layoutSeed fixes the pseudo-random initial placement so layouts are
// reproducible.
const layoutSeed = 42

const springIterations = 50

// Point is a computed node position in layout space (roughly [-1,1]^2).
type Point struct {
	X float64
	Y float64
}

// Engine caches computed positions keyed by layout algorithm and structure
// hash. The cache is unbounded: a single session holds dozens of topologies
// at most.
type Engine struct {
	mu    sync.Mutex
	cache map[string]map[string]Point
}

// NewEngine returns an empty engine.
func NewEngine() *Engine {
	return &Engine{cache: make(map[string]map[string]Point)}
}

// Positions returns a position for every node id in the graph. Cache hits are
// decided purely by topology: node-id set and edge set, labels excluded.
// Unknown algorithm names fall back to spring.
func (e *Engine) Positions(g schema.TaskGraph) map[string]Point {
	if len(g.Nodes) == 0 {
		return map[string]Point{}
	}

	algo := normalizeAlgorithm(g.Layout.Algorithm)
	key := fmt.Sprintf("%s_%s", algo, StructureHash(g))

	e.mu.Lock()
	if pos, ok := e.cache[key]; ok {
		e.mu.Unlock()
		return clonePositions(pos)
	}
	e.mu.Unlock()

	var pos map[string]Point
	switch algo {
	case schema.LayoutCircular:
		pos = circularLayout(g)
	case schema.LayoutHierarchical:
		// Approximated by spring with wider spacing.
		pos = springLayout(g, 1.5)
	default:
		pos = springLayout(g, 1.0)
	}

	e.mu.Lock()
	e.cache[key] = pos
	e.mu.Unlock()
	return clonePositions(pos)
}

// CacheSize reports the number of memoized layouts.
func (e *Engine) CacheSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache)
}

func normalizeAlgorithm(a schema.LayoutAlgorithm) schema.LayoutAlgorithm {
	switch a {
	case schema.LayoutCircular, schema.LayoutHierarchical, schema.LayoutSpring:
		return a
	default:
		return schema.LayoutSpring
	}
}

// StructureHash hashes the sorted node-id list and sorted edge pairs. Labels
// and edge kinds are presentation, not topology, and are excluded.
func StructureHash(g schema.TaskGraph) string {
	nodes := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		nodes[i] = n.ID
	}
	sort.Strings(nodes)

	edges := make([]string, len(g.Edges))
	for i, e := range g.Edges {
		edges[i] = e.Source + ">" + e.Target
	}
	sort.Strings(edges)

	sum := md5.Sum([]byte("nodes:" + strings.Join(nodes, ",") + "_edges:" + strings.Join(edges, ",")))
	return hex.EncodeToString(sum[:])
}

func clonePositions(pos map[string]Point) map[string]Point {
	out := make(map[string]Point, len(pos))
	for id, p := range pos {
		out[id] = p
	}
	return out
}

// circularLayout places nodes evenly on the unit circle, ordered by id for
// determinism.
func circularLayout(g schema.TaskGraph) map[string]Point {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	sort.Strings(ids)

	pos := make(map[string]Point, len(ids))
	for i, id := range ids {
		theta := 2 * math.Pi * float64(i) / float64(len(ids))
		pos[id] = Point{X: math.Cos(theta), Y: math.Sin(theta)}
	}
	return pos
}

// springLayout is a Fruchterman-Reingold force simulation with a fixed seed.
// k scales the ideal edge length relative to the unit square.
func springLayout(g schema.TaskGraph, k float64) map[string]Point {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	sort.Strings(ids)

	n := len(ids)
	index := make(map[string]int, n)
	for i, id := range ids {
		index[id] = i
	}

	rng := rand.New(rand.NewSource(layoutSeed))
	px := make([]float64, n)
	py := make([]float64, n)
	for i := range ids {
		px[i] = rng.Float64()*2 - 1
		py[i] = rng.Float64()*2 - 1
	}

	if n == 1 {
		return map[string]Point{ids[0]: {X: 0, Y: 0}}
	}

	type edge struct{ a, b int }
	var edges []edge
	for _, e := range g.Edges {
		ai, aok := index[e.Source]
		bi, bok := index[e.Target]
		if aok && bok && ai != bi {
			edges = append(edges, edge{ai, bi})
		}
	}

	ideal := k * math.Sqrt(4.0/float64(n))
	temp := 0.1
	cool := temp / float64(springIterations+1)

	dx := make([]float64, n)
	dy := make([]float64, n)
	for iter := 0; iter < springIterations; iter++ {
		for i := range dx {
			dx[i], dy[i] = 0, 0
		}
		// Repulsion between every pair.
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				ddx := px[i] - px[j]
				ddy := py[i] - py[j]
				dist := math.Hypot(ddx, ddy)
				if dist < 1e-9 {
					dist = 1e-9
					ddx = 1e-9
				}
				force := ideal * ideal / dist
				fx := ddx / dist * force
				fy := ddy / dist * force
				dx[i] += fx
				dy[i] += fy
				dx[j] -= fx
				dy[j] -= fy
			}
		}
		// Attraction along edges.
		for _, e := range edges {
			ddx := px[e.a] - px[e.b]
			ddy := py[e.a] - py[e.b]
			dist := math.Hypot(ddx, ddy)
			if dist < 1e-9 {
				continue
			}
			force := dist * dist / ideal
			fx := ddx / dist * force
			fy := ddy / dist * force
			dx[e.a] -= fx
			dy[e.a] -= fy
			dx[e.b] += fx
			dy[e.b] += fy
		}
		// Displace, capped by temperature.
		for i := 0; i < n; i++ {
			disp := math.Hypot(dx[i], dy[i])
			if disp < 1e-9 {
				continue
			}
			step := math.Min(disp, temp)
			px[i] += dx[i] / disp * step
			py[i] += dy[i] / disp * step
		}
		temp -= cool
	}

	// Rescale into [-1,1]^2.
	minX, maxX := px[0], px[0]
	minY, maxY := py[0], py[0]
	for i := 1; i < n; i++ {
		minX = math.Min(minX, px[i])
		maxX = math.Max(maxX, px[i])
		minY = math.Min(minY, py[i])
		maxY = math.Max(maxY, py[i])
	}
	spanX := maxX - minX
	spanY := maxY - minY
	if spanX < 1e-9 {
		spanX = 1
	}
	if spanY < 1e-9 {
		spanY = 1
	}

	pos := make(map[string]Point, n)
	for i, id := range ids {
		pos[id] = Point{
			X: (px[i]-minX)/spanX*2 - 1,
			Y: (py[i]-minY)/spanY*2 - 1,
		}
	}
	return pos
}
