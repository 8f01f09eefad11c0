package layout

import (
	"testing"

	"github.com/missiondeck/missiondeck/internal/schema"
)

func chainGraph(algo schema.LayoutAlgorithm) schema.TaskGraph {
	return schema.TaskGraph{
		Nodes: []schema.GraphNode{
			{ID: "t1", Label: "patrol"},
			{ID: "t2", Label: "survey"},
			{ID: "t3", Label: "strike"},
		},
		Edges: []schema.GraphEdge{
			{Source: "t1", Target: "t2", Kind: schema.EdgeSequence},
			{Source: "t2", Target: "t3", Kind: schema.EdgeSequence},
		},
		Layout: schema.LayoutConfig{Algorithm: algo},
	}
}

func TestPositionsDeterministic(t *testing.T) {
	for _, algo := range []schema.LayoutAlgorithm{schema.LayoutSpring, schema.LayoutCircular, schema.LayoutHierarchical} {
		a := NewEngine().Positions(chainGraph(algo))
		b := NewEngine().Positions(chainGraph(algo))
		if len(a) != 3 {
			t.Fatalf("%s: %d positions, want 3", algo, len(a))
		}
		for id, p := range a {
			if b[id] != p {
				t.Fatalf("%s: node %s moved across engines: %+v vs %+v", algo, id, p, b[id])
			}
		}
	}
}

func TestLabelChangeHitsCache(t *testing.T) {
	e := NewEngine()
	g := chainGraph(schema.LayoutSpring)
	first := e.Positions(g)

	relabeled := g.Clone()
	for i := range relabeled.Nodes {
		relabeled.Nodes[i].Label = "renamed"
	}
	second := e.Positions(relabeled)

	if e.CacheSize() != 1 {
		t.Fatalf("cache size = %d after label-only change, want 1", e.CacheSize())
	}
	for id, p := range first {
		if second[id] != p {
			t.Fatalf("node %s moved after a label-only change", id)
		}
	}
}

func TestTopologyChangeMissesCache(t *testing.T) {
	e := NewEngine()
	g := chainGraph(schema.LayoutSpring)
	e.Positions(g)

	extended := g.Clone()
	extended.Nodes = append(extended.Nodes, schema.GraphNode{ID: "t4", Label: "refuel"})
	extended.Edges = append(extended.Edges, schema.GraphEdge{Source: "t3", Target: "t4", Kind: schema.EdgeSequence})
	e.Positions(extended)

	if e.CacheSize() != 2 {
		t.Fatalf("cache size = %d after topology change, want 2", e.CacheSize())
	}
}

func TestStructureHashIgnoresOrderAndLabels(t *testing.T) {
	g := chainGraph(schema.LayoutSpring)

	shuffled := g.Clone()
	shuffled.Nodes[0], shuffled.Nodes[2] = shuffled.Nodes[2], shuffled.Nodes[0]
	shuffled.Edges[0], shuffled.Edges[1] = shuffled.Edges[1], shuffled.Edges[0]
	shuffled.Nodes[1].Label = "other"

	if StructureHash(g) != StructureHash(shuffled) {
		t.Fatal("hash changed under reordering and relabeling")
	}

	reversed := g.Clone()
	reversed.Edges[0].Source, reversed.Edges[0].Target = reversed.Edges[0].Target, reversed.Edges[0].Source
	if StructureHash(g) == StructureHash(reversed) {
		t.Fatal("hash ignored edge direction")
	}
}

func TestUnknownAlgorithmFallsBackToSpring(t *testing.T) {
	e := NewEngine()
	spring := e.Positions(chainGraph(schema.LayoutSpring))
	weird := e.Positions(chainGraph(schema.LayoutAlgorithm("voronoi")))

	if e.CacheSize() != 1 {
		t.Fatalf("cache size = %d, want 1 shared entry", e.CacheSize())
	}
	for id, p := range spring {
		if weird[id] != p {
			t.Fatalf("node %s differs between spring and fallback", id)
		}
	}
}

func TestEmptyGraph(t *testing.T) {
	pos := NewEngine().Positions(schema.EmptyTaskGraph())
	if len(pos) != 0 {
		t.Fatalf("empty graph produced %d positions", len(pos))
	}
}

func TestPositionsReturnsCopies(t *testing.T) {
	e := NewEngine()
	g := chainGraph(schema.LayoutCircular)

	first := e.Positions(g)
	first["t1"] = Point{X: 99, Y: 99}

	second := e.Positions(g)
	if second["t1"] == (Point{X: 99, Y: 99}) {
		t.Fatal("caller mutation leaked into the cache")
	}
}
