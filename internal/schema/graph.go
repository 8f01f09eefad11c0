package schema

// EdgeKind distinguishes precedence edges from concurrency edges. This is a
// display hint, not a scheduling guarantee: sequence edges render as directed
// arrows, parallel edges as undirected dashed lines.
type EdgeKind string

const (
	EdgeSequence EdgeKind = "sequence"
	EdgeParallel EdgeKind = "parallel"
)

// LayoutAlgorithm names a graph layout strategy. Unknown names fall back to
// spring.
type LayoutAlgorithm string

const (
	LayoutSpring       LayoutAlgorithm = "spring"
	LayoutCircular     LayoutAlgorithm = "circular"
	LayoutHierarchical LayoutAlgorithm = "hierarchical"
)

// GraphNode is a task-graph node. Labels are presentation only and do not
// participate in layout identity.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// GraphEdge is a directed dependency between two nodes.
type GraphEdge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"type"`
}

// LayoutConfig carries the layout hint for a graph.
type LayoutConfig struct {
	Algorithm LayoutAlgorithm `json:"algorithm"`
}

// TaskGraph describes logical dependencies between tasks.
type TaskGraph struct {
	Nodes  []GraphNode  `json:"nodes"`
	Edges  []GraphEdge  `json:"edges"`
	Layout LayoutConfig `json:"layout"`
}

// EmptyTaskGraph is the documented neutral value for backends without a
// dependency model: no nodes, no edges, spring layout.
func EmptyTaskGraph() TaskGraph {
	return TaskGraph{
		Nodes:  []GraphNode{},
		Edges:  []GraphEdge{},
		Layout: LayoutConfig{Algorithm: LayoutSpring},
	}
}

// Clone returns a deep copy.
func (g TaskGraph) Clone() TaskGraph {
	return TaskGraph{
		Nodes:  append([]GraphNode(nil), g.Nodes...),
		Edges:  append([]GraphEdge(nil), g.Edges...),
		Layout: g.Layout,
	}
}
