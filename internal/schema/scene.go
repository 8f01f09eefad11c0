package schema

import (
	"encoding/json"
	"fmt"
)

// Point is a 2D scene coordinate. It marshals as a two-element array to match
// the [[x,y], ...] wire shape used for polygons and trajectories.
type Point struct {
	X float64
	Y float64
}

// MarshalJSON encodes the point as [x, y].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON decodes [x, y].
func (p *Point) UnmarshalJSON(data []byte) error {
	var arr [2]float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	p.X, p.Y = arr[0], arr[1]
	return nil
}

// AgentMarker is the render-ready representation of an agent. It is
// deliberately a different shape from the logical Agent entity: the scene
// carries only what a canvas needs to draw.
type AgentMarker struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Color  string  `json:"color"`
	Symbol string  `json:"symbol"`
}

// Target is a point of interest. Inactive targets are excluded from rendering
// entirely, not merely dimmed.
type Target struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Color  string  `json:"color"`
	Active bool    `json:"active"`
}

// RegionKind discriminates the region tagged union.
type RegionKind string

const (
	RegionCircle  RegionKind = "circle"
	RegionPolygon RegionKind = "polygon"
)

// Region is a highlighted area of the scene: a circle (Center, Radius) or a
// polygon (Points), selected by Kind.
type Region struct {
	Kind   RegionKind `json:"type"`
	Color  string     `json:"color"`
	Center Point      `json:"center,omitempty"`
	Radius float64    `json:"radius,omitempty"`
	Points []Point    `json:"points,omitempty"`
}

// Validate rejects regions whose variant fields do not match their kind.
func (r Region) Validate() error {
	switch r.Kind {
	case RegionCircle:
		if r.Radius < 0 {
			return fmt.Errorf("circle region: negative radius %v", r.Radius)
		}
	case RegionPolygon:
		if len(r.Points) < 3 {
			return fmt.Errorf("polygon region: %d points, need at least 3", len(r.Points))
		}
	default:
		return fmt.Errorf("region: unknown kind %q", r.Kind)
	}
	return nil
}

// Trajectory is a colored polyline.
type Trajectory struct {
	Points []Point `json:"points"`
	Color  string  `json:"color"`
}

// Limits is the axis-aligned bounding box of the scene. It must enclose all
// finite-coordinate content or rendering clips.
type Limits struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
}

// Width returns the horizontal extent.
func (l Limits) Width() float64 { return l.XMax - l.XMin }

// Height returns the vertical extent.
func (l Limits) Height() float64 { return l.YMax - l.YMin }

// Contains reports whether the point lies inside the box.
func (l Limits) Contains(p Point) bool {
	return p.X >= l.XMin && p.X <= l.XMax && p.Y >= l.YMin && p.Y <= l.YMax
}

// SceneSnapshot is a point-in-time render-ready description of the scene.
type SceneSnapshot struct {
	Agents       []AgentMarker `json:"agents"`
	Targets      []Target      `json:"targets"`
	Regions      []Region      `json:"regions"`
	Trajectories []Trajectory  `json:"trajectories"`
	Time         float64       `json:"time"`
	Limits       Limits        `json:"limits"`
}

// Clone returns a deep copy.
func (s SceneSnapshot) Clone() SceneSnapshot {
	out := s
	out.Agents = append([]AgentMarker(nil), s.Agents...)
	out.Targets = append([]Target(nil), s.Targets...)
	out.Regions = make([]Region, len(s.Regions))
	for i, r := range s.Regions {
		out.Regions[i] = r
		out.Regions[i].Points = append([]Point(nil), r.Points...)
	}
	out.Trajectories = make([]Trajectory, len(s.Trajectories))
	for i, t := range s.Trajectories {
		out.Trajectories[i] = Trajectory{
			Points: append([]Point(nil), t.Points...),
			Color:  t.Color,
		}
	}
	return out
}

// EventSource tags where a scene interaction originated: the read-only view
// panel or the editable design panel.
type EventSource string

const (
	EventSourceView   EventSource = "view"
	EventSourceDesign EventSource = "design"
)

// EventType is the kind of scene interaction.
type EventType string

const (
	EventMousePress       EventType = "mouse_press"
	EventMouseDoubleClick EventType = "mouse_double_click"
	EventWheel            EventType = "wheel"
)

// MouseButton identifies the button for press events.
type MouseButton string

const (
	ButtonLeft    MouseButton = "left"
	ButtonRight   MouseButton = "right"
	ButtonMiddle  MouseButton = "middle"
	ButtonUnknown MouseButton = "unknown"
)

// SceneEvent is a raw interaction event forwarded from a scene panel to the
// mediator. Delta is populated for wheel events only.
type SceneEvent struct {
	Source    EventSource `json:"source"`
	Type      EventType   `json:"type"`
	Button    MouseButton `json:"button,omitempty"`
	ScenePos  Point       `json:"scene_pos"`
	Delta     int         `json:"delta,omitempty"`
	Modifiers int         `json:"modifiers"`
	HitCount  int         `json:"hit_count"`
}
