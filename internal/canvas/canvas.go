// Package canvas maintains per-canvas rendering state so that scene updates
// are idempotent and incremental: point layers are bulk-updated in place,
// overlay shapes are released and re-created on every update, and background
// images are placed with cover-fit scaling.
//
// The widget toolkit itself stays out of scope. It appears only as the
// Surface collaborator; anything that can add and remove drawable items can
// host a scene.
package canvas

import "github.com/missiondeck/missiondeck/internal/schema"

// ItemHandle identifies one drawable item on a Surface. Handles are owned
// exclusively by the Manager; no other component may hold them across calls.
type ItemHandle int64

// BackgroundImage references an image layer by path plus pixel dimensions.
type BackgroundImage struct {
	Ref    string
	Width  float64
	Height float64
}

// Transform is the scale-then-translate placement applied to a background
// image.
type Transform struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// ZoomRange bounds user zoom as fractions of the full scene extent, so the
// view can neither scroll into the void nor zoom without limit.
type ZoomRange struct {
	Min float64
	Max float64
}

// DefaultZoomRange allows zooming between 20% and 100% of the full extent.
var DefaultZoomRange = ZoomRange{Min: 0.2, Max: 1.0}

// Surface is what the Manager needs from a canvas widget. Point layers
// (agents, targets) are persistent batched primitives updated by bulk set;
// regions and trajectories are individually tracked items.
type Surface interface {
	AddRegion(r schema.Region) ItemHandle
	AddTrajectory(t schema.Trajectory) ItemHandle
	RemoveItem(h ItemHandle)
	SetAgentMarkers(markers []schema.AgentMarker)
	SetTargets(targets []schema.Target)
	SetBackground(img BackgroundImage, t Transform)
	SetViewLimits(limits schema.Limits, zoom ZoomRange)
}

// CoverFit computes the uniform placement of an image over the logical
// viewport: scale by the larger of the width/height ratios so the image fills
// the viewport even if it overflows, then translate to the lower-left corner
// of the limits.
func CoverFit(limits schema.Limits, imgWidth, imgHeight float64) Transform {
	if imgWidth <= 0 || imgHeight <= 0 {
		return Transform{Scale: 1, TranslateX: limits.XMin, TranslateY: limits.YMin}
	}
	sx := limits.Width() / imgWidth
	sy := limits.Height() / imgHeight
	scale := sx
	if sy > scale {
		scale = sy
	}
	return Transform{Scale: scale, TranslateX: limits.XMin, TranslateY: limits.YMin}
}
