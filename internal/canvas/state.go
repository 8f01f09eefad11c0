package canvas

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/missiondeck/missiondeck/internal/schema"
)

// ID is the opaque handle for a registered canvas. Callers never key state by
// widget identity; they hold an ID.
type ID string

// ErrUnknownCanvas is returned when an operation references an unregistered
// handle.
var ErrUnknownCanvas = errors.New("canvas: unknown canvas handle")

// renderState is the mutable per-canvas record. The manager owns every
// overlay and trajectory handle in it.
type renderState struct {
	surface      Surface
	background   *BackgroundImage
	transform    Transform
	regions      []ItemHandle
	trajectories []ItemHandle
}

// Manager keeps exactly one render state per registered canvas and guarantees
// that after every RenderSceneUpdate the canvas shows exactly the current
// snapshot's content, with no orphaned shapes accumulating across calls.
type Manager struct {
	mu     sync.Mutex
	states map[ID]*renderState
	byCanv map[Surface]ID
	zoom   ZoomRange
}

// NewManager returns a manager with the given zoom bounds; a zero ZoomRange
// selects DefaultZoomRange.
func NewManager(zoom ZoomRange) *Manager {
	if zoom == (ZoomRange{}) {
		zoom = DefaultZoomRange
	}
	return &Manager{
		states: make(map[ID]*renderState),
		byCanv: make(map[Surface]ID),
		zoom:   zoom,
	}
}

// Register returns the handle for a surface, creating state on first sight.
// Registering the same surface twice is safe and returns the existing handle.
func (m *Manager) Register(s Surface) ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byCanv[s]; ok {
		return id
	}
	id := ID(uuid.NewString())
	m.states[id] = &renderState{surface: s}
	m.byCanv[s] = id
	return id
}

// Release removes all tracked items from the canvas and forgets its state.
func (m *Manager) Release(id ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return
	}
	clearOverlays(st)
	delete(m.byCanv, st.surface)
	delete(m.states, id)
}

// RenderSceneUpdate makes the canvas show exactly the given snapshot.
// Previously installed region and trajectory handles are removed before the
// new set is created; point layers are bulk-set; inactive targets are
// filtered out entirely.
func (m *Manager) RenderSceneUpdate(id ID, scene schema.SceneSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return ErrUnknownCanvas
	}

	clearOverlays(st)
	for _, r := range scene.Regions {
		st.regions = append(st.regions, st.surface.AddRegion(r))
	}
	for _, t := range scene.Trajectories {
		st.trajectories = append(st.trajectories, st.surface.AddTrajectory(t))
	}

	st.surface.SetAgentMarkers(scene.Agents)

	active := make([]schema.Target, 0, len(scene.Targets))
	for _, t := range scene.Targets {
		if t.Active {
			active = append(active, t)
		}
	}
	st.surface.SetTargets(active)

	st.surface.SetViewLimits(scene.Limits, m.zoom)
	return nil
}

// SetBackgroundImage installs a background image placed with cover-fit
// scaling over the given limits and returns the computed transform.
func (m *Manager) SetBackgroundImage(id ID, img BackgroundImage, limits schema.Limits) (Transform, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return Transform{}, ErrUnknownCanvas
	}
	t := CoverFit(limits, img.Width, img.Height)
	st.background = &img
	st.transform = t
	st.surface.SetBackground(img, t)
	return t, nil
}

// OverlayCount reports the tracked region and trajectory handle counts.
func (m *Manager) OverlayCount(id ID) (regions, trajectories int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return 0, 0, ErrUnknownCanvas
	}
	return len(st.regions), len(st.trajectories), nil
}

func clearOverlays(st *renderState) {
	for _, h := range st.regions {
		st.surface.RemoveItem(h)
	}
	for _, h := range st.trajectories {
		st.surface.RemoveItem(h)
	}
	st.regions = st.regions[:0]
	st.trajectories = st.trajectories[:0]
}
