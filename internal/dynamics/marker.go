package dynamics

import "github.com/go-gl/mathgl/mgl64"

// Marker is a named point fixed on a body, used to read off world
// positions and velocities of tracked features.
type Marker struct {
	name     string
	body     *BodyNode
	localPos mgl64.Vec3
}

func NewMarker(name string, localPos mgl64.Vec3) *Marker {
	return &Marker{name: name, localPos: localPos}
}

func (m *Marker) Name() string            { return m.name }
func (m *Marker) BodyNode() *BodyNode     { return m.body }
func (m *Marker) LocalPosition() mgl64.Vec3 { return m.localPos }

func (m *Marker) SetLocalPosition(p mgl64.Vec3) { m.localPos = p }

// WorldPosition returns the marker position in world coordinates.
func (m *Marker) WorldPosition() mgl64.Vec3 {
	return m.body.WorldTransform().ApplyPoint(m.localPos)
}

// WorldVelocity returns the marker velocity in world coordinates.
func (m *Marker) WorldVelocity() mgl64.Vec3 {
	v := m.body.SpatialVelocity()
	return m.body.WorldTransform().ApplyVector(v.Linear.Add(v.Angular.Cross(m.localPos)))
}
