package physics

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

type appliedForce struct {
	Force mgl64.Vec3
	Point mgl64.Vec3
}

// stubBody is a body with a fixed pose and uniform velocity.
type stubBody struct {
	mu       sync.Mutex
	pos      mgl64.Vec3
	rot      mgl64.Quat
	vel      mgl64.Vec3
	applied  []appliedForce
	pointVel func(mgl64.Vec3) mgl64.Vec3
}

func newStubBody() *stubBody {
	return &stubBody{rot: mgl64.QuatIdent()}
}

func (b *stubBody) Position() mgl64.Vec3 { return b.pos }
func (b *stubBody) Rotation() mgl64.Quat { return b.rot }
func (b *stubBody) Velocity() mgl64.Vec3 { return b.vel }

func (b *stubBody) PointVelocity(p mgl64.Vec3) mgl64.Vec3 {
	if b.pointVel != nil {
		return b.pointVel(p)
	}
	return b.vel
}

func (b *stubBody) ApplyForceAtPoint(force, point mgl64.Vec3) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applied = append(b.applied, appliedForce{Force: force, Point: point})
}

func (b *stubBody) reset() {
	b.applied = nil
}

// fixedProbe answers every query with the same hit distance.
type fixedProbe struct {
	distance float64
	hit      bool
}

func (p fixedProbe) Probe(_, _ mgl64.Vec3, maxDistance float64) (float64, bool) {
	if !p.hit || p.distance > maxDistance {
		return 0, false
	}
	return p.distance, true
}

// testTuning keeps only the drivetrain term so forces are easy to predict.
func testTuning() Tuning {
	t := DefaultTuning()
	t.AxialFriction = 0
	t.BrakeForce = 0
	return t
}

func singleWheel(roles Role) []WheelSpec {
	return []WheelSpec{{Name: "w", Mount: mgl64.Vec3{0, 0, 0}, Roles: roles}}
}

func fourWheels() []WheelSpec {
	return []WheelSpec{
		{Name: "front-left", Mount: mgl64.Vec3{-0.8, -0.3, 1.5}, Roles: RoleSteer},
		{Name: "front-right", Mount: mgl64.Vec3{0.8, -0.3, 1.5}, Roles: RoleSteer},
		{Name: "rear-left", Mount: mgl64.Vec3{-0.8, -0.3, -1.5}, Roles: RoleMotor},
		{Name: "rear-right", Mount: mgl64.Vec3{0.8, -0.3, -1.5}, Roles: RoleMotor},
	}
}
