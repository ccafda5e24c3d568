package physics

// SuspensionForce is the spring-damper force along wheel-up.
//
// rest - distance is the compression; verticalVelocity is the contact point
// velocity along wheel-up. The result goes negative when the damper
// resists the wheel extending.
func SuspensionForce(distance, restDistance, springStrength, damping, verticalVelocity float64) float64 {
	offset := restDistance - distance
	return offset*springStrength - verticalVelocity*damping
}
