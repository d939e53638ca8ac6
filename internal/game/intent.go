package game

// Intent is one tick's worth of driving orders for a tank. The shell builds
// one from the keyboard, the AI controller builds one per enemy; the sim
// consumes both identically and nothing else moves a tank.
type Intent struct {
	Throttle int  // +1 forward, -1 reverse (half speed), 0 hold
	Turn     int  // +1 clockwise, -1 counter-clockwise, 0 straight
	Fire     bool // request a shot; the cooldown may still veto it
}
