package domain

// ProducerState tracks where the capture loop is in its cycle:
// Idle -> Acquiring -> Writing -> Idle.
type ProducerState int32

const (
	ProducerStopped ProducerState = iota
	ProducerIdle
	ProducerAcquiring
	ProducerWriting
)

func (s ProducerState) String() string {
	switch s {
	case ProducerIdle:
		return "idle"
	case ProducerAcquiring:
		return "acquiring"
	case ProducerWriting:
		return "writing"
	default:
		return "stopped"
	}
}
