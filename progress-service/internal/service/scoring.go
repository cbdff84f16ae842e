package service

const (
	DefaultPointsPerHint = 30
	DefaultPointsPerRoom = 100
)

// ScoringPolicy holds the points awarded for first-time completions.
type ScoringPolicy struct {
	PointsPerHint int
	PointsPerRoom int
}

// DefaultScoringPolicy returns 30 points per hint and 100 per room.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{PointsPerHint: DefaultPointsPerHint, PointsPerRoom: DefaultPointsPerRoom}
}

func (p ScoringPolicy) PointsForHintCompletion() int { return p.PointsPerHint }

func (p ScoringPolicy) PointsForRoomCompletion() int { return p.PointsPerRoom }

// Policy configures the progress state machine.
type Policy struct {
	Scoring ScoringPolicy
	// RequirePriorUnlock rejects hint completion and code verification on rooms
	// the user has not unlocked. When false, the room is unlocked on first use.
	RequirePriorUnlock bool
	// BootstrapUnlockedRooms is how many rooms, lowest ids first, InitializeUser unlocks.
	BootstrapUnlockedRooms int
}

// DefaultPolicy returns the default scoring with lazy unlock and one bootstrap room.
func DefaultPolicy() Policy {
	return Policy{
		Scoring:                DefaultScoringPolicy(),
		RequirePriorUnlock:     false,
		BootstrapUnlockedRooms: 1,
	}
}
