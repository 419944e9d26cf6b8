package session

import "github.com/danmuck/stressbot/internal/protocol"

// TrackedEntity is the one player a session follows.
type TrackedEntity struct {
	ID              protocol.TrackedID
	X, Y            int
	Alive           bool
	AwaitingMoveAck bool
}

func newTrackedEntity() TrackedEntity {
	return TrackedEntity{Alive: true}
}

// Apply folds one parsed record into e. It reports whether the record was
// about e. The id binds on the first accepted record and never changes.
func (e *TrackedEntity) Apply(res protocol.UpdateResult) bool {
	if res.Outcome == protocol.UpdateIgnored {
		return false
	}
	if e.ID.Bound && e.ID.ID != res.ID {
		return false
	}
	if !e.ID.Bound {
		e.ID = protocol.TrackedID{ID: res.ID, Bound: true}
	}
	switch res.Outcome {
	case protocol.UpdateDied:
		e.Alive = false
	case protocol.UpdateMoved:
		e.X, e.Y = res.X, res.Y
		e.AwaitingMoveAck = false
	}
	return true
}
