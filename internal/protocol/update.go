package protocol

import (
	"strconv"
	"strings"
)

const (
	minUpdateTokens = 17
	fieldID         = 0
	fieldX          = 14
	fieldY          = 15

	// DeathSentinel in the x field marks the subject entity dead.
	DeathSentinel = "X"
)

// TrackedID is the entity a session follows. The zero value is unbound.
type TrackedID struct {
	ID    int
	Bound bool
}

// UpdateOutcome describes what ParseUpdateLine made of a record.
type UpdateOutcome int

const (
	UpdateIgnored UpdateOutcome = iota // short, foreign or malformed
	UpdateMoved
	UpdateDied
)

func (o UpdateOutcome) String() string {
	switch o {
	case UpdateMoved:
		return "moved"
	case UpdateDied:
		return "died"
	default:
		return "ignored"
	}
}

// UpdateResult is the tracked entity's state from one record. X and Y are
// unset when Outcome is UpdateDied.
type UpdateResult struct {
	Outcome UpdateOutcome
	ID      int
	X, Y    int
}

// Alive reports whether the record leaves the entity alive.
func (r UpdateResult) Alive() bool {
	return r.Outcome != UpdateDied
}

// ParseUpdateLine parses one player update record against tracked. When
// tracked is unbound the record's id is the one to bind; callers bind it
// from the result. Records for other ids are ignored.
func ParseUpdateLine(line string, tracked TrackedID) UpdateResult {
	tokens := strings.Fields(line)
	if len(tokens) < minUpdateTokens {
		return UpdateResult{}
	}
	id, err := strconv.Atoi(tokens[fieldID])
	if err != nil {
		return UpdateResult{}
	}
	if tracked.Bound && tracked.ID != id {
		return UpdateResult{}
	}
	if tokens[fieldX] == DeathSentinel {
		return UpdateResult{Outcome: UpdateDied, ID: id}
	}
	x, errX := strconv.Atoi(tokens[fieldX])
	y, errY := strconv.Atoi(tokens[fieldY])
	if errX != nil || errY != nil {
		return UpdateResult{}
	}
	return UpdateResult{Outcome: UpdateMoved, ID: id, X: x, Y: y}
}

// UpdateLines splits a PU frame into its newline separated lines. The
// first line is the PU token and the last is the trailer.
func UpdateLines(text string) []string {
	return strings.Split(text, "\n")
}
