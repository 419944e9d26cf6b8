// Package session drives one scripted play session against a game server.
//
// Ownership boundary:
// - session state machine (Connecting, AwaitingFirstUpdate, Live, Dead, Disconnected)
// - tracked entity bookkeeping and the move policy
// - transport contract, TCP dialer and the bounded drain loop
// - launch ramp backoff shared with the swarm runner
//
// A Session is single threaded and owns its transport and decoder. Run many
// sessions concurrently by giving each its own goroutine; nothing is shared.
package session
