// Package protocol owns the game server wire grammar.
//
// Ownership boundary:
// - header classification (MC, CM, everything else as raw text)
// - player update record parsing
// - client command encoding (LOGIN, MOVE)
// - Decoder: framer plus classification, arming binary windows from headers
//
// Byte-level framing lives in protocol/frame; the byte queue in protocol/queue.
package protocol
