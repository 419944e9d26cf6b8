package protocol

import "fmt"

// EmailDomain is appended to client email prefixes.
const EmailDomain = "dummy.com"

// Login encodes the login command.
func Login(email, password1, password2 string) []byte {
	return []byte(fmt.Sprintf("LOGIN %s %s %s#", email, password1, password2))
}

// Move encodes a move from (x, y) by (dx, dy).
func Move(x, y, dx, dy int) []byte {
	return []byte(fmt.Sprintf("MOVE %d %d %d %d#", x, y, dx, dy))
}

// Email builds a login address from a prefix.
func Email(prefix string) string {
	return prefix + "@" + EmailDomain
}
