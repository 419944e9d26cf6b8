package protocol

import "errors"

var ErrMalformedHeader = errors.New("protocol: malformed header")
