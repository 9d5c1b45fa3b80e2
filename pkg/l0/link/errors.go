package link

import "errors"

var (
	// ErrNotReady indicates the link is not synchronised.
	ErrNotReady = errors.New("link not ready")
	// ErrPayloadTooLarge indicates a frame payload exceeds MaxPayload.
	ErrPayloadTooLarge = errors.New("payload too large")
)
