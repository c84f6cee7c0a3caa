// Package transport performs single logical calls against the megaverse API
// with bounded retries and exponential backoff.
//
// Every operation resolves to nil or an error matching ErrRequestFailed.
// Network errors, timeouts, non-2xx statuses and malformed bodies are all the
// same failed attempt; the distinction is logged, never returned.
package transport
