// Package identity provides the injectable username source the INIT RPC
// needs (spec.md §9, Design Notes: "factor this through an injectable
// identity provider so tests can pin a deterministic username").
package identity

import (
	"os"
	"os/user"
)

// Provider supplies the username sent in the INIT RPC.
type Provider interface {
	Username() string
}

// OSUser reads the current OS user, falling back to the USER/USERNAME
// environment variables if the cgo-free lookup fails — the same
// defensive fallback style the teacher applies around OS-derived values
// rather than failing the whole connect attempt outright.
type OSUser struct{}

func (OSUser) Username() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	if v := os.Getenv("USERNAME"); v != "" {
		return v
	}
	return "unknown"
}

// Static pins a fixed username, for tests that need a deterministic INIT
// payload.
type Static string

func (s Static) Username() string { return string(s) }
