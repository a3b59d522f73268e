// Package automation defines the boundary to the browser-automation engine.
// The publishing core never assumes a selector language or a concrete engine:
// it only relies on the capabilities declared here, all of which may time out.
package automation

import (
	"context"
	"time"
)

// ActionKind identifies an interaction with the page
type ActionKind string

const (
	ActionClick      ActionKind = "click"
	ActionType       ActionKind = "type"
	ActionUploadFile ActionKind = "upload-file"
	ActionPress      ActionKind = "press"
)

// Action describes one interaction against a page element
type Action struct {
	Kind     ActionKind
	Target   string // opaque selector/condition understood by the engine
	Text     string // for ActionType / ActionPress
	FilePath string // for ActionUploadFile
}

// Page is an open page inside an automation session
type Page interface {
	// WaitFor blocks until the condition is decidable or the timeout elapses.
	// It returns (false, nil) when the condition was not reached in time;
	// an error means the engine itself failed.
	WaitFor(ctx context.Context, condition string, timeout time.Duration) (bool, error)

	// ReadText returns the text content of the first element matching target.
	ReadText(ctx context.Context, target string) (string, error)

	// Interact performs a single action against the page.
	Interact(ctx context.Context, action Action) error

	Close(ctx context.Context) error
}

// Session is a browser context holding authenticated state
type Session interface {
	Open(ctx context.Context, url string) (Page, error)

	// CaptureState serializes the session's authenticated state to a blob.
	CaptureState(ctx context.Context) ([]byte, error)

	Close(ctx context.Context) error
}

// Driver creates sessions, optionally restoring a previously captured blob.
// A nil state starts a clean session (used for interactive login).
type Driver interface {
	NewSession(ctx context.Context, state []byte) (Session, error)
}
