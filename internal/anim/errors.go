package anim

import "errors"

var (
	// ErrNotInitialized is returned by operations on a nil handle.
	ErrNotInitialized = errors.New("anim: not initialized")
	// ErrPoisoned is returned by Set once the engine behind the intent has failed.
	ErrPoisoned = errors.New("anim: intent poisoned by engine failure")
	// ErrPanicked wraps the value recovered from a panicking engine loop.
	ErrPanicked = errors.New("anim: engine panicked")

	ErrJoined     = errors.New("anim: engine already joined")
	ErrNotStarted = errors.New("anim: engine not started")
	ErrStarted    = errors.New("anim: engine already started")
)
