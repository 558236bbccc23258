package scenemodel

import "errors"

// Sentinel errors forming the service facade's error taxonomy. Transport
// layers translate these to status codes with errors.Is; RenderFailed is
// deliberately absent from this list — it is never surfaced as a Go error,
// only as a terminal SceneStatus on an otherwise-successful response.
var (
	// ErrInvalidInput is returned for a malformed request, e.g. empty StoryText.
	ErrInvalidInput = errors.New("scenemodel: invalid input")

	// ErrNotFound is returned when a sceneId has no stored record, or when a
	// rerender targets a scene with no stored context to replay.
	ErrNotFound = errors.New("scenemodel: not found")

	// ErrServiceUnavailable is returned when the orchestrator cannot serve a
	// request at all, e.g. the persistent store is unreachable.
	ErrServiceUnavailable = errors.New("scenemodel: service unavailable")
)
