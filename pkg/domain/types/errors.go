package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures by how callers are expected to react
var (
	// ErrTagConfig marks malformed or missing settings
	ErrTagConfig = goerr.NewTag("config")

	// ErrTagFilter marks a modification filter that failed during evaluation
	ErrTagFilter = goerr.NewTag("filter")

	// ErrTagRender marks a message builder failure
	ErrTagRender = goerr.NewTag("render")

	// ErrTagDelivery marks a transport gateway failure
	ErrTagDelivery = goerr.NewTag("delivery")

	// ErrTagSource marks a change-source provider failure
	ErrTagSource = goerr.NewTag("source")
)
