// internal/session/errors.go
//
// Sentinel errors returned by the session controller. Gateway failures are
// wrapped under ErrSubmissionFailed / ErrFetchFailed so callers can match
// them with errors.Is and still see the cause.

package session

import "errors"

// Session errors
var (
	ErrAuthRejected     = errors.New("credentials rejected")
	ErrSubmissionFailed = errors.New("score submission failed")
	ErrFetchFailed      = errors.New("leaderboard fetch failed")
	ErrNoGame           = errors.New("no game in progress")
	ErrClosed           = errors.New("controller closed")
)
