package util

import "errors"

var (
	ErrNotFound             = errors.New("resource not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSessionNotFound      = errors.New("session not found")
	ErrAlreadyAnswered      = errors.New("question already answered")
	ErrQuizFinished         = errors.New("quiz already finished")
	ErrQuizNotStarted       = errors.New("quiz not started")
	ErrSessionPaused        = errors.New("detection is paused")
	ErrFrameInFlight        = errors.New("previous frame still processing")
	ErrInferenceUnavailable = errors.New("inference service unavailable")
	ErrInvalidMediaType     = errors.New("unsupported media type")
)
