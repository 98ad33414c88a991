package core

import "errors"

var (
	// ErrInvalidInput is returned when the submitted content is blank
	ErrInvalidInput = errors.New("content is blank")
	// ErrConcurrentSubmit is returned when an analysis is already in flight
	ErrConcurrentSubmit = errors.New("analysis already in progress")
	// ErrUnsupportedKind is returned for content kinds other than email and url
	ErrUnsupportedKind = errors.New("unsupported content kind")
	// ErrSessionClosed is returned once the session has been closed
	ErrSessionClosed = errors.New("session closed")
)
