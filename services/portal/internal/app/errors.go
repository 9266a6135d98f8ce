package app

import "errors"

var (
	// ErrValidation marks input rejected before anything was mutated.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates the referenced document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAuthentication indicates the login credentials were rejected.
	ErrAuthentication = errors.New("invalid credentials")
	// ErrNetwork wraps transport failures talking to the remote API.
	ErrNetwork = errors.New("remote service unavailable")
	// ErrForbidden indicates the session user may not edit the document.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated indicates a missing, expired or logged-out session.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrStaleResult indicates a newer search superseded this one.
	ErrStaleResult = errors.New("search result superseded")
)
