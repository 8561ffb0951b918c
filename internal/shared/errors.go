package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Subsonic API errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrAuthFailed         = fmt.Errorf("authentication failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrMissingAttribute   = fmt.Errorf("missing optional attribute")
	ErrAlbumNotFound      = fmt.Errorf("album not found")
	ErrSongNotFound       = fmt.Errorf("song not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
