package services

import (
	"errors"
	"fmt"

	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/shared"
)

// Subsonic error codes that map onto shared sentinels.
const (
	codeMissingParam    = 10
	codeWrongCreds      = 40
	codeTokenAuthDenied = 41
	codeNotAuthorized   = 50
	codeNotFound        = 70
)

type envelope struct {
	Response subsonicResponse `json:"subsonic-response"`
}

type subsonicResponse struct {
	Status        string        `json:"status"`
	Version       string        `json:"version"`
	Type          string        `json:"type"`
	ServerVersion string        `json:"serverVersion"`
	OpenSubsonic  bool          `json:"openSubsonic"`
	Error         *APIError     `json:"error,omitempty"`
	AlbumList2    *albumList    `json:"albumList2,omitempty"`
	Album         *models.Album `json:"album,omitempty"`
	Song          *models.Song  `json:"song,omitempty"`
}

type albumList struct {
	Album []models.AlbumListItem `json:"album"`
}

// ServerInfo describes the server that answered a ping.
type ServerInfo struct {
	Status        string `json:"status" yaml:"status"`
	Version       string `json:"version" yaml:"version"`
	Type          string `json:"type,omitempty" yaml:"type,omitempty"`
	ServerVersion string `json:"serverVersion,omitempty" yaml:"server_version,omitempty"`
	OpenSubsonic  bool   `json:"openSubsonic" yaml:"open_subsonic"`
}

func (r subsonicResponse) info() *ServerInfo {
	return &ServerInfo{
		Status:        r.Status,
		Version:       r.Version,
		Type:          r.Type,
		ServerVersion: r.ServerVersion,
		OpenSubsonic:  r.OpenSubsonic,
	}
}

// check turns a failed envelope into an error.
func (r subsonicResponse) check() error {
	if r.Status == "ok" {
		return nil
	}
	if r.Error != nil {
		return r.Error
	}
	return fmt.Errorf("%w: status %q", shared.ErrAPIRequest, r.Status)
}

// APIError is an error reported by the server inside a "failed" response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("subsonic error %d: %s", e.Code, e.Message)
}

// Unwrap exposes [shared.ErrAPIRequest] plus a more specific sentinel where the code has one.
func (e *APIError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	switch e.Code {
	case codeWrongCreds, codeTokenAuthDenied, codeNotAuthorized:
		errs = append(errs, shared.ErrAuthFailed)
	case codeMissingParam:
		errs = append(errs, shared.ErrMissingArgument)
	case codeNotFound:
		errs = append(errs, errNotFound)
	}
	return errs
}

var errNotFound = errors.New("not found")

// IsNotFound reports whether err is a Subsonic "data not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}

func missing(attribute string) error {
	return fmt.Errorf("%w %s", shared.ErrMissingAttribute, attribute)
}
