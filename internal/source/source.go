// Package source parses the video references lessons point at.
package source

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalid is returned when a reference cannot be resolved to a video id.
var ErrInvalid = errors.New("unrecognized video reference")

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// VideoID is a provider video identifier.
type VideoID string

func (v VideoID) String() string { return string(v) }

// Parse resolves a bare id or a provider URL to a VideoID.
//
// Accepted forms:
//
//	dQw4w9WgXcQ
//	https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42
//	https://youtu.be/dQw4w9WgXcQ
//	https://www.youtube.com/embed/dQw4w9WgXcQ
//	https://www.youtube.com/shorts/dQw4w9WgXcQ
//	https://www.youtube.com/live/dQw4w9WgXcQ
func Parse(ref string) (VideoID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalid)
	}
	if idPattern.MatchString(ref) {
		return VideoID(ref), nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalid, ref, err)
	}
	if u.Scheme == "" && u.Host == "" {
		// "youtu.be/xyz" without scheme parses as a path
		if u, err = url.Parse("https://" + ref); err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalid, ref)
		}
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	var id string
	switch host {
	case "youtu.be":
		id = firstSegment(u.Path)
	case "youtube.com", "youtube-nocookie.com", "music.youtube.com":
		if u.Path == "/watch" {
			id = u.Query().Get("v")
			break
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 {
			switch parts[0] {
			case "embed", "shorts", "live", "v":
				id = parts[1]
			}
		}
	default:
		return "", fmt.Errorf("%w: unsupported host %q", ErrInvalid, u.Hostname())
	}

	if !idPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalid, ref)
	}
	return VideoID(id), nil
}

func firstSegment(p string) string {
	p = strings.Trim(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}
