// Video URL normalization. Submitted proof links arrive in many equivalent
// spellings (http vs https, youtu.be vs youtube.com, tracking parameters);
// records store one canonical form so that the engine's video-equality dedup
// compares like with like.
package domain

import (
	"errors"
	"net/url"
	"strings"
)

// ErrUnsupportedVideo is returned when a video URL is malformed or its host
// is not one of the accepted video platforms.
var ErrUnsupportedVideo = errors.New("video URL is malformed or hosted on an unsupported platform")

// NormalizeVideo canonicalizes a proof URL.
//
// Accepted platforms and their canonical forms:
//   - YouTube: https://www.youtube.com/watch?v=<id>
//     (youtu.be/<id>, m.youtube.com, /embed/<id> and extra query parameters
//     all collapse onto this form)
//   - Vimeo:   https://vimeo.com/<id>
//   - Twitch:  https://www.twitch.tv/videos/<id>
//
// Scheme and host comparison is case-insensitive; a missing scheme defaults
// to https. Anything else yields ErrUnsupportedVideo.
func NormalizeVideo(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrUnsupportedVideo
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrUnsupportedVideo
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", ErrUnsupportedVideo
	}

	host := strings.ToLower(u.Hostname())
	path := strings.Trim(u.EscapedPath(), "/")

	switch host {
	case "youtube.com", "www.youtube.com", "m.youtube.com":
		if id := u.Query().Get("v"); path == "watch" && videoID(id) {
			return "https://www.youtube.com/watch?v=" + id, nil
		}
		if id, ok := strings.CutPrefix(path, "embed/"); ok && videoID(id) {
			return "https://www.youtube.com/watch?v=" + id, nil
		}
	case "youtu.be":
		if videoID(path) {
			return "https://www.youtube.com/watch?v=" + path, nil
		}
	case "vimeo.com", "www.vimeo.com":
		if digits(path) {
			return "https://vimeo.com/" + path, nil
		}
	case "twitch.tv", "www.twitch.tv":
		if id, ok := strings.CutPrefix(path, "videos/"); ok && digits(id) {
			return "https://www.twitch.tv/videos/" + id, nil
		}
	}
	return "", ErrUnsupportedVideo
}

// videoID accepts the character set YouTube uses for video identifiers.
func videoID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
