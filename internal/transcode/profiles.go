// Package transcode generates quality renditions of uploaded videos.
package transcode

import "github.com/clipstream/clipstream/internal/api"

// Profile describes one rendition target.
type Profile struct {
	Quality      api.Quality
	Width        int
	Height       int
	VideoBitrate string
	AudioBitrate string
}

// Profiles returns every rendition generated per upload, smallest first so
// a low-quality variant becomes servable as early as possible. QualityAuto
// has no profile; it always streams the original file.
func Profiles() []Profile {
	return []Profile{
		{Quality: api.QualityLow, Width: 854, Height: 480, VideoBitrate: "1200k", AudioBitrate: "96k"},
		{Quality: api.QualityMedium, Width: 1280, Height: 720, VideoBitrate: "2500k", AudioBitrate: "128k"},
		{Quality: api.QualityHigh, Width: 1920, Height: 1080, VideoBitrate: "5000k", AudioBitrate: "192k"},
	}
}

// ProfileFor looks up the profile for a quality selector.
func ProfileFor(q api.Quality) (Profile, bool) {
	for _, p := range Profiles() {
		if p.Quality == q {
			return p, true
		}
	}
	return Profile{}, false
}
