package pipeline

import (
	"context"
	"time"
)

// Profile describes one rendition target.
type Profile struct {
	Name         string // e.g. "360p"
	Scale        string // ffmpeg scale filter argument, "640:360"
	VideoCodec   string
	SpeedPreset  string
	AudioCodec   string
	AudioBitrate string
}

// DefaultProfiles returns the renditions produced for every upload, in the
// order they are rendered.
func DefaultProfiles() []Profile {
	return []Profile{
		{Name: "360p", Scale: "640:360", VideoCodec: "libx264", SpeedPreset: "fast", AudioCodec: "aac", AudioBitrate: "128k"},
		{Name: "720p", Scale: "1280:720", VideoCodec: "libx264", SpeedPreset: "fast", AudioCodec: "aac", AudioBitrate: "128k"},
	}
}

// TranscodeOutcome is the result class of one transcode step.
type TranscodeOutcome int

const (
	TranscodeSucceeded TranscodeOutcome = iota
	TranscodeFailed
)

// TranscodeResult is returned for every profile run. Err is set when
// Outcome is TranscodeFailed.
type TranscodeResult struct {
	Outcome TranscodeOutcome
	Err     error
}

// Transcoder runs the external transcoding tool.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string, p Profile) TranscodeResult
	// Duration reports the playback length of a media file.
	Duration(ctx context.Context, inputPath string) (time.Duration, error)
}
