package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"streamshare/internal/pipeline"
)

// Transcoder runs ffmpeg and ffprobe binaries.
type Transcoder struct {
	ffmpegPath  string
	ffprobePath string
	logger      *logrus.Logger
}

// New returns a Transcoder. Empty paths fall back to the binaries on PATH.
func New(ffmpegPath, ffprobePath string, logger *logrus.Logger) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Transcoder{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, logger: logger}
}

// BuildTranscodeArgs returns the ffmpeg arguments rendering inputPath into
// outputPath with profile p. Progress is written to stdout.
func BuildTranscodeArgs(inputPath, outputPath string, p pipeline.Profile) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-vf", "scale=" + p.Scale,
		"-c:v", p.VideoCodec,
		"-preset", p.SpeedPreset,
		"-c:a", p.AudioCodec,
		"-b:a", p.AudioBitrate,
		"-progress", "pipe:1",
		"-nostats",
		outputPath,
	}
}

// Transcode renders one profile. Failures are reported in the result, never
// as a panic or partial output.
func (t *Transcoder) Transcode(ctx context.Context, inputPath, outputPath string, p pipeline.Profile) pipeline.TranscodeResult {
	cmd := exec.CommandContext(ctx, t.ffmpegPath, BuildTranscodeArgs(inputPath, outputPath, p)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return failed(fmt.Errorf("ffmpeg stdout pipe: %w", err))
	}
	if err := cmd.Start(); err != nil {
		return failed(fmt.Errorf("failed to start ffmpeg: %w", err))
	}

	log := t.logger.WithFields(logrus.Fields{"profile": p.Name, "output": outputPath})
	ReadProgress(stdout, func(pr Progress) {
		log.WithFields(logrus.Fields{"out_time": pr.OutTime, "speed": pr.Speed}).Debug("Transcode progress")
	})

	if err := cmd.Wait(); err != nil {
		return failed(fmt.Errorf("ffmpeg failed for %s: %v\nStderr: %s", p.Name, err, tail(stderr.String(), 2048)))
	}
	log.Info("Successfully transcoded rendition")
	return pipeline.TranscodeResult{Outcome: pipeline.TranscodeSucceeded}
}

func failed(err error) pipeline.TranscodeResult {
	return pipeline.TranscodeResult{Outcome: pipeline.TranscodeFailed, Err: err}
}

// Progress is one block of ffmpeg -progress output.
type Progress struct {
	OutTime time.Duration
	Speed   string
	Done    bool
}

// ReadProgress parses ffmpeg key=value progress blocks from r and calls fn
// at the end of each block. It returns when r is exhausted.
func ReadProgress(r io.Reader, fn func(Progress)) {
	var cur Progress
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			// ffmpeg reports microseconds under both keys.
			if us, err := strconv.ParseInt(value, 10, 64); err == nil {
				cur.OutTime = time.Duration(us) * time.Microsecond
			}
		case "speed":
			cur.Speed = value
		case "progress":
			cur.Done = value == "end"
			fn(cur)
			cur = Progress{}
		}
	}
}

// ffprobeOutput is the part of ffprobe's JSON output we read.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration uses ffprobe to read the playback length of filePath.
func (t *Transcoder) Duration(ctx context.Context, filePath string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		filePath,
	)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %v\nStderr: %s", err, stderr.String())
	}
	return ParseDuration(out.Bytes())
}

// ParseDuration extracts format.duration from ffprobe JSON output.
func ParseDuration(raw []byte) (time.Duration, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(raw, &probe); err != nil {
		return 0, fmt.Errorf("error unmarshalling ffprobe output: %v", err)
	}
	if probe.Format.Duration == "" {
		return 0, fmt.Errorf("could not retrieve duration from ffprobe output")
	}
	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing duration string '%s': %v", probe.Format.Duration, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
