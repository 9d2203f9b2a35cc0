package ffmpeg

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamshare/internal/pipeline"
)

func TestBuildTranscodeArgs(t *testing.T) {
	p := pipeline.DefaultProfiles()[0]
	args := BuildTranscodeArgs("/tmp/in.mp4", "/tmp/abc_360p.mp4", p)

	assert.Equal(t, []string{
		"-y",
		"-i", "/tmp/in.mp4",
		"-vf", "scale=640:360",
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		"-b:a", "128k",
		"-progress", "pipe:1",
		"-nostats",
		"/tmp/abc_360p.mp4",
	}, args)
}

func TestReadProgress(t *testing.T) {
	out := strings.Join([]string{
		"frame=10",
		"out_time_us=1500000",
		"speed=2.1x",
		"progress=continue",
		"frame=20",
		"out_time_us=3000000",
		"speed=2.3x",
		"progress=end",
		"",
	}, "\n")

	var got []Progress
	ReadProgress(strings.NewReader(out), func(p Progress) { got = append(got, p) })

	require.Len(t, got, 2)
	assert.Equal(t, 1500*time.Millisecond, got[0].OutTime)
	assert.Equal(t, "2.1x", got[0].Speed)
	assert.False(t, got[0].Done)
	assert.Equal(t, 3*time.Second, got[1].OutTime)
	assert.True(t, got[1].Done)
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration([]byte(`{"format":{"duration":"12.500000"}}`))
	require.NoError(t, err)
	assert.Equal(t, 12500*time.Millisecond, d)

	_, err = ParseDuration([]byte(`{"format":{}}`))
	assert.Error(t, err)

	_, err = ParseDuration([]byte(`not json`))
	assert.Error(t, err)
}

func TestTranscode_MissingBinaryFails(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	tr := New("/nonexistent/ffmpeg", "/nonexistent/ffprobe", logger)

	res := tr.Transcode(context.Background(), "in.mp4", "out.mp4", pipeline.DefaultProfiles()[0])
	assert.Equal(t, pipeline.TranscodeFailed, res.Outcome)
	assert.Error(t, res.Err)

	_, err := tr.Duration(context.Background(), "in.mp4")
	assert.Error(t, err)
}
