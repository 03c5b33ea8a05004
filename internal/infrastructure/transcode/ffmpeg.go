package transcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/lumenmedia/mediacenter/internal/domain/pipeline"
)

// FFmpegEncoder drives an external ffmpeg/ffprobe pair to produce segmented
// HLS renditions, extract still frames and probe media metadata.
type FFmpegEncoder struct {
	ffmpeg  string
	ffprobe string
	timeout time.Duration
	logger  *zap.Logger
}

// NewFFmpegEncoder resolves the ffmpeg and ffprobe binaries and returns an
// encoder whose process invocations are bounded by timeout.
func NewFFmpegEncoder(ffmpegPath, ffprobePath string, timeout time.Duration, logger *zap.Logger) (*FFmpegEncoder, error) {
	ffmpeg, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	ffprobe, err := exec.LookPath(ffprobePath)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}

	return &FFmpegEncoder{
		ffmpeg:  ffmpeg,
		ffprobe: ffprobe,
		timeout: timeout,
		logger:  logger.Named("encoder"),
	}, nil
}

// Encode transcodes sourceFile into one segmented rendition under
// <jobDir>/<label>/. Process failure is reported through the result so the
// remaining ladder can proceed.
func (e *FFmpegEncoder) Encode(ctx context.Context, sourceFile, jobDir string, profile pipeline.RenditionProfile) pipeline.RenditionResult {
	result := pipeline.RenditionResult{Profile: profile}

	outDir := filepath.Join(jobDir, profile.Label)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		result.Err = &pipeline.EncodeError{Label: profile.Label, Err: err}
		return result
	}

	playlist := filepath.Join(outDir, "playlist.m3u8")
	segments := filepath.Join(outDir, "segment_%03d.ts")
	args := buildEncodeArgs(sourceFile, playlist, segments, profile)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if err := e.run(ctx, e.ffmpeg, args); err != nil {
		result.Err = &pipeline.EncodeError{Label: profile.Label, Err: err}
		return result
	}

	e.logger.Info("rendition encoded",
		zap.String("label", profile.Label),
		zap.String("playlist", playlist))

	result.Playlist = playlist
	return result
}

// ExtractFrame extracts a single frame at seekSeconds as a JPEG, scaled to a
// maximum height of 720 pixels with aspect ratio preserved.
func (e *FFmpegEncoder) ExtractFrame(ctx context.Context, sourceFile string, seekSeconds float64, outputPath string) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := []string{
		"-ss", strconv.FormatFloat(seekSeconds, 'f', -1, 64),
		"-i", sourceFile,
		"-frames:v", "1",
		"-q:v", "1",
		"-vf", "scale=-1:720",
		outputPath,
	}

	return e.run(ctx, e.ffmpeg, args)
}

// ProbeDuration returns the container duration of sourceFile.
func (e *FFmpegEncoder) ProbeDuration(ctx context.Context, sourceFile string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, e.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		sourceFile,
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &probe); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}

	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", probe.Format.Duration, err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

func (e *FFmpegEncoder) run(ctx context.Context, bin string, args []string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", filepath.Base(bin), ctx.Err())
		}
		return fmt.Errorf("%s failed: %w: %s", filepath.Base(bin), err, tail(stderr.String(), 512))
	}
	return nil
}

// buildEncodeArgs assembles the fixed per-profile ffmpeg invocation: AAC-LC
// stereo audio at 128k/48kHz, H.264 main profile at CRF 20 with a 48-frame
// GOP and scene-cut detection disabled, 6-second VOD segments.
func buildEncodeArgs(sourceFile, playlist, segmentPattern string, p pipeline.RenditionProfile) []string {
	return []string{
		"-i", sourceFile,
		"-vf", "scale=" + p.Scale(),
		"-c:a", "aac", "-b:a", "128k", "-ar", "48000", "-ac", "2", "-profile:a", "aac_low",
		"-c:v", "libx264", "-profile:v", "main",
		"-crf", "20", "-sc_threshold", "0",
		"-g", "48", "-keyint_min", "48",
		"-movflags", "+faststart",
		"-preset", "fast", "-threads", "0",
		"-b:v", fmt.Sprintf("%dk", p.Bitrate),
		"-maxrate", fmt.Sprintf("%dk", p.MaxRate),
		"-bufsize", fmt.Sprintf("%dk", p.BufSize),
		"-hls_time", "6",
		"-hls_segment_filename", segmentPattern,
		"-hls_playlist_type", "vod",
		playlist,
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
