package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/lumenmedia/mediacenter/internal/config"
	"github.com/lumenmedia/mediacenter/internal/domain/media"
)

// FrameExtractor extracts a still frame from a video file and probes its
// duration. Satisfied by transcode.FFmpegEncoder.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, sourceFile string, seekSeconds float64, outputPath string) error
	ProbeDuration(ctx context.Context, sourceFile string) (time.Duration, error)
}

// Extractor derives a bounded JPEG thumbnail and a perceptual hash from a
// photo or a video frame. The hash is always computed over the resized
// pixels, so thumbnail and hash describe the same image.
type Extractor struct {
	frames      FrameExtractor
	maxWidth    int
	maxHeight   int
	seekSeconds float64
	logger      *zap.Logger
}

// NewExtractor creates an extractor with the configured size bound and video
// seek offset.
func NewExtractor(frames FrameExtractor, cfg config.ExtractConfig, logger *zap.Logger) *Extractor {
	return &Extractor{
		frames:      frames,
		maxWidth:    cfg.MaxWidth,
		maxHeight:   cfg.MaxHeight,
		seekSeconds: cfg.SeekSeconds,
		logger:      logger.Named("extractor"),
	}
}

// Extract returns JPEG thumbnail bytes and the canonical hex perceptual
// hash for the given source. Any decode, process or IO failure is wrapped in
// a *media.ExtractionError; temporary files are removed on every exit path.
func (e *Extractor) Extract(ctx context.Context, src []byte, mediaType media.Type) ([]byte, string, error) {
	switch mediaType {
	case media.TypePhoto:
		img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
		if err != nil {
			return nil, "", media.NewExtractionError("decode", err)
		}
		return e.finish(img)

	case media.TypeVideo:
		return e.extractFromVideo(ctx, src)

	default:
		return nil, "", media.NewExtractionError("validate",
			fmt.Errorf("%w: %q", media.ErrUnsupportedType, mediaType))
	}
}

func (e *Extractor) extractFromVideo(ctx context.Context, src []byte) ([]byte, string, error) {
	input, err := os.CreateTemp("", "mediacenter-extract-*")
	if err != nil {
		return nil, "", media.NewExtractionError("stage", err)
	}
	defer os.Remove(input.Name())

	_, err = input.Write(src)
	if closeErr := input.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, "", media.NewExtractionError("stage", err)
	}

	// Clips shorter than the seek offset fall back to the first frame.
	seek := e.seekSeconds
	if duration, err := e.frames.ProbeDuration(ctx, input.Name()); err == nil {
		if duration < time.Duration(seek*float64(time.Second)) {
			e.logger.Debug("clip shorter than seek offset, seeking to start",
				zap.Duration("duration", duration))
			seek = 0
		}
	}

	framePath := input.Name() + "_thumbnail.jpg"
	defer os.Remove(framePath)

	if err := e.frames.ExtractFrame(ctx, input.Name(), seek, framePath); err != nil {
		return nil, "", media.NewExtractionError("frame", err)
	}

	frame, err := imaging.Open(framePath)
	if err != nil {
		return nil, "", media.NewExtractionError("decode", err)
	}

	return e.finish(frame)
}

// finish resizes the image to fit the configured bound and derives the
// thumbnail bytes and perceptual hash from the result.
func (e *Extractor) finish(img image.Image) ([]byte, string, error) {
	resized := imaging.Fit(img, e.maxWidth, e.maxHeight, imaging.Lanczos)

	hash, err := goimagehash.PerceptionHash(resized)
	if err != nil {
		return nil, "", media.NewExtractionError("hash", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, "", media.NewExtractionError("encode", err)
	}

	return buf.Bytes(), fmt.Sprintf("%016x", hash.GetHash()), nil
}
