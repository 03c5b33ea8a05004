package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/lumenmedia/mediacenter/internal/domain/pipeline"
)

// HTTPFetcher streams a remote source into a local temporary file.
type HTTPFetcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewHTTPFetcher creates a fetcher whose requests are bounded by timeout.
func NewHTTPFetcher(timeout time.Duration, logger *zap.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableCompression:  true,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		logger: logger.Named("fetcher"),
	}
}

// Fetch downloads url to a temporary file and returns its path. The caller
// owns the file. On any failure the temporary file is removed and a
// *pipeline.FetchError is returned.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &pipeline.FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", "mediacenter/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &pipeline.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &pipeline.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	tmp, err := os.CreateTemp("", "mediacenter-src-*.mp4")
	if err != nil {
		return "", &pipeline.FetchError{URL: url, Err: fmt.Errorf("create temp file: %w", err)}
	}

	written, err := io.CopyBuffer(tmp, resp.Body, make([]byte, 32*1024))
	closeErr := tmp.Close()
	if err != nil || closeErr != nil {
		os.Remove(tmp.Name())
		if err == nil {
			err = closeErr
		}
		return "", &pipeline.FetchError{URL: url, Err: fmt.Errorf("download failed after %d bytes: %w", written, err)}
	}

	f.logger.Info("source downloaded",
		zap.String("url", url),
		zap.String("path", tmp.Name()),
		zap.Int64("bytes", written))

	return tmp.Name(), nil
}
