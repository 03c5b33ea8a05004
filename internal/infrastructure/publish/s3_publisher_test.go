package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumenmedia/mediacenter/internal/domain/pipeline"
)

// fakeS3 records uploads.
type fakeS3 struct {
	uploads map[string]string // key -> content type
	failKey string
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failKey != "" && *params.Key == f.failKey {
		return nil, errors.New("access denied")
	}
	if f.uploads == nil {
		f.uploads = make(map[string]string)
	}
	f.uploads[*params.Key] = *params.ContentType
	return &s3.PutObjectOutput{}, nil
}

func writeJobDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	jobDir := filepath.Join(dir, "job")

	require.NoError(t, os.MkdirAll(filepath.Join(jobDir, "360p"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(jobDir, "master_playlist.m3u8"), []byte("#EXTM3U\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(jobDir, "360p", "playlist.m3u8"), []byte("#EXTM3U\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(jobDir, "360p", "segment_000.ts"), []byte{0x47}, 0o644))

	return jobDir
}

func TestPublishUploadsTreeAndDeletesLocalDir(t *testing.T) {
	jobDir := writeJobDir(t)
	client := &fakeS3{}
	p := &S3Publisher{client: client, bucket: "bucket", uploadEnabled: true, logger: zap.NewNop()}

	err := p.Publish(context.Background(), jobDir, "media/v1/video-files/abc")
	require.NoError(t, err)

	keys := make([]string, 0, len(client.uploads))
	for k := range client.uploads {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{
		"media/v1/video-files/abc/360p/playlist.m3u8",
		"media/v1/video-files/abc/360p/segment_000.ts",
		"media/v1/video-files/abc/master_playlist.m3u8",
	}, keys)

	assert.Equal(t, "application/vnd.apple.mpegurl", client.uploads["media/v1/video-files/abc/master_playlist.m3u8"])
	assert.Equal(t, "video/mp2t", client.uploads["media/v1/video-files/abc/360p/segment_000.ts"])

	_, statErr := os.Stat(jobDir)
	assert.True(t, os.IsNotExist(statErr), "local directory should be deleted after publish")
}

func TestPublishLocalOnlyModeKeepsDirAndMakesNoCalls(t *testing.T) {
	jobDir := writeJobDir(t)
	p := &S3Publisher{uploadEnabled: false, logger: zap.NewNop()}

	err := p.Publish(context.Background(), jobDir, "media/v1/video-files/abc")
	require.NoError(t, err)

	_, statErr := os.Stat(jobDir)
	assert.NoError(t, statErr, "local directory must survive in local-only mode")
}

func TestPublishUploadFailureKeepsDir(t *testing.T) {
	jobDir := writeJobDir(t)
	client := &fakeS3{failKey: "media/v1/video-files/abc/360p/playlist.m3u8"}
	p := &S3Publisher{client: client, bucket: "bucket", uploadEnabled: true, logger: zap.NewNop()}

	err := p.Publish(context.Background(), jobDir, "media/v1/video-files/abc")

	var uploadErr *pipeline.UploadError
	require.ErrorAs(t, err, &uploadErr)

	_, statErr := os.Stat(jobDir)
	assert.NoError(t, statErr, "local directory is not deleted when the upload fails")
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"master_playlist.m3u8", "application/vnd.apple.mpegurl"},
		{"segment_000.ts", "video/mp2t"},
		{"thumb.jpg", "image/jpeg"},
		{"blob.unknownext", "application/octet-stream"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, contentTypeFor(tt.path), tt.path)
	}
}
