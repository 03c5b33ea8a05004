package hls_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumenmedia/mediacenter/internal/domain/media"
	"github.com/lumenmedia/mediacenter/internal/domain/pipeline"
	"github.com/lumenmedia/mediacenter/internal/hls"
)

// stubFetcher hands out a pre-created temp file or fails.
type stubFetcher struct {
	path string
	err  error
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.path, f.err
}

// stubEncoder succeeds except for the labels in fail.
type stubEncoder struct {
	fail map[string]bool
}

func (e *stubEncoder) Encode(ctx context.Context, sourceFile, jobDir string, p pipeline.RenditionProfile) pipeline.RenditionResult {
	if e.fail[p.Label] {
		return pipeline.RenditionResult{Profile: p, Err: &pipeline.EncodeError{Label: p.Label, Err: errors.New("exit status 1")}}
	}
	return pipeline.RenditionResult{Profile: p, Playlist: filepath.Join(jobDir, p.Label, "playlist.m3u8")}
}

type stubComposer struct {
	gotProfiles []pipeline.RenditionProfile
	err         error
}

func (c *stubComposer) Compose(jobDir string, profiles []pipeline.RenditionProfile) (string, error) {
	c.gotProfiles = profiles
	if c.err != nil {
		return "", c.err
	}
	return filepath.Join(jobDir, "master_playlist.m3u8"), nil
}

type stubPublisher struct {
	calls     int
	gotDir    string
	gotPrefix string
	err       error
}

func (p *stubPublisher) Publish(ctx context.Context, localDir, destPrefix string) error {
	p.calls++
	p.gotDir = localDir
	p.gotPrefix = destPrefix
	return p.err
}

// stubRecords tracks playlist writes.
type stubRecords struct {
	playlists map[uuid.UUID]string
	err       error
}

func (r *stubRecords) Create(ctx context.Context, m *media.Media) error { return nil }
func (r *stubRecords) Get(ctx context.Context, id uuid.UUID) (*media.Media, error) {
	return nil, media.ErrNotFound
}
func (r *stubRecords) List(ctx context.Context, limit, offset int) ([]*media.Media, error) {
	return nil, nil
}
func (r *stubRecords) Update(ctx context.Context, m *media.Media) error { return nil }
func (r *stubRecords) SetPlaylist(ctx context.Context, id uuid.UUID, playlistURL string) error {
	if r.err != nil {
		return r.err
	}
	if r.playlists == nil {
		r.playlists = make(map[uuid.UUID]string)
	}
	r.playlists[id] = playlistURL
	return nil
}

func tempSource(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "src-*.mp4")
	require.NoError(t, err)
	f.Write([]byte("video"))
	f.Close()
	return f.Name()
}

func newOrchestrator(t *testing.T, root string, fetcher pipeline.Fetcher, encoder pipeline.Encoder, composer pipeline.Composer, publisher pipeline.Publisher, records media.Repository) *hls.Orchestrator {
	t.Helper()
	return hls.NewOrchestrator(fetcher, encoder, composer, publisher, records,
		pipeline.DefaultLadder, root, "http://hls.example.com", 2, zap.NewNop())
}

func TestRunFullSuccess(t *testing.T) {
	root := t.TempDir()
	id := uuid.New()
	publisher := &stubPublisher{}
	composer := &stubComposer{}
	records := &stubRecords{}

	o := newOrchestrator(t, root,
		&stubFetcher{path: tempSource(t)},
		&stubEncoder{},
		composer, publisher, records)

	outcome, err := o.Run(context.Background(), id, "http://media.example.com/v.mp4")
	require.NoError(t, err)

	assert.Equal(t, pipeline.OutcomeFull, outcome.Status)
	assert.Empty(t, outcome.FailedLabels)

	wantURL := "http://hls.example.com/media/v1/video-files/" + id.String() + "/master_playlist.m3u8"
	assert.Equal(t, wantURL, outcome.PlaylistURL)
	assert.Equal(t, wantURL, records.playlists[id])

	assert.Equal(t, pipeline.DefaultLadder, composer.gotProfiles)
	assert.Equal(t, filepath.Join(root, "hls", id.String()), publisher.gotDir)
	assert.Equal(t, "media/v1/video-files/"+id.String(), publisher.gotPrefix)

	// The publisher decides the directory's fate on success; the
	// orchestrator must not remove it behind the publisher's back.
	_, statErr := os.Stat(publisher.gotDir)
	assert.NoError(t, statErr, "job directory belongs to the publisher on success")
}

func TestRunRemovesDownloadedSource(t *testing.T) {
	src := tempSource(t)
	o := newOrchestrator(t, t.TempDir(),
		&stubFetcher{path: src}, &stubEncoder{}, &stubComposer{}, &stubPublisher{}, &stubRecords{})

	_, err := o.Run(context.Background(), uuid.New(), "http://media.example.com/v.mp4")
	require.NoError(t, err)

	_, statErr := os.Stat(src)
	assert.True(t, os.IsNotExist(statErr), "downloaded source must be removed")
}

func TestRunFetchFailureHasNoSideEffects(t *testing.T) {
	root := t.TempDir()
	id := uuid.New()
	publisher := &stubPublisher{}
	records := &stubRecords{}

	o := newOrchestrator(t, root,
		&stubFetcher{err: &pipeline.FetchError{URL: "http://media.example.com/v.mp4", StatusCode: 404}},
		&stubEncoder{}, &stubComposer{}, publisher, records)

	_, err := o.Run(context.Background(), id, "http://media.example.com/v.mp4")

	var fetchErr *pipeline.FetchError
	require.ErrorAs(t, err, &fetchErr)

	_, statErr := os.Stat(filepath.Join(root, "hls", id.String()))
	assert.True(t, os.IsNotExist(statErr), "no working directory on fetch failure")
	assert.Zero(t, publisher.calls)
	assert.Empty(t, records.playlists)
}

func TestRunContinuesPastFailedRendition(t *testing.T) {
	publisher := &stubPublisher{}
	composer := &stubComposer{}

	o := newOrchestrator(t, t.TempDir(),
		&stubFetcher{path: tempSource(t)},
		&stubEncoder{fail: map[string]bool{"720p": true}},
		composer, publisher, &stubRecords{})

	outcome, err := o.Run(context.Background(), uuid.New(), "http://media.example.com/v.mp4")
	require.NoError(t, err)

	assert.Equal(t, pipeline.OutcomePartial, outcome.Status)
	assert.Equal(t, []string{"720p"}, outcome.FailedLabels)

	// The manifest still covers every attempted profile and the package is
	// still published.
	assert.Equal(t, pipeline.DefaultLadder, composer.gotProfiles)
	assert.Equal(t, 1, publisher.calls)

	// Results keep ladder order regardless of encode concurrency.
	require.Len(t, outcome.Renditions, 4)
	for i, p := range pipeline.DefaultLadder {
		assert.Equal(t, p.Label, outcome.Renditions[i].Profile.Label)
	}
}

func TestRunComposeFailureAborts(t *testing.T) {
	records := &stubRecords{}
	publisher := &stubPublisher{}

	o := newOrchestrator(t, t.TempDir(),
		&stubFetcher{path: tempSource(t)},
		&stubEncoder{},
		&stubComposer{err: &pipeline.ManifestError{Path: "master_playlist.m3u8", Err: errors.New("disk full")}},
		publisher, records)

	_, err := o.Run(context.Background(), uuid.New(), "http://media.example.com/v.mp4")

	var manifestErr *pipeline.ManifestError
	require.ErrorAs(t, err, &manifestErr)
	assert.Zero(t, publisher.calls)
	assert.Empty(t, records.playlists)
}

func TestRunComposeFailureRemovesJobDir(t *testing.T) {
	root := t.TempDir()
	id := uuid.New()

	o := newOrchestrator(t, root,
		&stubFetcher{path: tempSource(t)},
		&stubEncoder{},
		&stubComposer{err: &pipeline.ManifestError{Path: "master_playlist.m3u8", Err: errors.New("disk full")}},
		&stubPublisher{}, &stubRecords{})

	_, err := o.Run(context.Background(), id, "http://media.example.com/v.mp4")
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(root, "hls", id.String()))
	assert.True(t, os.IsNotExist(statErr), "job directory must be released when composing fails")
}

func TestRunPublishFailureRemovesJobDir(t *testing.T) {
	root := t.TempDir()
	id := uuid.New()

	o := newOrchestrator(t, root,
		&stubFetcher{path: tempSource(t)},
		&stubEncoder{},
		&stubComposer{},
		&stubPublisher{err: &pipeline.UploadError{Key: "media/v1/video-files/x", Err: errors.New("access denied")}},
		&stubRecords{})

	_, err := o.Run(context.Background(), id, "http://media.example.com/v.mp4")

	var uploadErr *pipeline.UploadError
	require.ErrorAs(t, err, &uploadErr)

	_, statErr := os.Stat(filepath.Join(root, "hls", id.String()))
	assert.True(t, os.IsNotExist(statErr), "job directory must be released when publishing fails")
}

func TestRunPersistFailureRemovesJobDir(t *testing.T) {
	root := t.TempDir()
	id := uuid.New()

	o := newOrchestrator(t, root,
		&stubFetcher{path: tempSource(t)},
		&stubEncoder{},
		&stubComposer{}, &stubPublisher{},
		&stubRecords{err: errors.New("connection refused")})

	_, err := o.Run(context.Background(), id, "http://media.example.com/v.mp4")
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(root, "hls", id.String()))
	assert.True(t, os.IsNotExist(statErr), "job directory must be released when persisting fails")
}

func TestRunIsIdempotentForSameMediaID(t *testing.T) {
	id := uuid.New()
	records := &stubRecords{}
	root := t.TempDir()

	first := newOrchestrator(t, root,
		&stubFetcher{path: tempSource(t)}, &stubEncoder{}, &stubComposer{}, &stubPublisher{}, records)
	outcome1, err := first.Run(context.Background(), id, "http://media.example.com/v.mp4")
	require.NoError(t, err)

	second := newOrchestrator(t, root,
		&stubFetcher{path: tempSource(t)}, &stubEncoder{}, &stubComposer{}, &stubPublisher{}, records)
	outcome2, err := second.Run(context.Background(), id, "http://media.example.com/v.mp4")
	require.NoError(t, err)

	assert.Equal(t, outcome1.PlaylistURL, outcome2.PlaylistURL)
	assert.Equal(t, outcome1.PlaylistURL, records.playlists[id])
}
