package pipeline

import "context"

// Fetcher retrieves a remote source into local ephemeral storage and returns
// the local path. Callers own the returned file and must remove it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Encoder produces one segmented rendition for a profile, rooted at
// <jobDir>/<label>/. A failed encode is reported through RenditionResult.Err
// so the caller can continue with the rest of the ladder.
type Encoder interface {
	Encode(ctx context.Context, sourceFile, jobDir string, profile RenditionProfile) RenditionResult
}

// Composer writes the master manifest for the attempted profiles and returns
// its path.
type Composer interface {
	Compose(jobDir string, profiles []RenditionProfile) (string, error)
}

// Publisher uploads a local directory tree to object storage under
// destPrefix. In upload mode it removes the local tree after a successful
// walk.
type Publisher interface {
	Publish(ctx context.Context, localDir, destPrefix string) error
}
