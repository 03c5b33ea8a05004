package transcode

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lumenmedia/mediacenter/internal/domain/pipeline"
)

// MasterPlaylistName is the filename of the master manifest inside a job
// directory.
const MasterPlaylistName = "master_playlist.m3u8"

// Composer writes the master HLS manifest for a job directory.
type Composer struct{}

// NewComposer creates a manifest composer.
func NewComposer() *Composer {
	return &Composer{}
}

// Compose writes the master manifest listing every attempted profile in
// ladder order and returns its path. Output is byte-deterministic for a
// given profile slice.
func (c *Composer) Compose(jobDir string, profiles []pipeline.RenditionProfile) (string, error) {
	path := filepath.Join(jobDir, MasterPlaylistName)

	file, err := os.Create(path)
	if err != nil {
		return "", &pipeline.ManifestError{Path: path, Err: err}
	}
	defer file.Close()

	fmt.Fprintln(file, "#EXTM3U")
	fmt.Fprintln(file, "#EXT-X-VERSION:3")

	for _, p := range profiles {
		fmt.Fprintf(file, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%s\n", p.Bandwidth(), p.Resolution())
		fmt.Fprintf(file, "%s/playlist.m3u8\n", p.Label)
	}

	if err := file.Sync(); err != nil {
		return "", &pipeline.ManifestError{Path: path, Err: err}
	}

	return path, nil
}
