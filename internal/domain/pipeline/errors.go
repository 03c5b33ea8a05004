package pipeline

import "fmt"

// FetchError is fatal: the job aborts with no side effects.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// EncodeError is per rendition and non-fatal: the ladder continues past it.
type EncodeError struct {
	Label string
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Label, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// ManifestError is fatal: without a master manifest there is nothing to serve.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("write master manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error { return e.Err }

// UploadError is fatal to the job; already-uploaded objects are not rolled
// back.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
