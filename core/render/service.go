package render

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Service caches one rendered document and its ETag. The registry is frozen
// before any document is served, so the build runs at most once per process
// and the cache can never go stale.
type Service struct {
	build func() ([]byte, error)

	once sync.Once
	data []byte
	etag string
	err  error
}

// NewService wraps a document builder. The same Service type serves both
// the canonical document and the OpenAPI projection; only build differs.
func NewService(build func() ([]byte, error)) *Service {
	return &Service{build: build}
}

// Bytes returns the rendered document, its strong ETag, and any build error.
// The first caller pays for the render; later calls return the cached copy.
func (s *Service) Bytes() ([]byte, string, error) {
	s.once.Do(func() {
		s.data, s.err = s.build()
		if s.err != nil {
			return
		}
		sum := sha256.Sum256(s.data)
		s.etag = `"` + hex.EncodeToString(sum[:8]) + `"`
	})
	return s.data, s.etag, s.err
}
