// SPDX-License-Identifier: EPL-2.0

package session

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Factory constructs a fresh, uninitialized chunked decoder session.
type Factory func() ChunkedDecoder

// Registry maps file extensions (without the dot, lower case) to
// session factories.
type Registry struct {
	factories map[string]Factory

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		mtx:       &sync.Mutex{},
	}
}

func (r *Registry) Register(ext string, f Factory) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.factories[strings.ToLower(ext)] = f
}

func (r *Registry) Get(ext string) (Factory, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	f, ok := r.factories[strings.ToLower(ext)]
	return f, ok
}

// Formats returns the registered extensions.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	formats := make([]string, 0, len(r.factories))
	for ext := range r.factories {
		formats = append(formats, ext)
	}
	return formats
}

// Open constructs and initializes a session for path, chosen by file
// extension. chunkSize <= 0 lets the format pick its own size.
func (r *Registry) Open(path string, chunkSize int, seekPosition time.Duration) (ChunkedDecoder, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	f, ok := r.Get(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	sess := f()
	if err := sess.InitializeChunked(path, chunkSize, seekPosition); err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return sess, nil
}
