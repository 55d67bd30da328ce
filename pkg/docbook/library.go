package docbook

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dcmdict/pkg/errors"
	"github.com/matzehuels/dcmdict/pkg/observability"
)

// Opener retrieves the raw XML of a part. *source.Fetcher implements it.
type Opener interface {
	Open(ctx context.Context, part string) (io.ReadCloser, error)
}

// OpenerFunc adapts a function to [Opener].
type OpenerFunc func(ctx context.Context, part string) (io.ReadCloser, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, part string) (io.ReadCloser, error) {
	return f(ctx, part)
}

// MapOpener serves parts from memory, keyed by part name.
type MapOpener map[string]string

// Open returns the XML stored under part.
func (m MapOpener) Open(_ context.Context, part string) (io.ReadCloser, error) {
	s, ok := m[part]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no part %s", part)
	}
	return io.NopCloser(bytes.NewReader([]byte(s))), nil
}

// Library memoizes parsed documents by part name for the lifetime of a run.
// Failed opens are not memoized.
type Library struct {
	opener Opener
	logger *log.Logger

	mu   sync.Mutex
	docs map[string]*Document
}

// NewLibrary creates a library reading through opener.
func NewLibrary(opener Opener, logger *log.Logger) *Library {
	if logger == nil {
		logger = log.Default()
	}
	return &Library{opener: opener, logger: logger, docs: make(map[string]*Document)}
}

// Open returns the parsed part, retrieving and parsing it on first use.
// Failures are DOCUMENT_UNAVAILABLE errors.
func (l *Library) Open(ctx context.Context, part string) (*Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if doc, ok := l.docs[part]; ok {
		return doc, nil
	}

	start := time.Now()
	doc, err := l.load(ctx, part)
	observability.Resolve().OnDocumentOpen(ctx, part, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	l.logger.Info("opened document", "part", part, "ids", doc.IDs(), "duration", time.Since(start))
	l.docs[part] = doc
	return doc, nil
}

func (l *Library) load(ctx context.Context, part string) (*Document, error) {
	l.logger.Debug("opening document", "part", part)
	rc, err := l.opener.Open(ctx, part)
	if err != nil {
		if errors.Is(err, errors.ErrCodeDocumentUnavailable) {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeDocumentUnavailable, err, "open %s", part)
	}
	defer rc.Close()

	doc, err := Parse(part, rc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDocumentUnavailable, err, "parse %s", part)
	}
	return doc, nil
}

// Len returns the number of documents opened so far.
func (l *Library) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.docs)
}
