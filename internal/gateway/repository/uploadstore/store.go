package uploadstore

import (
	"context"
	"errors"
)

// Blob is one raw uploaded spreadsheet, kept verbatim for re-parsing and
// download. Parsing happens client-side; the gateway only stores bytes.
type Blob struct {
	ID          string
	Filename    string
	ContentType string
	Content     []byte
}

type Store interface {
	Put(ctx context.Context, blob Blob) error
	Get(ctx context.Context, id string) (Blob, error)
}

var ErrNotFound = errors.New("upload not found")
