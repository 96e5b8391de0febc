package storage

import (
	"context"

	"bulletin-etl/models"
)

// BlobStore is a flat namespace of named byte blobs. Read reports a missing
// blob with models.ErrNotFound.
type BlobStore interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// RecordWriter is the interface any record storage backend must satisfy.
type RecordWriter interface {
	Write(ctx context.Context, records []models.FinalRecord) error
	Close() error
}

// LedgerStore persists the processed-link ledger as text, one URL per line.
type LedgerStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, text string) error
}

// CSVSink accumulates CSV batches into one file per month. WriteRecords
// serializes a batch and appends it under its batch date, returning the
// file it went to.
type CSVSink interface {
	AppendOrCreate(ctx context.Context, csvText, date string) error
	WriteRecords(ctx context.Context, records []models.FinalRecord) (string, error)
}

// LogSink persists the log lines of one run.
type LogSink interface {
	Flush(ctx context.Context, lines []string) error
}
