package storage

import (
	"context"
	"errors"
	"strings"

	"bulletin-etl/models"
)

// Ledger is the ordered set of processed document URLs, oldest first.
type Ledger struct {
	links []string
	seen  map[string]struct{}
}

// ParseLedger reads one URL per line. Blank lines and repeats are ignored.
func ParseLedger(text string) *Ledger {
	l := &Ledger{seen: make(map[string]struct{})}
	for _, line := range strings.Split(text, "\n") {
		l.Add(strings.TrimSpace(line))
	}
	return l
}

// Add appends link and returns true if it was not yet present.
func (l *Ledger) Add(link string) bool {
	if link == "" {
		return false
	}
	if _, exists := l.seen[link]; exists {
		return false
	}
	l.seen[link] = struct{}{}
	l.links = append(l.links, link)
	return true
}

// Contains returns true if link has already been processed.
func (l *Ledger) Contains(link string) bool {
	_, exists := l.seen[link]
	return exists
}

// Len returns the number of recorded links.
func (l *Ledger) Len() int { return len(l.links) }

// Links returns the recorded links, oldest first.
func (l *Ledger) Links() []string {
	return append([]string(nil), l.links...)
}

// String renders the ledger with one URL per line.
func (l *Ledger) String() string {
	var b strings.Builder
	for _, link := range l.links {
		b.WriteString(link)
		b.WriteByte('\n')
	}
	return b.String()
}

// BlobLedger keeps the ledger text in a single blob.
type BlobLedger struct {
	blobs BlobStore
	name  string
}

func NewBlobLedger(blobs BlobStore, name string) *BlobLedger {
	return &BlobLedger{blobs: blobs, name: name}
}

// Load returns the ledger text; a ledger that does not exist yet is empty.
func (b *BlobLedger) Load(ctx context.Context) (string, error) {
	data, err := b.blobs.Read(ctx, b.name)
	if errors.Is(err, models.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (b *BlobLedger) Save(ctx context.Context, text string) error {
	return b.blobs.Write(ctx, b.name, []byte(text))
}
