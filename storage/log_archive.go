package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const logArchiveStamp = "20060102-150405.000"

// LogArchive saves one blob per run under prefix and keeps only the newest
// keep archives.
type LogArchive struct {
	blobs  BlobStore
	prefix string
	keep   int
	now    func() time.Time
}

func NewLogArchive(blobs BlobStore, prefix string, keep int) *LogArchive {
	return &LogArchive{blobs: blobs, prefix: prefix, keep: keep, now: time.Now}
}

// Flush writes lines as a new archive, then prunes the oldest ones.
func (a *LogArchive) Flush(ctx context.Context, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	name := a.prefix + "run-" + a.now().UTC().Format(logArchiveStamp) + ".log"
	if err := a.blobs.Write(ctx, name, []byte(strings.Join(lines, "\n")+"\n")); err != nil {
		return err
	}
	return a.prune(ctx)
}

func (a *LogArchive) prune(ctx context.Context) error {
	if a.keep <= 0 {
		return nil
	}
	names, err := a.blobs.List(ctx, a.prefix+"run-")
	if err != nil {
		return err
	}
	var archives []string
	for _, n := range names {
		if strings.HasSuffix(n, ".log") {
			archives = append(archives, n)
		}
	}
	// Names sort chronologically, oldest first
	for len(archives) > a.keep {
		if err := a.blobs.Delete(ctx, archives[0]); err != nil {
			return fmt.Errorf("log archive: prune: %w", err)
		}
		archives = archives[1:]
	}
	return nil
}
