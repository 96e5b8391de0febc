package etl

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bulletin-etl/models"
	"bulletin-etl/services"
	"bulletin-etl/storage"
	"bulletin-etl/utils"
)

const marker = "(Wholesale Prices of Rice & Subsidiary Food Crops)"

type fakeDiscoverer struct {
	links []string
	err   error
}

func (f *fakeDiscoverer) Discover(context.Context, string) ([]string, error) {
	return f.links, f.err
}

// fakeFetcher serves each link's URL as the document body.
type fakeFetcher struct {
	fail    map[string]error
	calls   []string
	onFetch func(url string)
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	if f.onFetch != nil {
		f.onFetch(url)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.fail[url]; err != nil {
		return nil, err
	}
	return []byte(url), nil
}

// fakeText keys page texts by document body.
type fakeText struct {
	pages map[string]map[int]string
}

func (f *fakeText) PageText(doc []byte, page int) (string, error) {
	p, ok := f.pages[string(doc)][page]
	if !ok {
		return "", models.ErrParse
	}
	return p, nil
}

type fakeTables struct {
	calls int
}

func (f *fakeTables) ExtractTables(context.Context, []byte, int) ([]models.RawTable, error) {
	f.calls++
	return []models.RawTable{{
		Header: []string{"Commodity", "01/10/2024", "01/10/2024.1"},
		Rows: [][]string{
			{"", "Pettah", "Dambulla"},
			{"Samba", "230-240", "225-235"},
		},
	}}, nil
}

type fakeLedger struct {
	text    string
	loadErr error
	saves   []string
}

func (f *fakeLedger) Load(context.Context) (string, error) { return f.text, f.loadErr }

func (f *fakeLedger) Save(_ context.Context, text string) error {
	f.saves = append(f.saves, text)
	f.text = text
	return nil
}

type fakeRecords struct {
	batches [][]models.FinalRecord
}

func (f *fakeRecords) Write(_ context.Context, records []models.FinalRecord) error {
	f.batches = append(f.batches, records)
	return nil
}

func (f *fakeRecords) Close() error { return nil }

type fakeLogs struct {
	flushes [][]string
}

func (f *fakeLogs) Flush(_ context.Context, lines []string) error {
	f.flushes = append(f.flushes, lines)
	return nil
}

type fixture struct {
	discoverer *fakeDiscoverer
	fetcher    *fakeFetcher
	text       *fakeText
	tables     *fakeTables
	ledger     *fakeLedger
	blobs      *storage.FSBlobStore
	records    *fakeRecords
	logs       *fakeLogs
	runner     *Runner
}

func newFixture(links ...string) *fixture {
	f := &fixture{
		discoverer: &fakeDiscoverer{links: links},
		fetcher:    &fakeFetcher{fail: map[string]error{}},
		text:       &fakeText{pages: map[string]map[int]string{}},
		tables:     &fakeTables{},
		ledger:     &fakeLedger{},
		blobs:      storage.NewFSBlobStore(afero.NewMemMapFs()),
		records:    &fakeRecords{},
		logs:       &fakeLogs{},
	}
	for _, l := range links {
		f.text.pages[l] = map[int]string{1: "HARTI\n" + marker + "\nDaily"}
	}

	logger := utils.NewLoggerTo(&bytes.Buffer{})
	f.runner = NewRunner(
		Options{SourceURL: "https://example.org/bulletin", MetadataMarker: marker},
		Deps{
			Discoverer: f.discoverer,
			Fetcher:    f.fetcher,
			Text:       f.text,
			Tables:     f.tables,
			Ledger:     f.ledger,
			CSV:        storage.NewCSVWriter(f.blobs, "csv/", ""),
			Records:    f.records,
			Logs:       f.logs,
		},
		services.NewTransformer(logger, services.SplitBatch),
		logger,
	)
	f.runner.now = func() time.Time { return time.Date(2024, 10, 14, 6, 0, 0, 0, time.UTC) }
	return f
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("Should process documents oldest first", func(t *testing.T) {
		f := newFixture("https://x/new.pdf", "https://x/old.pdf")
		report, err := f.runner.Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, []string{"https://x/old.pdf", "https://x/new.pdf"}, f.fetcher.calls)
		assert.Equal(t, RunReport{Discovered: 2, Processed: 2, Records: 4}, report)
		require.Len(t, f.ledger.saves, 1)
		assert.Equal(t, "https://x/old.pdf\nhttps://x/new.pdf\n", f.ledger.text)

		require.Len(t, f.records.batches, 2)
		assert.Equal(t, "2024-10-14", f.records.batches[0][0].DatabaseWriteDate.String())
		assert.Equal(t, 1, f.records.batches[0][0].Page)

		data, err := f.blobs.Read(ctx, "csv/2024-10.csv")
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(string(data), "Database Write Date"))
		assert.Equal(t, 5, strings.Count(string(data), "\n"))
	})

	t.Run("Should not reprocess documents in the ledger", func(t *testing.T) {
		f := newFixture("https://x/b.pdf", "https://x/a.pdf")
		f.ledger.text = "https://x/a.pdf\nhttps://x/b.pdf\n"

		report, err := f.runner.Run(ctx)
		require.NoError(t, err)
		assert.Empty(t, f.fetcher.calls)
		assert.Zero(t, f.tables.calls)
		assert.Equal(t, 2, report.Skipped)
		assert.Equal(t, "https://x/a.pdf\nhttps://x/b.pdf\n", f.ledger.text)
	})

	t.Run("Should record failed documents as processed", func(t *testing.T) {
		f := newFixture("https://x/good.pdf", "https://x/broken.pdf", "https://x/nometa.pdf")
		f.fetcher.fail["https://x/broken.pdf"] = models.ErrTransport
		f.text.pages["https://x/nometa.pdf"] = map[int]string{1: "Retail prices", 2: "Fish"}

		report, err := f.runner.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Failed)
		assert.Equal(t, 1, report.Processed)
		assert.Equal(t, 1, f.tables.calls, "only the good document reaches table extraction")
		assert.Equal(t, "https://x/nometa.pdf\nhttps://x/broken.pdf\nhttps://x/good.pdf\n", f.ledger.text)
	})

	t.Run("Should abort without saving when the ledger cannot be loaded", func(t *testing.T) {
		f := newFixture("https://x/a.pdf")
		f.ledger.loadErr = models.ErrTransport

		_, err := f.runner.Run(ctx)
		assert.ErrorIs(t, err, models.ErrTransport)
		assert.Empty(t, f.ledger.saves)
		assert.Empty(t, f.fetcher.calls)
		assert.Len(t, f.logs.flushes, 1, "logs are flushed on failure too")
	})

	t.Run("Should abort when discovery fails", func(t *testing.T) {
		f := newFixture()
		f.discoverer.err = errors.New("connection refused")

		_, err := f.runner.Run(ctx)
		assert.Error(t, err)
		assert.Empty(t, f.ledger.saves)
	})

	t.Run("Should leave the ledger alone when nothing is discovered", func(t *testing.T) {
		f := newFixture()
		report, err := f.runner.Run(ctx)
		require.NoError(t, err)
		assert.Zero(t, report.Discovered)
		assert.Empty(t, f.ledger.saves)
		require.Len(t, f.logs.flushes, 1)
		assert.NotEmpty(t, f.logs.flushes[0])
	})

	t.Run("Should work with the blob-backed ledger", func(t *testing.T) {
		f := newFixture("https://x/a.pdf")
		ledger := storage.NewBlobLedger(f.blobs, "processed_pdfs.txt")
		f.runner.deps.Ledger = ledger

		_, err := f.runner.Run(ctx)
		require.NoError(t, err)
		_, err = f.runner.Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, []string{"https://x/a.pdf"}, f.fetcher.calls)
		text, err := ledger.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "https://x/a.pdf\n", text)
	})
}

func TestRunCancellation(t *testing.T) {
	t.Run("Should not record the document that was interrupted", func(t *testing.T) {
		f := newFixture("https://x/new.pdf", "https://x/old.pdf")
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		f.fetcher.onFetch = func(url string) {
			if url == "https://x/new.pdf" {
				cancel()
			}
		}

		report, err := f.runner.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, report.Processed)
		assert.Zero(t, report.Failed)
		require.Len(t, f.ledger.saves, 1)
		assert.Equal(t, "https://x/old.pdf\n", f.ledger.text)
	})

	t.Run("Should record nothing when the first document is interrupted", func(t *testing.T) {
		f := newFixture("https://x/new.pdf", "https://x/old.pdf")
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		f.fetcher.onFetch = func(string) { cancel() }

		report, err := f.runner.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, RunReport{Discovered: 2}, report)
		assert.Equal(t, []string{"https://x/old.pdf"}, f.fetcher.calls)
		assert.Empty(t, f.ledger.text)
	})

	t.Run("Should stop before fetching when already cancelled", func(t *testing.T) {
		f := newFixture("https://x/a.pdf")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.runner.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, f.fetcher.calls)
		assert.Empty(t, f.ledger.text)
		assert.Len(t, f.logs.flushes, 1)
	})
}

func TestSelectPage(t *testing.T) {
	doc := []byte("doc")
	tests := []struct {
		name    string
		pages   map[int]string
		want    int
		wantErr bool
	}{
		{name: "marker on page 1", pages: map[int]string{1: marker, 2: marker}, want: 1},
		{name: "marker on page 2", pages: map[int]string{1: "Retail", 2: "x\n  " + marker + "\r\ny"}, want: 2},
		{name: "unreadable page 1", pages: map[int]string{2: marker}, want: 2},
		{name: "marker embedded in a longer line", pages: map[int]string{1: "Table 1 " + marker}, wantErr: true},
		{name: "no marker", pages: map[int]string{1: "a", 2: "b"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := &fakeText{pages: map[string]map[int]string{"doc": tt.pages}}
			got, err := SelectPage(text, doc, marker)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrMetadataNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
