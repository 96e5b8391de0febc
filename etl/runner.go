// Package etl drives one incremental pass over the bulletin listing: it
// discovers documents, skips those already in the ledger, and pushes each new
// one through extraction, transformation and the sinks.
package etl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bulletin-etl/models"
	"bulletin-etl/services"
	"bulletin-etl/storage"
	"bulletin-etl/utils"
)

// Pages searched for the metadata marker, in order.
var candidatePages = []int{1, 2}

// Discoverer lists the document URLs published on a page.
type Discoverer interface {
	Discover(ctx context.Context, pageURL string) ([]string, error)
}

// Fetcher downloads a document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// TextExtractor returns the plain text of a 1-based document page.
type TextExtractor interface {
	PageText(doc []byte, page int) (string, error)
}

// TableExtractor returns the tables found on a 1-based document page.
type TableExtractor interface {
	ExtractTables(ctx context.Context, doc []byte, page int) ([]models.RawTable, error)
}

// Options are the run parameters that do not depend on a backend.
type Options struct {
	SourceURL      string
	MetadataMarker string
	RateLimitMs    int
}

// Deps are the collaborators of a Runner.
type Deps struct {
	Discoverer Discoverer
	Fetcher    Fetcher
	Text       TextExtractor
	Tables     TableExtractor
	Ledger     storage.LedgerStore
	CSV        storage.CSVSink
	Records    storage.RecordWriter
	Logs       storage.LogSink
}

// RunReport counts what happened to the discovered documents.
type RunReport struct {
	Discovered int
	Skipped    int
	Processed  int
	Failed     int
	Records    int
}

// Runner executes ETL passes. It is not safe for concurrent use; the
// scheduler never overlaps runs.
type Runner struct {
	opts        Options
	deps        Deps
	logger      *utils.Logger
	transformer *services.Transformer
	summary     *services.SummaryService
	throttle    *utils.Throttle
	now         func() time.Time
}

func NewRunner(opts Options, deps Deps, transformer *services.Transformer, logger *utils.Logger) *Runner {
	return &Runner{
		opts:        opts,
		deps:        deps,
		logger:      logger,
		transformer: transformer,
		summary:     services.NewSummaryService(logger),
		throttle:    utils.NewThrottle(opts.RateLimitMs),
		now:         time.Now,
	}
}

// Run performs one pass. Documents are handled oldest first; a document that
// fails is logged and still recorded as processed. Discovery and ledger
// failures abort the run without touching the ledger. The run's log lines
// are flushed to the log sink before Run returns.
func (r *Runner) Run(ctx context.Context) (report RunReport, err error) {
	start := r.now()
	defer func() {
		r.logger.Info("[etl] Run finished in %s — %d discovered, %d skipped, %d processed, %d failed, %d records",
			r.now().Sub(start).Round(time.Millisecond), report.Discovered, report.Skipped,
			report.Processed, report.Failed, report.Records)
		if err != nil {
			r.logger.Error("[etl] Run aborted: %v", err)
		}
		r.flushLogs(ctx)
	}()

	r.logger.Info("[etl] Run started — source: %s", r.opts.SourceURL)

	links, err := r.deps.Discoverer.Discover(ctx, r.opts.SourceURL)
	if err != nil {
		return report, fmt.Errorf("discover: %w", err)
	}
	report.Discovered = len(links)
	if len(links) == 0 {
		r.logger.Warn("[etl] No documents found on %s", r.opts.SourceURL)
		return report, nil
	}

	text, err := r.deps.Ledger.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("load ledger: %w", err)
	}
	ledger := storage.ParseLedger(text)
	r.logger.Info("[etl] Ledger holds %d processed documents", ledger.Len())

	// The listing shows the newest bulletin first
	for i := len(links) - 1; i >= 0; i-- {
		link := links[i]
		if ledger.Contains(link) {
			report.Skipped++
			r.logger.Debug("[etl] Skipping processed document %s", link)
			continue
		}
		if err = r.throttle.Wait(ctx); err != nil {
			break
		}

		n, docErr := r.processDocument(ctx, link)
		if ctxErr := ctx.Err(); ctxErr != nil && docErr != nil {
			// Interrupted, not failed: leave it for the next run
			r.logger.Warn("[etl] Run interrupted while processing %s", link)
			err = ctxErr
			break
		}
		if docErr != nil {
			report.Failed++
			r.logger.Error("[etl] Document %s failed: %v", link, docErr)
		} else {
			report.Processed++
			report.Records += n
		}
		ledger.Add(link)
	}

	// Documents finished before a cancellation stay recorded
	if saveErr := r.deps.Ledger.Save(context.WithoutCancel(ctx), ledger.String()); saveErr != nil {
		return report, fmt.Errorf("save ledger: %w", saveErr)
	}
	if err != nil {
		return report, err
	}
	return report, nil
}

func (r *Runner) processDocument(ctx context.Context, link string) (int, error) {
	r.logger.Info("[etl] Processing %s", link)

	doc, err := r.deps.Fetcher.Fetch(ctx, link)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}

	page, err := SelectPage(r.deps.Text, doc, r.opts.MetadataMarker)
	if err != nil {
		return 0, err
	}
	r.logger.Debug("[etl] Price table is on page %d", page)

	tables, err := r.deps.Tables.ExtractTables(ctx, doc, page)
	if err != nil {
		return 0, fmt.Errorf("extract tables: %w", err)
	}
	raw := services.ConcatTables(tables)
	if raw == nil {
		return 0, fmt.Errorf("%w: no tables on page %d", models.ErrParse, page)
	}

	records, err := r.transformer.Transform(raw, page, r.now())
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		r.logger.Warn("[etl] %s produced no records", link)
		return 0, nil
	}
	r.summary.Log(link, r.summary.Generate(records))

	name, err := r.deps.CSV.WriteRecords(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("csv sink: %w", err)
	}
	r.logger.Info("[etl] Appended %d records to %s", len(records), name)
	if err := r.deps.Records.Write(ctx, records); err != nil {
		return 0, fmt.Errorf("record sink: %w", err)
	}
	return len(records), nil
}

func (r *Runner) flushLogs(ctx context.Context) {
	if r.deps.Logs == nil {
		return
	}
	if err := r.deps.Logs.Flush(context.WithoutCancel(ctx), r.logger.Drain()); err != nil {
		r.logger.Error("[etl] Could not archive run log: %v", err)
	}
}

// SelectPage returns the first candidate page with a line that, trimmed,
// equals marker. Pages whose text cannot be read are treated as empty.
func SelectPage(text TextExtractor, doc []byte, marker string) (int, error) {
	marker = strings.TrimSpace(marker)
	for _, page := range candidatePages {
		content, err := text.PageText(doc, page)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(content, "\n") {
			if strings.TrimSpace(line) == marker {
				return page, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q not on pages %v", models.ErrMetadataNotFound, marker, candidatePages)
}
