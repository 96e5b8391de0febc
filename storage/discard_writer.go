package storage

import (
	"context"

	"bulletin-etl/models"
)

// DiscardWriter accepts records and stores nothing. It backs RECORD_SINK=none.
type DiscardWriter struct{}

func (DiscardWriter) Write(context.Context, []models.FinalRecord) error { return nil }
func (DiscardWriter) Close() error                                     { return nil }
