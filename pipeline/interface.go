package pipeline

import (
	"context"
)

// Extractor materialises one chunk of source rows as a header-bearing CSV object, overwriting any prior object.
// Implementations acquire and release their own source connection per call and never retry.
type Extractor interface {
	Extract(ctx context.Context, task ExtractTask) error
}

// SourceStatter measures the source table for bootstrap planning.
type SourceStatter interface {
	SourceStats(ctx context.Context) (SourceExtent, error)
}

type Prober interface {
	Probe(ctx context.Context) (HighWaterMark, error)
}

type Loader interface {
	// Rebuild drops and recreates the destination table then loads everything under location.
	Rebuild(ctx context.Context, location string) (rows int64, err error)
	// BulkLoad appends the rows staged at location and returns how many rows now sit above hwm.
	BulkLoad(ctx context.Context, location string, hwm HighWaterMark) (rows int64, err error)
}

// Stager manages the staging objects around a bootstrap.
type Stager interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Missing(ctx context.Context, keys []string) ([]string, error)
}
