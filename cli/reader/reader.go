package reader

import (
	"context"
	"fmt"

	lodeds "github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/ffpkg/lode"
)

// Reader abstracts read-only access to published builds.
type Reader interface {
	// ListBuilds returns published builds, newest first.
	ListBuilds(ctx context.Context, opts ListOptions) ([]BuildItem, error)
	// InspectBuild returns one build; the error wraps lode.ErrNoBuildsFound
	// when it was never published.
	InspectBuild(ctx context.Context, buildID string) (*BuildDetail, error)
}

// ListOptions filters ListBuilds.
type ListOptions struct {
	Source string
	Limit  int
}

// LodeReader reads build records from a Lode dataset.
type LodeReader struct {
	ds lodeds.Dataset
}

var _ Reader = (*LodeReader)(nil)

// NewLodeReader creates a reader over ds, which must use the publish layout
// (see lode.NewReadDataset).
func NewLodeReader(ds lodeds.Dataset) *LodeReader {
	return &LodeReader{ds: ds}
}

// ListBuilds implements Reader.
func (r *LodeReader) ListBuilds(ctx context.Context, opts ListOptions) ([]BuildItem, error) {
	records, err := lode.QueryBuilds(ctx, r.ds, lode.BuildFilter{Source: opts.Source, Limit: opts.Limit})
	if err != nil {
		return nil, err
	}

	items := make([]BuildItem, 0, len(records))
	for _, record := range records {
		d, err := ParseBuildRecord(record)
		if err != nil {
			return nil, fmt.Errorf("parse build record: %w", err)
		}
		items = append(items, d.Item())
	}
	return items, nil
}

// InspectBuild implements Reader.
func (r *LodeReader) InspectBuild(ctx context.Context, buildID string) (*BuildDetail, error) {
	record, err := lode.QueryBuild(ctx, r.ds, buildID)
	if err != nil {
		return nil, err
	}
	d, err := ParseBuildRecord(record)
	if err != nil {
		return nil, fmt.Errorf("parse build record: %w", err)
	}
	return d, nil
}
