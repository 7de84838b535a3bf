package lode

import (
	"time"

	"github.com/pithecene-io/ffpkg/manifest"
	"github.com/pithecene-io/ffpkg/metrics"
)

// RecordKindBuild discriminates build records in the dataset.
const RecordKindBuild = "build"

// toBuildRecordMap flattens a published build into a storage record.
// Lode HiveLayout requires records as map[string]any carrying the
// partition keys.
func toBuildRecordMap(m *manifest.Manifest, snap metrics.Snapshot, cfg Config, publishedAt time.Time) map[string]any {
	return map[string]any{
		"record_kind":       RecordKindBuild,
		"contract_version":  m.Version,
		"name":              m.Name,
		"source_dir":        m.SourceDir,
		"tool_args":         append([]string(nil), m.ToolArgs...),
		"estimated_bytes":   m.Estimate.TotalBytes,
		"rounded_megabytes": m.Estimate.RoundedMegabytes,
		"image_bytes":       m.ImageBytes,
		"sha256":            m.SHA256,
		"image_path":        cfg.FilePath(m.Name),
		"manifest_path":     cfg.FilePath(m.Name + manifest.Suffix),
		"created_at":        m.CreatedAt.UTC().Format(time.RFC3339Nano),
		"published_at":      publishedAt.UTC().Format(time.RFC3339Nano),
		"duration_ms":       snap.DurationMillis,
		"rollbacks":         snap.Rollbacks,
		"cleanup_failures":  snap.CleanupFailures,

		// partition keys
		"source":   cfg.Source,
		"day":      cfg.Day,
		"build_id": cfg.BuildID,
	}
}
