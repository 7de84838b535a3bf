// Package reader provides the read side of published builds for the ffpkg CLI.
//
// Read-only commands go through a Reader; they never open the Lode dataset
// themselves.
package reader

// BuildItem is one row of the history listing.
type BuildItem struct {
	BuildID     string `json:"build_id" yaml:"build_id"`
	Source      string `json:"source" yaml:"source"`
	Day         string `json:"day" yaml:"day"`
	Name        string `json:"name" yaml:"name"`
	ImageBytes  int64  `json:"image_bytes" yaml:"image_bytes" render:"bytes"`
	DurationMs  int64  `json:"duration_ms" yaml:"duration_ms" render:"ms"`
	PublishedAt string `json:"published_at" yaml:"published_at"`
}

// BuildDetail is everything recorded about one published build.
type BuildDetail struct {
	BuildID          string   `json:"build_id" yaml:"build_id"`
	Source           string   `json:"source" yaml:"source"`
	Day              string   `json:"day" yaml:"day"`
	Name             string   `json:"name" yaml:"name"`
	SourceDir        string   `json:"source_dir" yaml:"source_dir"`
	ToolArgs         []string `json:"tool_args" yaml:"tool_args"`
	EstimatedBytes   uint64   `json:"estimated_bytes" yaml:"estimated_bytes" render:"bytes"`
	RoundedMegabytes uint64   `json:"rounded_megabytes" yaml:"rounded_megabytes"`
	ImageBytes       int64    `json:"image_bytes" yaml:"image_bytes" render:"bytes"`
	SHA256           string   `json:"sha256" yaml:"sha256"`
	ImagePath        string   `json:"image_path" yaml:"image_path"`
	ManifestPath     string   `json:"manifest_path" yaml:"manifest_path"`
	CreatedAt        string   `json:"created_at" yaml:"created_at"`
	PublishedAt      string   `json:"published_at" yaml:"published_at"`
	DurationMs       int64    `json:"duration_ms" yaml:"duration_ms" render:"ms"`
	Rollbacks        int64    `json:"rollbacks" yaml:"rollbacks"`
	CleanupFailures  int64    `json:"cleanup_failures" yaml:"cleanup_failures"`
	ContractVersion  string   `json:"contract_version" yaml:"contract_version"`
}

// Item returns the listing row for d.
func (d *BuildDetail) Item() BuildItem {
	return BuildItem{
		BuildID:     d.BuildID,
		Source:      d.Source,
		Day:         d.Day,
		Name:        d.Name,
		ImageBytes:  d.ImageBytes,
		DurationMs:  d.DurationMs,
		PublishedAt: d.PublishedAt,
	}
}

// HistoryStats summarises a listing.
type HistoryStats struct {
	Builds            int   `json:"builds" yaml:"builds"`
	Sources           int   `json:"sources" yaml:"sources"`
	TotalImageBytes   int64 `json:"total_image_bytes" yaml:"total_image_bytes" render:"bytes"`
	AverageDurationMs int64 `json:"average_duration_ms" yaml:"average_duration_ms" render:"ms"`
}

// Summarize computes HistoryStats over items.
func Summarize(items []BuildItem) HistoryStats {
	stats := HistoryStats{Builds: len(items)}
	if len(items) == 0 {
		return stats
	}
	sources := make(map[string]struct{})
	var duration int64
	for _, it := range items {
		sources[it.Source] = struct{}{}
		stats.TotalImageBytes += it.ImageBytes
		duration += it.DurationMs
	}
	stats.Sources = len(sources)
	stats.AverageDurationMs = duration / int64(len(items))
	return stats
}
