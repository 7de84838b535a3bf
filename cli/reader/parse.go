package reader

import "errors"

// ParseBuildRecord converts a Lode record (map[string]any) to a BuildDetail.
// Handles both integer values (direct writes) and float64 (JSON round-trips).
func ParseBuildRecord(record map[string]any) (*BuildDetail, error) {
	if record == nil {
		return nil, errors.New("nil record")
	}

	d := &BuildDetail{
		BuildID:   toString(record["build_id"]),
		Source:    toString(record["source"]),
		Day:       toString(record["day"]),
		Name:      toString(record["name"]),
		SourceDir: toString(record["source_dir"]),
		ToolArgs:  toStrings(record["tool_args"]),

		EstimatedBytes:   uint64(max(toInt64(record["estimated_bytes"]), 0)),
		RoundedMegabytes: uint64(max(toInt64(record["rounded_megabytes"]), 0)),
		ImageBytes:       toInt64(record["image_bytes"]),
		SHA256:           toString(record["sha256"]),

		ImagePath:    toString(record["image_path"]),
		ManifestPath: toString(record["manifest_path"]),
		CreatedAt:    toString(record["created_at"]),
		PublishedAt:  toString(record["published_at"]),

		DurationMs:      toInt64(record["duration_ms"]),
		Rollbacks:       toInt64(record["rollbacks"]),
		CleanupFailures: toInt64(record["cleanup_failures"]),
		ContractVersion: toString(record["contract_version"]),
	}

	// The write path always populates these.
	if d.BuildID == "" {
		return nil, errors.New("build record missing required field: build_id")
	}
	if d.Source == "" {
		return nil, errors.New("build record missing required field: source")
	}
	if d.Name == "" {
		return nil, errors.New("build record missing required field: name")
	}

	return d, nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	case int:
		return int64(n)
	default:
		return 0
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toStrings accepts []string (direct) and []any (JSON round-trip).
func toStrings(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			out = append(out, toString(item))
		}
		return out
	default:
		return nil
	}
}
