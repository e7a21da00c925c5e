package ui

import (
	"encoding/json"
	"fmt"
	"io"
)

// ShardStat is one shard's contribution to an index's StatusInfo.
type ShardStat struct {
	ID       int   `json:"id"`
	DocCount int64 `json:"doc_count"`
}

// StatusInfo summarizes one index's current health for `ftsctl stats`.
type StatusInfo struct {
	IndexName  string      `json:"index_name"`
	DocCount   int64       `json:"doc_count"`
	ShardCount int         `json:"shard_count"`
	Shards     []ShardStat `json:"shards"`

	Tokens      int   `json:"tokens"`
	MemoryUsage int64 `json:"memory_usage"`

	CacheSize int `json:"cache_size"`

	SnapshotCount int `json:"snapshot_count"`
}

// StatusRenderer displays index status.
type StatusRenderer struct {
	out     io.Writer
	styles  Styles
	noColor bool
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:     out,
		styles:  GetStyles(noColor),
		noColor: noColor,
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index: "+info.IndexName))

	_, _ = fmt.Fprintf(r.out, "  Documents: %d\n", info.DocCount)
	_, _ = fmt.Fprintf(r.out, "  Shards:    %d\n", info.ShardCount)
	_, _ = fmt.Fprintf(r.out, "  Tokens:    %d\n", info.Tokens)
	_, _ = fmt.Fprintf(r.out, "  Memory:    %s\n", FormatBytes(info.MemoryUsage))
	_, _ = fmt.Fprintf(r.out, "  Snapshots: %d\n", info.SnapshotCount)
	_, _ = fmt.Fprintln(r.out)

	if len(info.Shards) > 0 {
		_, _ = fmt.Fprintln(r.out, "  Per-shard load:")
		maxCount := int64(1)
		for _, s := range info.Shards {
			if s.DocCount > maxCount {
				maxCount = s.DocCount
			}
		}
		for _, s := range info.Shards {
			bar := loadBar(s.DocCount, maxCount, 30)
			_, _ = fmt.Fprintf(r.out, "    shard %-3d %s %d\n", s.ID, r.styles.Progress.Render(bar), s.DocCount)
		}
	}

	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// loadBar renders a fixed-width bar proportional to count/max.
func loadBar(count, max int64, width int) string {
	if max <= 0 {
		max = 1
	}
	filled := int(float64(width) * float64(count) / float64(max))
	if filled > width {
		filled = width
	}
	bar := make([]rune, width)
	for i := range bar {
		if i < filled {
			bar[i] = '█'
		} else {
			bar[i] = '░'
		}
	}
	return string(bar)
}

// FormatBytes formats bytes to human-readable format, used by index
// memory-usage reporting in `ftsctl stats`.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
