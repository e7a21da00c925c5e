package ui

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusInfo_Zero(t *testing.T) {
	info := StatusInfo{}
	assert.Empty(t, info.IndexName)
	assert.Equal(t, int64(0), info.DocCount)
	assert.Equal(t, 0, info.ShardCount)
	assert.Empty(t, info.Shards)
}

func TestStatusInfo_JSONSerialization(t *testing.T) {
	info := StatusInfo{
		IndexName:     "movies",
		DocCount:      100,
		ShardCount:    4,
		SnapshotCount: 3,
		Shards: []ShardStat{
			{ID: 0, DocCount: 30},
			{ID: 1, DocCount: 70},
		},
	}

	data, err := json.Marshal(info)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "movies", parsed["index_name"])
	assert.Equal(t, float64(100), parsed["doc_count"])
	assert.Equal(t, float64(4), parsed["shard_count"])
	assert.Equal(t, float64(3), parsed["snapshot_count"])
}

func TestStatusRenderer_RenderBasic(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, false)

	info := StatusInfo{
		IndexName:  "movies",
		DocCount:   250,
		ShardCount: 4,
		Shards: []ShardStat{
			{ID: 0, DocCount: 50},
			{ID: 1, DocCount: 200},
		},
	}

	require.NoError(t, r.Render(info))

	output := buf.String()
	assert.Contains(t, output, "movies")
	assert.Contains(t, output, "250")
	assert.Contains(t, output, "shard 0")
	assert.Contains(t, output, "shard 1")
}

func TestStatusRenderer_RenderJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, false)

	info := StatusInfo{IndexName: "books", DocCount: 25, ShardCount: 2}
	require.NoError(t, r.RenderJSON(info))

	var parsed StatusInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "books", parsed.IndexName)
	assert.Equal(t, int64(25), parsed.DocCount)
}

func TestStatusRenderer_NoColorProducesNoAnsiCodes(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	info := StatusInfo{IndexName: "no-color", Shards: []ShardStat{{ID: 0, DocCount: 1}}}
	require.NoError(t, r.Render(info))

	output := buf.String()
	assert.NotContains(t, output, "\x1b[")
	assert.NotContains(t, output, "\033[")
}

func TestLoadBarScalesToWidth(t *testing.T) {
	full := loadBar(10, 10, 20)
	assert.Len(t, []rune(full), 20)
	assert.NotContains(t, full, "░")

	empty := loadBar(0, 10, 20)
	assert.Len(t, []rune(empty), 20)
	assert.NotContains(t, empty, "█")

	half := loadBar(5, 10, 20)
	assert.Contains(t, half, "█")
	assert.Contains(t, half, "░")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{1024 * 1024 * 1024, "1.0 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatBytes(tt.bytes))
		})
	}
}
