package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScanMetadata(t *testing.T) {
	m := NewScanMetadata("/repo", "1.2.0")

	_, err := time.Parse(time.RFC3339, m.Timestamp)
	require.NoError(t, err)
	assert.Equal(t, "/repo", m.ScanPath)
	assert.Equal(t, FormatVersion, m.FormatVersion)
	assert.Equal(t, "1.2.0", m.ToolVersion)

	m.SetDuration(1500 * time.Millisecond)
	m.SetCounts(10, 3, 4)
	assert.Equal(t, int64(1500), m.DurationMs)
	assert.Equal(t, 10, m.FileCount)
	assert.Equal(t, 3, m.DirCount)
	assert.Equal(t, 4, m.TechCount)

	m.SetProperties(nil)
	assert.Nil(t, m.Properties)
	m.SetProperties(map[string]any{"team": "platform"})
	assert.Equal(t, "platform", m.Properties["team"])
}
