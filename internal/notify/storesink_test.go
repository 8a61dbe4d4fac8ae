package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 03:00 UTC is the previous evening in New York but mid-morning in Kolkata.
// The dedup day must follow the reference zone, never the server or database
// session zone.
func TestRefDay_ReferenceZoneBoundary(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	at := time.Date(2025, 1, 15, 3, 0, 0, 0, time.UTC)

	assert.Equal(t, "2025-01-14", refDay(at, ny))
	assert.Equal(t, "2025-01-15", refDay(at, kolkata))
	assert.Equal(t, "2025-01-15", refDay(at, time.UTC))
}
