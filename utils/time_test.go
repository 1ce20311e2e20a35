package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkDate(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 20:00 UTC is already the next day in India
	ts := time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-10", WorkDate(ts, time.UTC))
	assert.Equal(t, "2024-01-11", WorkDate(ts, kolkata))
	assert.Equal(t, "2024-01-10", WorkDate(ts, nil))
}

func TestWholeMinutes(t *testing.T) {
	start := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(0), WholeMinutes(start, start.Add(59*time.Second)))
	assert.Equal(t, int64(90), WholeMinutes(start, start.Add(90*time.Minute+30*time.Second)))
	assert.Equal(t, int64(0), WholeMinutes(start, start.Add(-time.Minute)))
}
