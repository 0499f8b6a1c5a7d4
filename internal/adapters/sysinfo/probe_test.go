package sysinfo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe_Sample(t *testing.T) {
	probe := NewProbe(50 * time.Millisecond)

	metrics, err := probe.Sample(context.Background(), t.TempDir())
	require.NoError(t, err)

	assert.Greater(t, metrics.RAMTotal, uint64(0))
	assert.Greater(t, metrics.DiskTotal, uint64(0))
	assert.GreaterOrEqual(t, metrics.CPUPercent, 0.0)
	assert.LessOrEqual(t, metrics.DiskPercent, 100.0)
}

func TestProbe_MissingDiskPath(t *testing.T) {
	probe := NewProbe(10 * time.Millisecond)

	metrics, err := probe.Sample(context.Background(), "/definitely/not/here")

	assert.Error(t, err)
	require.NotNil(t, metrics)
	assert.Equal(t, uint64(0), metrics.DiskTotal)
}
