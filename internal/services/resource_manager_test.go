package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptimalWorkersHonorsConfigured(t *testing.T) {
	rm := NewResourceManager(nil)
	assert.Equal(t, 6, rm.OptimalWorkers(6))
}

func TestOptimalWorkersDerivedWithinBounds(t *testing.T) {
	rm := NewResourceManager(nil)
	workers := rm.OptimalWorkers(0)
	assert.GreaterOrEqual(t, workers, minWorkers)
	assert.LessOrEqual(t, workers, maxWorkers)
}
