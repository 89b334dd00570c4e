package services

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

const (
	minWorkers = 1
	maxWorkers = 32
)

// ResourceManager sizes the simulation worker pools from the host's
// CPU and memory. Worker count only affects throughput, never results:
// per-entity random streams keep output identical at any pool size.
type ResourceManager struct {
	cpuCores int
	memoryGB float64
	logger   *logrus.Logger
}

func NewResourceManager(logger *logrus.Logger) *ResourceManager {
	rm := &ResourceManager{
		cpuCores: runtime.NumCPU(),
		memoryGB: 8.0,
		logger:   logger,
	}
	if memInfo, err := mem.VirtualMemory(); err == nil {
		rm.memoryGB = float64(memInfo.Total) / (1024 * 1024 * 1024)
	} else if logger != nil {
		logger.WithError(err).Warn("could not read memory info, assuming 8GB")
	}
	return rm
}

// OptimalWorkers returns the configured worker count when set, and
// otherwise derives one from CPU cores, trimmed when memory is tight
// or the CPU is already busy.
func (rm *ResourceManager) OptimalWorkers(configured int) int {
	if configured > 0 {
		return configured
	}

	workers := rm.cpuCores
	if rm.memoryGB < 4.0 {
		workers /= 2
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 && percents[0] > 80.0 {
		workers = workers * 7 / 10
	}

	if workers < minWorkers {
		workers = minWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	if rm.logger != nil {
		rm.logger.WithFields(logrus.Fields{
			"cpu_cores": rm.cpuCores,
			"memory_gb": rm.memoryGB,
			"workers":   workers,
		}).Debug("sized simulation worker pool")
	}
	return workers
}
