package utils

import (
	"sync"
	"time"
)

// MetricsCollector tracks request counts and per-operation latencies.
type MetricsCollector struct {
	mu           sync.RWMutex
	requestCount uint64
	errorCount   uint64

	// Maps operation name to list of latencies in nanoseconds
	operationTimes map[string][]int64

	systemStartTime time.Time
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		operationTimes:  make(map[string][]int64),
		systemStartTime: time.Now(),
	}
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.requestCount++
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.errorCount++
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.operationTimes[operationName] = append(
		mc.operationTimes[operationName],
		duration.Nanoseconds(),
	)
}

// OperationStats returns the call count and mean latency for one operation.
func (mc *MetricsCollector) OperationStats(operationName string) (count int, mean time.Duration) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	times := mc.operationTimes[operationName]
	if len(times) == 0 {
		return 0, 0
	}
	var total int64
	for _, t := range times {
		total += t
	}
	return len(times), time.Duration(total / int64(len(times)))
}

// Snapshot returns aggregate counters for the health endpoint.
func (mc *MetricsCollector) Snapshot() (requests, errors uint64, uptime time.Duration) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.requestCount, mc.errorCount, time.Since(mc.systemStartTime)
}
