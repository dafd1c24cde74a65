package utils

import (
	"os"
	"runtime"
	"strconv"
)

const (
	DefaultSemaphoreLimit = 20
)

// GetSemaphoreLimit returns the semaphore limit from environment variable or default
func GetSemaphoreLimit() int {
	return envInt("SEMAPHORE_LIMIT", DefaultSemaphoreLimit)
}

// DefaultWorkers returns the number of sampling workers to use when none is
// configured: GRAPHCONF_WORKERS if set, otherwise GOMAXPROCS.
func DefaultWorkers() int {
	return envInt("GRAPHCONF_WORKERS", runtime.GOMAXPROCS(0))
}

func envInt(name string, def int) int {
	val := os.Getenv(name)
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
