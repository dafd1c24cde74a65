package telemetry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

// StepRecord is one refinement step as stored in Parquet
type StepRecord struct {
	ID        string    `parquet:"id"`
	QueryID   string    `parquet:"query_id"`
	Timestamp time.Time `parquet:"timestamp"`
	Pattern   string    `parquet:"pattern"`
	Method    string    `parquet:"method"`
	Round     int       `parquet:"round"`
	State     string    `parquet:"state"`
	Epsilon   float64   `parquet:"epsilon"`
	Delta     float64   `parquet:"delta"`
	Estimate  float64   `parquet:"estimate"`
	// Keys is the number of result keys for set-valued patterns
	Keys      int     `parquet:"keys"`
	Trials    int64   `parquet:"trials"`
	ElapsedMs float64 `parquet:"elapsed_ms"`
	Error     string  `parquet:"error"`
}

// StepRecorder buffers step records and writes them to Parquet files in
// batches. It is safe for concurrent use.
type StepRecorder struct {
	outputDir string
	batchSize int
	logger    *slog.Logger

	mu     sync.Mutex
	buffer []StepRecord
	files  []string
}

// NewStepRecorder creates outputDir and returns a recorder writing there.
func NewStepRecorder(outputDir string, batchSize int, logger *slog.Logger) (*StepRecorder, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	if batchSize <= 0 {
		batchSize = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StepRecorder{
		outputDir: outputDir,
		batchSize: batchSize,
		logger:    logger,
		buffer:    make([]StepRecord, 0, batchSize),
	}, nil
}

// Record buffers rec, flushing when the batch is full. Write failures are
// logged, not returned, so recording never fails a query.
func (r *StepRecorder) Record(rec StepRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffer = append(r.buffer, rec)
	if len(r.buffer) >= r.batchSize {
		if err := r.flush(); err != nil {
			r.logger.Warn("Failed to write step telemetry", "error", err)
		}
	}
}

// Flush writes buffered records to a new file
func (r *StepRecorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flush()
}

// Files lists the files written so far
func (r *StepRecorder) Files() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.files...)
}

func (r *StepRecorder) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}
	now := time.Now()
	name := fmt.Sprintf("steps_%s_%d.parquet", now.Format("20060102_150405"), now.UnixNano())
	path := filepath.Join(r.outputDir, name)
	if err := parquet.WriteFile(path, r.buffer); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	r.files = append(r.files, path)
	r.buffer = r.buffer[:0]
	r.logger.Debug("Step telemetry persisted", "path", path)
	return nil
}

// ReadSteps loads the records of one step file
func ReadSteps(path string) ([]StepRecord, error) {
	rows, err := parquet.ReadFile[StepRecord](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}
