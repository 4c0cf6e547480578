package recorder

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type manifest struct {
	RunID     string    `json:"run_id"`
	Tag       string    `json:"tag"`
	StartedAt time.Time `json:"started_at"`
	Metadata  any       `json:"metadata,omitempty"`
}

// FileRecorder writes a manifest, one JSON line per episode and a closing
// summary into an output directory.
type FileRecorder struct {
	metadata any

	dir     string
	tag     string
	runID   string
	file    *os.File
	writer  *bufio.Writer
	records []*EpisodeRecord
}

// NewFileRecorder creates a file recorder. metadata is stored verbatim in
// the run manifest.
func NewFileRecorder(metadata any) *FileRecorder {
	return &FileRecorder{metadata: metadata}
}

// Start implements Recorder.Start
func (f *FileRecorder) Start(dir, tag string, overwrite bool) error {
	if f.file != nil {
		return fmt.Errorf("recorder already started in %s", f.dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output folder %s: %w", dir, err)
	}

	manifestPath := filepath.Join(dir, tag+".manifest.json")
	if _, err := os.Stat(manifestPath); err == nil && !overwrite {
		return fmt.Errorf("%w: %s", ErrRunExists, manifestPath)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to inspect %s: %w", manifestPath, err)
	}

	f.dir = dir
	f.tag = tag
	f.runID = uuid.New().String()
	f.records = nil

	if err := saveJSON(manifestPath, manifest{
		RunID:     f.runID,
		Tag:       tag,
		StartedAt: time.Now().UTC(),
		Metadata:  f.metadata,
	}); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	file, err := os.Create(filepath.Join(dir, tag+".episodes.jsonl"))
	if err != nil {
		return fmt.Errorf("failed to create episode log: %w", err)
	}
	f.file = file
	f.writer = bufio.NewWriter(file)
	return nil
}

// Record implements Recorder.Record
func (f *FileRecorder) Record(ctx context.Context, record *EpisodeRecord) error {
	if f.file == nil {
		return ErrNotStarted
	}
	fillDefaults(record, f.runID)

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode episode %d: %w", record.Episode, err)
	}
	if _, err := f.writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write episode %d: %w", record.Episode, err)
	}
	f.records = append(f.records, record)
	return nil
}

// RunID implements Recorder.RunID
func (f *FileRecorder) RunID() string {
	return f.runID
}

// Close flushes the episode log and writes the run summary
func (f *FileRecorder) Close() error {
	if f.file == nil {
		return nil
	}

	flushErr := f.writer.Flush()
	closeErr := f.file.Close()
	f.file = nil
	f.writer = nil

	if flushErr != nil {
		return fmt.Errorf("failed to flush episode log: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close episode log: %w", closeErr)
	}
	return saveJSON(filepath.Join(f.dir, f.tag+".summary.json"), stats(f.runID, f.records))
}

func saveJSON(path string, data any) error {
	bs, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := file.Write(bs); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
