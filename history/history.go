package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Entry records one completed audit run.
type Entry struct {
	Timestamp time.Time       `json:"timestamp"`
	Sequence  int64           `json:"sequence"`
	Revision  int64           `json:"snapshot_revision,omitempty"`
	Report    json.RawMessage `json:"report"`
}

// Journal appends audit reports to dated JSONL files so past runs can
// be diffed without a database.
type Journal struct {
	mu       sync.Mutex
	file     *os.File
	writer   *bufio.Writer
	sequence int64
	dir      string
}

// Open creates or opens a journal in the specified directory.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	// Timestamp in the filename handles rotation
	filename := fmt.Sprintf("vigil-%s.jsonl", time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, filename)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}

	j := &Journal{
		file:   file,
		writer: bufio.NewWriter(file),
		dir:    dir,
	}

	if err := j.loadSequence(); err != nil {
		_ = file.Close()
		return nil, err
	}

	return j, nil
}

// Close flushes and closes the journal.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.writer.Flush(); err != nil {
		return err
	}
	return j.file.Close()
}

// Append records a report against the snapshot revision it audited.
func (j *Journal) Append(revision int64, report any) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	j.sequence++
	entry := Entry{
		Timestamp: time.Now().UTC(),
		Sequence:  j.sequence,
		Revision:  revision,
		Report:    data,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	if _, err := j.writer.Write(line); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	if _, err := j.writer.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	// Flush immediately for durability
	if err := j.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return j.file.Sync()
}

// Entries reads every recorded entry across all journal files, in
// sequence order.
func (j *Journal) Entries() ([]Entry, error) {
	j.mu.Lock()
	if err := j.writer.Flush(); err != nil {
		j.mu.Unlock()
		return nil, err
	}
	j.mu.Unlock()

	files, err := j.listFiles()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, path := range files {
		fileEntries, err := readEntries(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fileEntries...)
	}

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].Sequence < entries[b].Sequence
	})

	return entries, nil
}

// Stats summarizes the journal's on-disk footprint.
type Stats struct {
	TotalFiles     int
	TotalSizeBytes int64
	LastSequence   int64
}

// GetStats returns current journal statistics.
func (j *Journal) GetStats() (Stats, error) {
	files, err := j.listFiles()
	if err != nil {
		return Stats{}, err
	}

	j.mu.Lock()
	stats := Stats{TotalFiles: len(files), LastSequence: j.sequence}
	j.mu.Unlock()

	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		stats.TotalSizeBytes += info.Size()
	}

	return stats, nil
}

// loadSequence restores the sequence counter from existing files so
// numbering continues across restarts.
func (j *Journal) loadSequence() error {
	files, err := j.listFiles()
	if err != nil {
		return err
	}

	for _, path := range files {
		entries, err := readEntries(path)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.Sequence > j.sequence {
				j.sequence = e.Sequence
			}
		}
	}

	return nil
}

func (j *Journal) listFiles() ([]string, error) {
	pattern := filepath.Join(j.dir, "vigil-*.jsonl")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func readEntries(path string) ([]Entry, error) {
	file, err := os.Open(path) // #nosec G304 -- journal files live in our own directory
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			// A torn final line from a crash is skipped, not fatal
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	return entries, nil
}
