// Package store writes finished rounds to parquet so sessions and self-play
// runs can be analysed offline. Files are only ever written, never read back
// by the game.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/tron/session"
)

const roundSchema = "round_row_v1"

// RoundRow is one finished round.
type RoundRow struct {
	SessionID string  `parquet:"session_id,dict" json:"session_id"`
	Round     int32   `parquet:"round" json:"round"`
	Ticks     int32   `parquet:"ticks" json:"ticks"`
	Width     int32   `parquet:"width" json:"width"`
	Height    int32   `parquet:"height" json:"height"`
	Players   int32   `parquet:"players" json:"players"`
	Levels    []int32 `parquet:"levels" json:"levels"`
	Crashed   []int32 `parquet:"crashed" json:"crashed"`
	Scores    []int32 `parquet:"scores" json:"scores"`
	EndedNs   int64   `parquet:"ended_ns" json:"ended_ns"`
}

// RowFromRound converts a session round into its parquet row.
func RowFromRound(e session.RoundEnd) RoundRow {
	return RoundRow{
		SessionID: e.SessionID,
		Round:     int32(e.Round),
		Ticks:     int32(e.Ticks),
		Width:     int32(e.Arena.Width),
		Height:    int32(e.Arena.Height),
		Players:   int32(len(e.Scores)),
		Levels:    toInt32(e.Levels),
		Crashed:   toInt32(e.Crashed),
		Scores:    toInt32(e.Scores),
		EndedNs:   e.EndedAt.UnixNano(),
	}
}

func toInt32(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}

// RoundWriter streams rounds into a parquet file under outDir/tmp and moves
// it into outDir on Finalize. It implements session.Recorder and is safe for
// use by several sessions at once.
type RoundWriter struct {
	mu sync.Mutex

	tmpPath string
	outPath string

	file   *os.File
	writer *parquet.GenericWriter[RoundRow]

	rows int
}

func NewRoundWriter(outDir string) (*RoundWriter, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		absOut = outDir
	}
	tmpDir := filepath.Join(absOut, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("rounds_%d.parquet", time.Now().UnixNano())
	tmpPath := filepath.Join(tmpDir, name)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tmp parquet: %w", err)
	}

	w := parquet.NewGenericWriter[RoundRow](
		f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
	)
	w.SetKeyValueMetadata("schema", roundSchema)

	return &RoundWriter{
		tmpPath: tmpPath,
		outPath: filepath.Join(absOut, name),
		file:    f,
		writer:  w,
	}, nil
}

func (r *RoundWriter) OutPath() string { return r.outPath }

// RecordRound appends one round.
func (r *RoundWriter) RecordRound(e session.RoundEnd) error {
	return r.WriteRows([]RoundRow{RowFromRound(e)})
}

func (r *RoundWriter) WriteRows(rows []RoundRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer == nil || r.file == nil {
		return fmt.Errorf("round writer is closed")
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := r.writer.Write(rows); err != nil {
		return fmt.Errorf("write rounds: %w", err)
	}
	r.rows += len(rows)
	return nil
}

// Finalize closes the parquet writer and moves the file from tmp/ to its
// final place. If nothing was written the tmp file is removed and the
// returned path is empty.
func (r *RoundWriter) Finalize() (outPath string, rows int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer == nil && r.file == nil {
		return "", 0, nil
	}

	rows = r.rows

	var closeErr error
	if r.writer != nil {
		closeErr = r.writer.Close()
		r.writer = nil
	}
	var fileErr error
	if r.file != nil {
		_ = r.file.Sync()
		fileErr = r.file.Close()
		r.file = nil
	}
	if closeErr != nil {
		return "", 0, fmt.Errorf("close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		return "", 0, fmt.Errorf("close parquet file: %w", fileErr)
	}

	if rows == 0 {
		_ = os.Remove(r.tmpPath)
		return "", 0, nil
	}
	if err := os.Rename(r.tmpPath, r.outPath); err != nil {
		return "", 0, fmt.Errorf("rename parquet: %w", err)
	}
	return r.outPath, rows, nil
}

// RoundBuffer keeps rounds in memory for a single WriteRoundsParquet call at
// the end of a run. It implements session.Recorder and is safe for use by
// several sessions at once.
type RoundBuffer struct {
	mu   sync.Mutex
	rows []RoundRow
}

func (b *RoundBuffer) RecordRound(e session.RoundEnd) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows = append(b.rows, RowFromRound(e))
	return nil
}

// Rows returns a copy of everything recorded so far.
func (b *RoundBuffer) Rows() []RoundRow {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RoundRow(nil), b.rows...)
}

// WriteRoundsParquet writes rows to a fresh file in one go using a tmp file
// and rename, so readers never see a partial file.
func WriteRoundsParquet(outDir string, prefix string, rows []RoundRow) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := fmt.Sprintf("%s_%d.parquet", prefix, time.Now().UnixNano())
	finalPath := filepath.Join(outDir, name)
	tmpPath := finalPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", roundSchema),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}

	return finalPath, nil
}
