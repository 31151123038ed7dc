package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/brensch/tron/game"
	"github.com/brensch/tron/session"
)

func roundEnd(round int, crashed ...int) session.RoundEnd {
	return session.RoundEnd{
		SessionID: "abc",
		Arena:     game.Arena{Width: 20, Height: 10},
		Levels:    []int{-1, 6},
		Round:     round,
		Ticks:     12 + round,
		Crashed:   crashed,
		Scores:    []int{round, 0},
		EndedAt:   time.Unix(100, int64(round)),
	}
}

func TestRowFromRound(t *testing.T) {
	row := RowFromRound(roundEnd(3, 1))
	if row.SessionID != "abc" || row.Round != 3 || row.Ticks != 15 {
		t.Fatalf("unexpected row header: %+v", row)
	}
	if row.Width != 20 || row.Height != 10 || row.Players != 2 {
		t.Fatalf("unexpected arena fields: %+v", row)
	}
	if len(row.Crashed) != 1 || row.Crashed[0] != 1 {
		t.Fatalf("crashed=%v want=[1]", row.Crashed)
	}
	if row.Levels[0] != -1 || row.Levels[1] != 6 {
		t.Fatalf("levels=%v want=[-1 6]", row.Levels)
	}
	if row.EndedNs != time.Unix(100, 3).UnixNano() {
		t.Fatalf("ended_ns=%d", row.EndedNs)
	}
}

func TestRoundWriterFinalize(t *testing.T) {
	dir := t.TempDir()
	w, err := NewRoundWriter(dir)
	if err != nil {
		t.Fatalf("NewRoundWriter: %v", err)
	}

	for r := 0; r < 3; r++ {
		if err := w.RecordRound(roundEnd(r, r%2)); err != nil {
			t.Fatalf("RecordRound(%d): %v", r, err)
		}
	}
	path, n, err := w.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if n != 3 || path != w.OutPath() {
		t.Fatalf("finalize returned (%q, %d)", path, n)
	}
	if abs, _ := filepath.Abs(dir); filepath.Dir(path) != abs {
		t.Fatalf("file landed in %s, want %s", filepath.Dir(path), abs)
	}

	rows, err := parquet.ReadFile[RoundRow](path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("read %d rows want 3", len(rows))
	}
	for i, row := range rows {
		if int(row.Round) != i {
			t.Fatalf("row %d round=%d", i, row.Round)
		}
		if len(row.Crashed) != 1 || int(row.Crashed[0]) != i%2 {
			t.Fatalf("row %d crashed=%v", i, row.Crashed)
		}
	}

	if err := w.RecordRound(roundEnd(9)); err == nil {
		t.Fatalf("expected error writing after finalize")
	}
	if p, n, err := w.Finalize(); err != nil || p != "" || n != 0 {
		t.Fatalf("second finalize = (%q, %d, %v)", p, n, err)
	}
}

func TestRoundWriterEmptyRemovesTmp(t *testing.T) {
	dir := t.TempDir()
	w, err := NewRoundWriter(dir)
	if err != nil {
		t.Fatalf("NewRoundWriter: %v", err)
	}
	path, n, err := w.Finalize()
	if err != nil || path != "" || n != 0 {
		t.Fatalf("finalize = (%q, %d, %v)", path, n, err)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "tmp"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("tmp dir still has %d entries", len(entries))
	}
}

func TestRoundWriterConcurrent(t *testing.T) {
	w, err := NewRoundWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewRoundWriter: %v", err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < 25; r++ {
				if err := w.RecordRound(roundEnd(r, 0)); err != nil {
					t.Errorf("RecordRound: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	path, n, err := w.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if n != 100 {
		t.Fatalf("rows=%d want=100", n)
	}
	rows, err := parquet.ReadFile[RoundRow](path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(rows) != 100 {
		t.Fatalf("read %d rows want 100", len(rows))
	}
}

func TestWriteRoundsParquet(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	rows := []RoundRow{RowFromRound(roundEnd(0, 0)), RowFromRound(roundEnd(1, 1))}

	path, err := WriteRoundsParquet(dir, "selfplay", rows)
	if err != nil {
		t.Fatalf("WriteRoundsParquet: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("tmp file left behind: %v", err)
	}

	got, err := parquet.ReadFile[RoundRow](path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 2 || got[1].Scores[0] != 1 {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestRoundBufferWriteOnce(t *testing.T) {
	var buf RoundBuffer
	var wg sync.WaitGroup
	for g := 0; g < 3; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < 10; r++ {
				if err := buf.RecordRound(roundEnd(r, 1)); err != nil {
					t.Errorf("RecordRound: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	rows := buf.Rows()
	if len(rows) != 30 {
		t.Fatalf("buffered %d rows want 30", len(rows))
	}
	rows[0].SessionID = "changed"
	if buf.Rows()[0].SessionID != "abc" {
		t.Fatalf("Rows returned the live slice")
	}

	dir := t.TempDir()
	path, err := WriteRoundsParquet(dir, "selfplay", buf.Rows())
	if err != nil {
		t.Fatalf("WriteRoundsParquet: %v", err)
	}
	got, err := parquet.ReadFile[RoundRow](path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 30 {
		t.Fatalf("read %d rows want 30", len(got))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir has %d entries want 1 (no tmp dir for one-shot writes)", len(entries))
	}
}
