package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/tipping/internal/domain/model"
	"github.com/okian/tipping/pkg/logger"
)

func init() {
	_ = logger.Init()
}

const marginsCSV = `year,abbr,relative_margin,national_margin,electoral_votes,third_party_share,D_votes,R_votes,T_votes,total_votes
2000,NATIONAL,0,0.005,538,0.03,500,495,30,1025
2000,OH,-0.04,0.005,21,0.02,480,510,20,1010
2000,FL,bad,0.005,25,0.01,490,490,10,990
2000,OH,0.9,0.005,21,0,1,1,1,3
0,XX,0,0,0,0,0,0,0,0
1968,GA,0.05,-0.007,12,0.4,300,250,450,1000
`

const electoralCSV = `year,abbr,electoral_votes
2000,FL,27
`

const flipsCSV = `year,mode,abbr,ev,votes_to_flip,pct_of_state_votes
2000,classic,FL,25,1,0.0
2000,classic,OH,21,16,1.584
2000,sideways,OH,21,16,1.584
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestLoadSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultMarginsFile, marginsCSV)
	writeFile(t, dir, DefaultElectoralFile, electoralCSV)
	writeFile(t, dir, DefaultFlipsFile, flipsCSV)

	s := NewMemoryStore(WithDataDir(dir))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	snap := s.Snapshot()

	if got := snap.Years(); len(got) != 2 || got[0] != 1968 || got[1] != 2000 {
		t.Fatalf("unexpected years %v", got)
	}
	recs := snap.Records(2000)
	if len(recs) != 3 {
		t.Fatalf("expected 3 records for 2000, got %d", len(recs))
	}
	if recs[0].Unit != "FL" || recs[1].Unit != "NATIONAL" || recs[2].Unit != "OH" {
		t.Errorf("records not sorted by unit: %v", []string{recs[0].Unit, recs[1].Unit, recs[2].Unit})
	}
	if fl, _ := snap.Record(2000, "FL"); fl.RelativeMargin != 0 {
		t.Errorf("unparseable cell should become 0, got %v", fl.RelativeMargin)
	}
	if oh, _ := snap.Record(2000, "OH"); oh.RelativeMargin != -0.04 {
		t.Errorf("first row for a unit should win, got %v", oh.RelativeMargin)
	}
	if ev, ok := snap.ElectoralVotes(2000, "FL"); !ok || ev != 27 {
		t.Errorf("electoral table should win, got %d %v", ev, ok)
	}
	if ev, _ := snap.ElectoralVotes(2000, "OH"); ev != 21 {
		t.Errorf("record EV fallback, got %d", ev)
	}
	sc, ok := snap.Scenario(2000, model.ModeClassic)
	if !ok || len(sc.Units) != 2 || sc.VotesToFlip("OH") != 16 {
		t.Fatalf("unexpected classic scenario %+v", sc)
	}
	if _, ok := snap.Scenario(2000, model.ModeNoMajority); ok {
		t.Error("no_majority should be absent")
	}
	st := snap.Stats()
	if st.Records != 4 || st.Scenarios != 1 || st.Duplicates != 1 || st.DerivedScenarios {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestLoadOptionalFilesMissing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultMarginsFile, marginsCSV)

	s := NewMemoryStore(WithDataDir(dir))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	snap := s.Snapshot()
	if len(snap.Electoral(2000)) != 0 {
		t.Error("electoral table should be empty")
	}
	if len(snap.Scenarios(2000)) != 0 {
		t.Error("scenarios should be empty without derivation")
	}
}

func TestLoadDerivesFlips(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultMarginsFile, marginsCSV)

	s := NewMemoryStore(WithDataDir(dir), WithDerivedFlips(true))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	snap := s.Snapshot()
	if !snap.Stats().DerivedScenarios {
		t.Fatal("expected derived scenarios")
	}
	if len(snap.Scenarios(2000)) == 0 {
		t.Error("expected at least one scenario for 2000")
	}
}

func TestLoadMissingMarginsKeepsSnapshot(t *testing.T) {
	dir := t.TempDir()
	margins := writeFile(t, dir, DefaultMarginsFile, marginsCSV)

	var loads int
	s := NewMemoryStore(WithDataDir(dir), WithOnLoad(func(*Snapshot) { loads++ }))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	before := s.Snapshot()

	if err := os.Remove(margins); err != nil {
		t.Fatal(err)
	}
	err := s.Load(context.Background())
	if !errors.Is(err, ErrMarginsMissing) {
		t.Fatalf("expected ErrMarginsMissing, got %v", err)
	}
	if s.Snapshot() != before {
		t.Error("failed load must not replace the snapshot")
	}
	if last, _ := s.LastError(); !errors.Is(last, ErrMarginsMissing) {
		t.Errorf("LastError = %v", last)
	}
	if loads != 1 {
		t.Errorf("onLoad ran %d times, want 1", loads)
	}
}

func TestEmptyStore(t *testing.T) {
	s := NewMemoryStore()
	snap := s.Snapshot()
	if snap == nil {
		t.Fatal("snapshot must never be nil")
	}
	if len(snap.Years()) != 0 || snap.Records(2000) != nil || snap.HasYear(2000) {
		t.Error("empty store should have no data")
	}
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	margins := writeFile(t, dir, DefaultMarginsFile, marginsCSV)

	s := NewMemoryStore(WithFiles(Files{Margins: margins}), WithDebounce(40*time.Millisecond))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	w, err := NewWatcher(s)
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()
	if err := w.Start(ctx); !errors.Is(err, ErrWatcherRunning) {
		t.Errorf("second Start = %v", err)
	}

	writeFile(t, dir, DefaultMarginsFile, marginsCSV+"2004,OH,0.01,-0.02,20,0,1,1,0,2\n")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s.Snapshot().HasYear(2004) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("snapshot was not reloaded (reloads=%d)", w.Reloads())
}
