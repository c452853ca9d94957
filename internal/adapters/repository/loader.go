package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/okian/tipping/internal/domain/flips"
	"github.com/okian/tipping/internal/domain/model"
)

// Default file names inside the data directory.
const (
	DefaultMarginsFile   = "presidential_margins.csv"
	DefaultElectoralFile = "electoral_college.csv"
	DefaultFlipsFile     = "flip_details.csv"
)

// Files names the dataset inputs. Electoral and Flips are optional.
type Files struct {
	Margins   string
	Electoral string
	Flips     string
}

// Paths returns the non-empty file paths.
func (f Files) Paths() []string {
	var out []string
	for _, p := range []string{f.Margins, f.Electoral, f.Flips} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadSnapshot reads all files concurrently and builds a snapshot. A missing
// margins file is an error; missing optional files give empty tables. When
// derive is set and no flip rows were read, scenarios are computed from the
// margins.
func LoadSnapshot(ctx context.Context, files Files, derive bool) (*Snapshot, error) {
	var (
		records   []model.Record
		electoral map[int]map[string]int
		scenarios []*model.FlipScenario
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := readCSV(ctx, files.Margins)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrMarginsMissing, files.Margins)
			}
			return err
		}
		records = parseMargins(rows)
		return nil
	})
	g.Go(func() error {
		rows, err := readOptionalCSV(ctx, files.Electoral)
		if err != nil {
			return err
		}
		electoral = parseElectoral(rows)
		return nil
	})
	g.Go(func() error {
		rows, err := readOptionalCSV(ctx, files.Flips)
		if err != nil {
			return err
		}
		scenarios = parseFlips(rows)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	derived := false
	if derive && len(scenarios) == 0 {
		scenarios = deriveScenarios(records, electoral)
		derived = len(scenarios) > 0
	}
	snap := NewSnapshot(records, electoral, scenarios)
	snap.derived = derived
	return snap, nil
}

func deriveScenarios(records []model.Record, electoral map[int]map[string]int) []*model.FlipScenario {
	byYear := make(map[int][]model.Record)
	for _, r := range records {
		if r.Year != 0 {
			byYear[r.Year] = append(byYear[r.Year], r)
		}
	}
	var out []*model.FlipScenario
	for y, recs := range byYear {
		out = append(out, flips.Analyze(y, recs, electoral[y]).Scenarios()...)
	}
	return out
}

// table is a parsed CSV with a case-insensitive header index.
type table struct {
	index map[string]int
	rows  [][]string
}

func (t *table) get(row []string, names ...string) string {
	for _, n := range names {
		if i, ok := t.index[strings.ToLower(n)]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

// num coerces a cell to a finite float, treating failures as 0.
func (t *table) num(row []string, names ...string) float64 {
	v, err := strconv.ParseFloat(t.get(row, names...), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (t *table) integer(row []string, names ...string) int {
	return int(t.num(row, names...))
}

func readOptionalCSV(ctx context.Context, path string) (*table, error) {
	if path == "" {
		return &table{index: map[string]int{}}, nil
	}
	t, err := readCSV(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		return &table{index: map[string]int{}}, nil
	}
	return t, err
}

func readCSV(ctx context.Context, path string) (*table, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied dataset path
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &table{index: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s header: %w", ErrMalformedCSV, path, err)
	}
	t := &table{index: make(map[string]int, len(header))}
	for i, h := range header {
		t.index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedCSV, path, err)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func parseMargins(t *table) []model.Record {
	out := make([]model.Record, 0, len(t.rows))
	for _, row := range t.rows {
		r := model.Record{
			Year:            t.integer(row, "year"),
			Unit:            strings.ToUpper(t.get(row, "abbr", "unit")),
			RelativeMargin:  t.num(row, "relative_margin"),
			NationalMargin:  t.num(row, "national_margin"),
			ElectoralVotes:  t.integer(row, "electoral_votes", "ev"),
			ThirdPartyShare: t.num(row, "third_party_share"),
			DemVotes:        math.Max(0, t.num(row, "d_votes")),
			RepVotes:        math.Max(0, t.num(row, "r_votes")),
			ThirdVotes:      math.Max(0, t.num(row, "t_votes")),
			TotalVotes:      math.Max(0, t.num(row, "total_votes")),
		}
		if r.Year == 0 || r.Unit == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

func parseElectoral(t *table) map[int]map[string]int {
	out := make(map[int]map[string]int)
	for _, row := range t.rows {
		year := t.integer(row, "year")
		unit := strings.ToUpper(t.get(row, "abbr", "unit"))
		if year == 0 || unit == "" {
			continue
		}
		if out[year] == nil {
			out[year] = make(map[string]int)
		}
		out[year][unit] = t.integer(row, "electoral_votes", "ev")
	}
	return out
}

func parseFlips(t *table) []*model.FlipScenario {
	type key struct {
		year int
		mode model.Mode
	}
	byKey := make(map[key]*model.FlipScenario)
	var order []key
	for _, row := range t.rows {
		year := t.integer(row, "year")
		mode, err := model.ParseMode(t.get(row, "mode"))
		unit := strings.ToUpper(t.get(row, "abbr", "unit"))
		if year == 0 || err != nil || unit == "" {
			continue
		}
		k := key{year, mode}
		sc, ok := byKey[k]
		if !ok {
			sc = &model.FlipScenario{Year: year, Mode: mode}
			byKey[k] = sc
			order = append(order, k)
		}
		sc.Units = append(sc.Units, model.FlipUnit{
			Unit:           unit,
			VotesToFlip:    int64(t.num(row, "votes_to_flip")),
			ElectoralVotes: t.integer(row, "ev", "electoral_votes"),
			PctOfUnitVotes: t.num(row, "pct_of_state_votes"),
		})
	}
	out := make([]*model.FlipScenario, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	return out
}
