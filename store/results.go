// Package store persists perft results as parquet files and checks new runs
// against earlier ones.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/brensch/snekperft/game"
	"github.com/brensch/snekperft/perft"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

const schemaVersion = "perft_result_v1"

// ErrMismatch is wrapped by Check when a count differs from the reference.
var ErrMismatch = errors.New("perft count mismatch")

// Result is one perft run: a fixture searched to one depth.
//
// Split holds the divide counts indexed by game.Direction (up, down, left,
// right). It is empty for depth 0 and terminal positions.
type Result struct {
	Fixture       string  `parquet:"fixture,dict"`
	Depth         int32   `parquet:"depth"`
	Nodes         int64   `parquet:"nodes"`
	Viewpoint     string  `parquet:"viewpoint,dict"`
	Snakes        int32   `parquet:"snakes"`
	Split         []int64 `parquet:"split"`
	ElapsedNS     int64   `parquet:"elapsed_ns"`
	Workers       int32   `parquet:"workers"`
	CreatedUnixMS int64   `parquet:"created_unix_ms"`
}

// NewResult builds a row for req searched to depth. splits may be nil when
// the run was not divided.
func NewResult(fixture string, req *game.Request, depth uint, nodes uint64, splits []perft.Split, elapsed time.Duration, workers int) Result {
	r := Result{
		Fixture:       fixture,
		Depth:         int32(depth),
		Nodes:         int64(nodes),
		Viewpoint:     req.YouID,
		Snakes:        int32(len(req.Board.Snakes)),
		ElapsedNS:     elapsed.Nanoseconds(),
		Workers:       int32(workers),
		CreatedUnixMS: time.Now().UnixMilli(),
	}
	if len(splits) > 0 {
		r.Split = make([]int64, len(game.Directions))
		for _, s := range splits {
			r.Split[s.Move.Direction] = int64(s.Nodes)
		}
	}
	return r
}

// NodesPerSecond is zero for runs too fast to time.
func (r Result) NodesPerSecond() float64 {
	if r.ElapsedNS <= 0 {
		return 0
	}
	return float64(r.Nodes) / time.Duration(r.ElapsedNS).Seconds()
}

// WriteResults writes rows to a new file in outDir. The file is written into
// outDir/tmp and renamed into place so readers never see a partial file.
func WriteResults(outDir string, rows []Result) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("perft_%d.parquet", time.Now().UnixNano())
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schemaVersion),
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

// ReadResults reads every row of a results file.
func ReadResults(path string) ([]Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	if schema, ok := pf.Lookup("schema"); ok && schema != schemaVersion {
		return nil, fmt.Errorf("%s has schema %q, want %q", path, schema, schemaVersion)
	}

	reader := parquet.NewGenericReader[Result](pf)
	defer reader.Close()

	rows := make([]Result, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows[:n], nil
}

type referenceKey struct {
	fixture string
	depth   int32
}

// Reference holds known-good results keyed by fixture and depth.
type Reference struct {
	rows map[referenceKey]Result
}

// NewReference indexes rows. A later row for the same fixture and depth
// replaces an earlier one.
func NewReference(rows []Result) *Reference {
	ref := &Reference{rows: make(map[referenceKey]Result, len(rows))}
	for _, r := range rows {
		ref.rows[referenceKey{r.Fixture, r.Depth}] = r
	}
	return ref
}

// LoadReference reads a results file written by WriteResults.
func LoadReference(path string) (*Reference, error) {
	rows, err := ReadResults(path)
	if err != nil {
		return nil, err
	}
	return NewReference(rows), nil
}

func (ref *Reference) Len() int {
	return len(ref.rows)
}

// Check compares r with the reference for its fixture and depth. checked is
// false when no reference exists. Split counts are compared only when both
// sides have them.
func (ref *Reference) Check(r Result) (checked bool, err error) {
	want, ok := ref.rows[referenceKey{r.Fixture, r.Depth}]
	if !ok {
		return false, nil
	}
	if want.Nodes != r.Nodes {
		return true, fmt.Errorf("%s depth %d: got %d nodes, want %d: %w", r.Fixture, r.Depth, r.Nodes, want.Nodes, ErrMismatch)
	}
	if len(want.Split) > 0 && len(r.Split) > 0 && !slices.Equal(want.Split, r.Split) {
		return true, fmt.Errorf("%s depth %d: got split %v, want %v: %w", r.Fixture, r.Depth, r.Split, want.Split, ErrMismatch)
	}
	return true, nil
}
