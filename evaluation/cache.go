package evaluation

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/Noofbiz/scoresim/datasets"
	"github.com/Noofbiz/scoresim/monte"
)

// cacheVersion is incremented when the on-disk sample format changes.
const cacheVersion = 2

// ErrStaleCache is returned when a cached sample set was produced by a
// different configuration than the one asking for it.
var ErrStaleCache = errors.New("sample cache does not match configuration")

// SampleKey identifies the configuration a sample set was simulated with.
type SampleKey struct {
	Season     int
	WeekStart  int
	WeekEnd    int
	Iterations int
	Playcaller string
	// Model identifies the fitted model behind a model-backed play caller,
	// empty otherwise.
	Model   string
	Seed    uint64
	GameIDs []string
}

// NewSampleKey builds the key for simulating games. model is the identity of
// the model file used by the play caller, or empty when there is none.
func NewSampleKey(season, weekStart, weekEnd, iterations int, playcaller, model string, seed uint64, games []datasets.Game) SampleKey {
	ids := make([]string, len(games))
	for i, g := range games {
		ids[i] = g.GameID
	}
	return SampleKey{
		Season:     season,
		WeekStart:  weekStart,
		WeekEnd:    weekEnd,
		Iterations: iterations,
		Playcaller: playcaller,
		Model:      model,
		Seed:       seed,
		GameIDs:    ids,
	}
}

func (k SampleKey) equal(o SampleKey) bool {
	return k.Season == o.Season &&
		k.WeekStart == o.WeekStart &&
		k.WeekEnd == o.WeekEnd &&
		k.Iterations == o.Iterations &&
		k.Playcaller == o.Playcaller &&
		k.Model == o.Model &&
		k.Seed == o.Seed &&
		slices.Equal(k.GameIDs, o.GameIDs)
}

// cacheFormat is the on-disk representation of simulated samples.
type cacheFormat struct {
	Version   int
	Key       SampleKey
	CreatedAt int64
	Samples   [][]monte.SimulationResult
}

// SaveSamples writes samples to path with encoding/gob. The write is atomic:
// a temp file in the same directory is renamed over path.
func SaveSamples(path string, key SampleKey, samples [][]monte.SimulationResult) error {
	if path == "" {
		return fmt.Errorf("empty cache path")
	}
	if len(samples) != len(key.GameIDs) {
		return fmt.Errorf("%d samples for %d games", len(samples), len(key.GameIDs))
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		_ = os.Remove(tmpName)
	}()

	pc := cacheFormat{
		Version:   cacheVersion,
		Key:       key,
		CreatedAt: time.Now().Unix(),
		Samples:   samples,
	}
	if err := gob.NewEncoder(tmpFile).Encode(&pc); err != nil {
		return fmt.Errorf("encode cache to temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp cache to target: %w", err)
	}
	return nil
}

// LoadSamples reads samples written by SaveSamples for key. A cache built
// for another configuration or format version fails with ErrStaleCache.
func LoadSamples(path string, key SampleKey) ([][]monte.SimulationResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pc cacheFormat
	if err := gob.NewDecoder(f).Decode(&pc); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", path, err)
	}
	if pc.Version != cacheVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrStaleCache, pc.Version, cacheVersion)
	}
	if !pc.Key.equal(key) {
		return nil, fmt.Errorf("%w: %s", ErrStaleCache, path)
	}
	return pc.Samples, nil
}
