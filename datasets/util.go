package datasets

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultSchedulePatterns are searched when no schedule path is configured.
var DefaultSchedulePatterns = []string{
	"games.csv",
	"data/games.csv",
	"assets/games.csv",
	"assets/*.csv",
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	return strconv.Atoi(s)
}

// parseScore reads a score cell. Unplayed games leave it empty or "NA".
func parseScore(s string) (score int, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "na") {
		return 0, false, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// Auto-discovery helpers

func autoFindCSV(patterns []string) (string, error) {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err == nil && len(matches) > 0 {
			return pattern, nil
		}
	}
	return "", fmt.Errorf("no CSV files found in common locations")
}

// FindCSVInAssets finds CSV files in a specified directory
func FindCSVInAssets(dir string) (string, error) {
	pattern := filepath.Join(dir, "*.csv")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no CSV files found in %s", dir)
	}
	return matches[0], nil
}

// ResolveSchedulePattern turns a configured schedule path into a glob
// pattern. An empty path searches DefaultSchedulePatterns and a directory
// resolves to its first CSV file.
func ResolveSchedulePattern(path string) (string, error) {
	if path == "" {
		p, err := autoFindCSV(DefaultSchedulePatterns)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrDataUnavailable, err)
		}
		return p, nil
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		p, err := FindCSVInAssets(path)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrDataUnavailable, err)
		}
		return p, nil
	}
	return path, nil
}

// OpenSchedule returns a ScheduleClient when url is set, otherwise a
// ScheduleDataset read from path.
func OpenSchedule(path, url string, log *logrus.Entry) (Schedule, error) {
	if url != "" {
		client := NewScheduleClient(url)
		client.SetLogger(log)
		return client, nil
	}
	pattern, err := ResolveSchedulePattern(path)
	if err != nil {
		return nil, err
	}
	ds, err := NewScheduleDataset(pattern)
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.WithFields(logrus.Fields{
			"pattern": pattern,
			"games":   ds.Len(),
		}).Debug("schedule dataset opened")
	}
	return ds, nil
}
