package main

// Example command that opens a schedule with the same discovery rules the
// predict command uses and prints the games of a season range.
//
// Usage:
//   go run ./datasets/example -season 2023 -weeks 1-2
//   go run ./datasets/example -url https://raw.githubusercontent.com/nflverse/nfldata/master/data/games.csv
//
// Without -path or -url the example looks for games.csv in the usual
// locations (see datasets.DefaultSchedulePatterns).

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Noofbiz/scoresim/datasets"
	"github.com/Noofbiz/scoresim/logger"
)

func main() {
	path := flag.String("path", "", "schedule CSV file, glob or directory")
	url := flag.String("url", "", "download the schedule from this URL instead")
	season := flag.Int("season", 2023, "season to list")
	weeks := flag.String("weeks", "1-1", "week range, e.g. 1-4")
	flag.Parse()

	start, end, err := parseWeeks(*weeks)
	if err != nil {
		log.Fatalf("bad -weeks: %v", err)
	}

	l := logger.NewWithOutput("info", "text", os.Stderr)
	schedule, err := datasets.OpenSchedule(*path, *url, logger.Component(l, "schedule"))
	if err != nil {
		log.Fatalf("failed to open schedule: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	games, err := schedule.Games(ctx, *season, start, end)
	if err != nil {
		log.Fatalf("failed to load games: %v", err)
	}
	fmt.Printf("%d games in %d weeks %d-%d\n", len(games), *season, start, end)

	played := 0
	for _, g := range games {
		score := "not played"
		if g.Played {
			played++
			score = fmt.Sprintf("%d-%d", g.AwayScore, g.HomeScore)
		}
		fmt.Printf("  week %2d  %-18s %3s @ %-3s  %s\n", g.Week, g.GameID, g.AwayTeam, g.HomeTeam, score)
	}
	fmt.Printf("%d played, %d to come\n", played, len(games)-played)
}

func parseWeeks(s string) (int, int, error) {
	lo, hi, found := strings.Cut(s, "-")
	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, err
	}
	if !found {
		return start, start, nil
	}
	end, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
