// Command compare simulates the configured weeks once per play caller and
// scores every prediction method against the same samples. Samples are
// cached on disk so trying another method does not mean simulating again.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Noofbiz/scoresim/config"
	"github.com/Noofbiz/scoresim/datasets"
	"github.com/Noofbiz/scoresim/evaluation"
	"github.com/Noofbiz/scoresim/logger"
	"github.com/Noofbiz/scoresim/monte"
	"github.com/Noofbiz/scoresim/playcaller"
	"github.com/Noofbiz/scoresim/report"
	"github.com/Noofbiz/scoresim/simple"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	playcallers := flag.String("playcallers", "", "comma separated play callers to compare (default: the configured one)")
	methods := flag.String("methods", "median,mean,quantile:0.25,quantile:0.75", "comma separated prediction methods")
	iterations := flag.Int("iterations", 0, "simulated games per matchup (overrides config if > 0)")
	workers := flag.Int("workers", -1, "games simulated concurrently, 0 = NumCPU (overrides config if >= 0)")
	cacheDir := flag.String("cache", "output/cache", "directory for cached samples, empty disables caching")
	force := flag.Bool("cache-force", false, "simulate even when a matching cache exists")
	verbose := flag.Bool("verbose", false, "log at debug level (overrides config)")
	format := flag.String("format", "", "log format, text or json (overrides config if set)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *format != "" {
		cfg.Log.Format = *format
	}
	if *iterations > 0 {
		cfg.Iterations = *iterations
	}
	if *workers >= 0 {
		cfg.Simulation.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid flags: %v", err)
	}

	log := logger.NewWithOutput(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	callers, err := parsePlaycallers(*playcallers, cfg.PlaycallerMethod)
	if err != nil {
		log.WithError(err).Fatal("bad -playcallers")
	}
	preds, err := parseMethods(*methods)
	if err != nil {
		log.WithError(err).Fatal("bad -methods")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps, err := compare(ctx, cfg, callers, preds, *cacheDir, *force, log)
	if err != nil {
		log.WithError(err).Fatal("comparison failed")
	}
	if err := report.WriteComparison(os.Stdout, comps); err != nil {
		log.WithError(err).Fatal("write comparison")
	}
}

func parsePlaycallers(list, fallback string) ([]playcaller.Method, error) {
	if strings.TrimSpace(list) == "" {
		list = fallback
	}
	var out []playcaller.Method
	for _, s := range strings.Split(list, ",") {
		m, err := playcaller.ParseMethod(s)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func parseMethods(list string) ([]evaluation.Method, error) {
	var out []evaluation.Method
	for _, s := range strings.Split(list, ",") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		m, err := evaluation.ParseMethod(s)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, errors.New("no prediction methods given")
	}
	return out, nil
}

func compare(ctx context.Context, cfg *config.Config, callers []playcaller.Method, preds []evaluation.Method,
	cacheDir string, force bool, log *logrus.Logger) ([]report.Comparison, error) {
	schedule, err := datasets.OpenSchedule(cfg.Schedule.Path, cfg.Schedule.URL, logger.Component(log, "schedule"))
	if err != nil {
		return nil, err
	}
	games, err := schedule.Games(ctx, cfg.PredictionYear, cfg.PredictionGameweekStart, cfg.PredictionGameweekEnd)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("no games scheduled for %d weeks %d-%d",
			cfg.PredictionYear, cfg.PredictionGameweekStart, cfg.PredictionGameweekEnd)
	}

	var comps []report.Comparison
	for _, caller := range callers {
		samples, err := samplesFor(ctx, cfg, caller, games, cacheDir, force, log)
		if err != nil {
			return nil, fmt.Errorf("play caller %s: %w", caller, err)
		}
		for _, m := range preds {
			rows, err := evaluation.BuildRows(games, samples, m)
			if err != nil {
				return nil, fmt.Errorf("play caller %s, method %s: %w", caller, m, err)
			}
			comps = append(comps, report.Comparison{
				Playcaller: string(caller),
				Method:     m.String(),
				Summary:    evaluation.Summarize(rows),
			})
		}
	}
	return comps, nil
}

// samplesFor returns the simulated samples for caller, from the cache when a
// matching one exists.
func samplesFor(ctx context.Context, cfg *config.Config, caller playcaller.Method, games []datasets.Game,
	cacheDir string, force bool, log *logrus.Logger) ([][]monte.SimulationResult, error) {
	var model string
	if caller == playcaller.MethodModel {
		fp, err := simple.Fingerprint(cfg.Model.Path)
		if err != nil {
			return nil, err
		}
		model = fp
	}
	key := evaluation.NewSampleKey(cfg.PredictionYear, cfg.PredictionGameweekStart, cfg.PredictionGameweekEnd,
		cfg.Iterations, string(caller), model, cfg.RandomSeed, games)
	entry := log.WithField("playcaller", caller)

	var path string
	if cacheDir != "" {
		path = filepath.Join(cacheDir, cacheFileName(cfg, caller, model))
	}
	if path != "" && !force {
		samples, err := evaluation.LoadSamples(path, key)
		switch {
		case err == nil:
			entry.WithField("path", path).Info("loaded cached samples")
			return samples, nil
		case errors.Is(err, os.ErrNotExist):
		default:
			entry.WithError(err).Warn("ignoring sample cache")
		}
	}

	factory, err := simple.NewFactory(caller, cfg.Model.Path)
	if err != nil {
		return nil, err
	}
	sim, err := monte.NewMonte(factory)
	if err != nil {
		return nil, err
	}
	sim.SetWorkers(cfg.Simulation.Workers)
	sim.SetBudget(cfg.Budget())
	sim.SetLogger(logger.Component(log, "monte"))

	// the prediction method is irrelevant here, BuildRows applies each one later
	evaluator, err := evaluation.NewEvaluator(sim, cfg.Iterations, evaluation.Median, cfg.RandomSeed)
	if err != nil {
		return nil, err
	}
	evaluator.SetLogger(logger.Component(log, "evaluation"))

	start := time.Now()
	samples, err := evaluator.Simulate(ctx, games)
	if err != nil {
		return nil, err
	}
	entry.WithFields(logrus.Fields{
		"games":   len(games),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("schedule simulated")

	if path != "" && !truncated(samples, cfg.Iterations) {
		if err := evaluation.SaveSamples(path, key, samples); err != nil {
			entry.WithError(err).Warn("could not write sample cache")
		} else {
			entry.WithField("path", path).Debug("sample cache written")
		}
	}
	return samples, nil
}

// cacheFileName names the sample cache of one configuration. Samples from
// different model files get different names so both can stay cached.
func cacheFileName(cfg *config.Config, caller playcaller.Method, model string) string {
	name := fmt.Sprintf("%d_w%02d-%02d_%s_n%d_s%d",
		cfg.PredictionYear, cfg.PredictionGameweekStart, cfg.PredictionGameweekEnd,
		caller, cfg.Iterations, cfg.RandomSeed)
	if len(model) >= 12 {
		name += "_" + model[:12]
	}
	return name + ".gob"
}

// truncated reports whether a budget cut any sample short. Such samples are
// not cached.
func truncated(samples [][]monte.SimulationResult, iterations int) bool {
	for _, s := range samples {
		if len(s) < iterations {
			return true
		}
	}
	return false
}
