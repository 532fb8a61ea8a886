package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Noofbiz/scoresim/config"
	"github.com/Noofbiz/scoresim/datasets"
	"github.com/Noofbiz/scoresim/evaluation"
	"github.com/Noofbiz/scoresim/logger"
	"github.com/Noofbiz/scoresim/monte"
	"github.com/Noofbiz/scoresim/report"
	"github.com/Noofbiz/scoresim/simple"
	"github.com/Noofbiz/scoresim/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type options struct {
	noStore   bool
	outCSV    string
	listRuns  bool
	showRun   string
	printOnly bool
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	verbose := flag.Bool("verbose", false, "log at debug level (overrides config)")
	format := flag.String("format", "", "log format, text or json (overrides config if set)")
	iterations := flag.Int("iterations", 0, "simulated games per matchup (overrides config if > 0)")
	workers := flag.Int("workers", -1, "games simulated concurrently, 0 = NumCPU (overrides config if >= 0)")
	noStore := flag.Bool("no-store", false, "do not persist the run to the database")
	outCSV := flag.String("out-csv", "", "if set, also write the prediction table as CSV to this path")
	listRuns := flag.Bool("list-runs", false, "list stored runs and exit")
	showRun := flag.String("show-run", "", "print the predictions of a stored run and exit")
	printConfig := flag.Bool("print-effective-config", false, "print the effective (YAML+env+CLI merged) configuration and exit")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		noStore:   *noStore,
		outCSV:    *outCSV,
		listRuns:  *listRuns,
		showRun:   *showRun,
		printOnly: *printConfig,
	}
	if err := run(ctx, cfg, opts, log); err != nil {
		log.WithError(err).Fatal("prediction failed")
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, log *logrus.Logger) error {
	switch {
	case opts.printOnly:
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	case opts.listRuns:
		return listRuns(ctx, cfg)
	case opts.showRun != "":
		return showRun(ctx, cfg, opts.showRun)
	}

	schedule, err := datasets.OpenSchedule(cfg.Schedule.Path, cfg.Schedule.URL, logger.Component(log, "schedule"))
	if err != nil {
		return err
	}
	games, err := schedule.Games(ctx, cfg.PredictionYear, cfg.PredictionGameweekStart, cfg.PredictionGameweekEnd)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}
	log.WithFields(logrus.Fields{
		"season": cfg.PredictionYear,
		"weeks":  fmt.Sprintf("%d-%d", cfg.PredictionGameweekStart, cfg.PredictionGameweekEnd),
		"games":  len(games),
	}).Info("schedule loaded")
	if len(games) == 0 {
		log.Warn("no games scheduled in the requested weeks")
		return nil
	}

	playcallerMethod, err := cfg.Playcaller()
	if err != nil {
		return err
	}
	factory, err := simple.NewFactory(playcallerMethod, cfg.Model.Path)
	if err != nil {
		return err
	}
	log.WithField("playcaller", playcallerMethod).Debug("play caller ready")
	sim, err := monte.NewMonte(factory)
	if err != nil {
		return err
	}
	sim.SetWorkers(cfg.Simulation.Workers)
	sim.SetBudget(cfg.Budget())
	sim.SetLogger(logger.Component(log, "monte"))

	method, err := cfg.Prediction()
	if err != nil {
		return err
	}
	evaluator, err := evaluation.NewEvaluator(sim, cfg.Iterations, method, cfg.RandomSeed)
	if err != nil {
		return err
	}
	evaluator.SetLogger(logger.Component(log, "evaluation"))

	rows, err := evaluator.Evaluate(ctx, games)
	if err != nil {
		return err
	}

	if err := report.WriteTable(os.Stdout, rows); err != nil {
		return err
	}
	if err := report.WriteSummary(os.Stdout, evaluation.Summarize(rows)); err != nil {
		return err
	}

	if opts.outCSV != "" {
		if err := writeCSV(opts.outCSV, rows); err != nil {
			return err
		}
		log.WithField("path", opts.outCSV).Info("wrote prediction CSV")
	}

	if opts.noStore {
		return nil
	}
	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	r := storage.NewRun(cfg.PredictionYear, cfg.PredictionGameweekStart, cfg.PredictionGameweekEnd,
		cfg.Iterations, cfg.PlaycallerMethod, method.String(), cfg.RandomSeed)
	if err := store.SaveRun(ctx, r, rows); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"run_id": r.ID,
		"dsn":    cfg.Storage.DSN,
	}).Info("run stored")
	return nil
}

func writeCSV(path string, rows []evaluation.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := report.WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func listRuns(ctx context.Context, cfg *config.Config) error {
	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}
	return report.WriteRuns(os.Stdout, runs)
}

func showRun(ctx context.Context, cfg *config.Config, id string) error {
	runID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("run id %q: %w", id, err)
	}
	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := store.Rows(ctx, runID)
	if errors.Is(err, storage.ErrRunNotFound) {
		return fmt.Errorf("no run %s in %s", runID, cfg.Storage.DSN)
	}
	if err != nil {
		return err
	}
	if err := report.WriteTable(os.Stdout, rows); err != nil {
		return err
	}
	return report.WriteSummary(os.Stdout, evaluation.Summarize(rows))
}
