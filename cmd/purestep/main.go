// Package main provides the purestep CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/backend/cpu"
	"github.com/born-ml/purestep/internal/config"
	"github.com/born-ml/purestep/internal/serialization"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "train":
		err = train(os.Args[2:])
	case "inspect":
		err = inspect(os.Args[2:])
	case "version":
		fmt.Printf("purestep %s (checkpoint format v%d)\n", version, serialization.FormatVersion)
		fmt.Println(cpu.DetectFeatures())
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("command failed", "command", os.Args[1], "err", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("purestep - stateless training loops for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  train      Train a model from a YAML config")
	fmt.Println("  inspect    Print the header of a checkpoint")
	fmt.Println("  version    Show version and CPU features")
}

func train(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (defaults are used when empty)")
	seed := fs.Uint64("seed", 0, "PRNG seed")
	epochs := fs.Int("epochs", 0, "Number of epochs")
	batchSize := fs.Int("batch-size", 0, "Batch size")
	logEvery := fs.Int("log-every", 0, "Log every N steps")
	lr := fs.Float64("lr", 0, "Learning rate")
	optimizer := fs.String("optimizer", "", "Optimizer (sgd or adam)")
	dataPath := fs.String("data", "", "CSV file to train on")
	ckptPath := fs.String("checkpoint", "", "Checkpoint written after every epoch")
	resume := fs.String("resume", "", "Checkpoint to resume from")
	verbose := fs.Bool("v", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			return err
		}
	}
	cfg.ApplyOverrides(config.Overrides{
		Seed:         *seed,
		Epochs:       *epochs,
		BatchSize:    *batchSize,
		LogEvery:     *logEvery,
		LearningRate: float32(*lr),
		Optimizer:    *optimizer,
		DatasetPath:  *dataPath,
		Checkpoint:   *ckptPath,
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	backend := cpu.New()
	logger.Info("backend", "name", backend.Name(), "cpu", backend.Features().String())

	run, err := newRun(cfg, backend, logger)
	if err != nil {
		return err
	}
	logger.Debug("model\n" + run.driver.Model.Summary())

	if *resume != "" {
		if err := run.resume(*resume); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	history, err := run.driver.Fit(ctx, run.train, run.validation)
	if err != nil {
		return err
	}
	if last, ok := history.Last(); ok {
		logger.Info("done", "epochs", len(history.Epochs), "loss", last.Loss,
			"traces", len(run.driver.TrainStep().Traces()))
	}
	return nil
}

func inspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	skipChecksum := fs.Bool("skip-checksum", false, "Do not verify the data checksum")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.Errorf("inspect: expected one checkpoint path, got %d", fs.NArg())
	}

	ckpt, err := serialization.LoadWithOptions(fs.Arg(0), serialization.ReaderOptions{
		SkipChecksumValidation: *skipChecksum,
		ValidationLevel:        serialization.ValidationStrict,
	})
	if err != nil {
		return err
	}
	fmt.Printf("run_id:     %s\n", ckpt.RunID)
	fmt.Printf("created_at: %s\n", ckpt.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("version:    %s\n", ckpt.Version)
	fmt.Printf("epoch:      %d\n", ckpt.Meta.Epoch)
	fmt.Printf("step:       %d\n", ckpt.Meta.Step)
	fmt.Printf("loss:       %.6f\n", ckpt.Meta.Loss)
	fmt.Printf("optimizer:  %s\n", ckpt.Meta.Optimizer)
	fmt.Printf("state:      %s\n", ckpt.State.Signature())
	for k, v := range ckpt.Metadata {
		fmt.Printf("meta.%s: %s\n", k, v)
	}
	return nil
}
