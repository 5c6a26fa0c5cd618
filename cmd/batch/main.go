package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"fms-squat-go/internal/actionable"
	"fms-squat-go/internal/aggregator"
	"fms-squat-go/internal/config"
	"fms-squat-go/internal/dataset"
	"fms-squat-go/internal/gemini"
	"fms-squat-go/internal/logger"
	"fms-squat-go/internal/processor"
	"fms-squat-go/internal/types"
)

func main() {
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(log).RunContext(ctx, os.Args); err != nil {
		log.WithError(err).Fatal("batch failed")
	}
}

func newApp(log *logger.Logger) *cli.App {
	return &cli.App{
		Name:  "batch",
		Usage: "screen a spreadsheet of squat recordings offline",
		Commands: []*cli.Command{
			{
				Name:  "screen",
				Usage: "analyze every row of a manifest and write an xlsx report",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "manifest",
						Aliases:  []string{"m"},
						Usage:    "xlsx manifest with one recording per row",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "report path",
						Value:   "report.xlsx",
					},
					&cli.StringFlag{
						Name:  "base-dir",
						Usage: "directory relative media paths resolve against (default: manifest directory)",
					},
				},
				Action: func(c *cli.Context) error {
					return screen(c, log)
				},
			},
		},
	}
}

func screen(c *cli.Context, log *logger.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	manifest := c.String("manifest")
	baseDir := c.String("base-dir")
	if baseDir == "" {
		baseDir = filepath.Dir(manifest)
	}

	records, err := dataset.Load(manifest)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"manifest": manifest,
		"rows":     len(records),
		"model":    cfg.Model.Name,
	}).Info("manifest loaded")

	proc := processor.New(gemini.NewInvoker(cfg.Model, log), log)

	start := time.Now()
	screened := proc.Screen(c.Context, records, func(rec types.ManifestRecord) (types.Media, error) {
		return dataset.LoadMedia(rec, baseDir)
	})

	ins := aggregator.Aggregate(screened)
	card := actionable.Generate(ins)

	out := c.String("out")
	if err := dataset.WriteReport(out, screened, ins, card); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"report":        out,
		"succeeded":     ins.Succeeded,
		"failed":        ins.Failed,
		"average_score": ins.AverageScore,
		"action":        card.Action,
		"duration_ms":   time.Since(start).Milliseconds(),
	}).Info("batch complete")
	return nil
}
