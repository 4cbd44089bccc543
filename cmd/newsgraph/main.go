package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"newsgraph"
	"newsgraph/core/graph"
	"newsgraph/helper"
	"newsgraph/model"
)

func main() {
	app := &cli.App{
		Name:  "newsgraph",
		Usage: "Ingest news feeds into a knowledge graph",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to env file with database configuration",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "memory",
				Usage: "Use the in-memory store instead of PostgreSQL",
			},
			&cli.BoolFlag{
				Name:  "no-models",
				Usage: "Skip loading the embedding and NER models",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Execute one pipeline run and exit",
				Action: runCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "lookback-days",
						Aliases: []string{"d"},
						Usage:   "Collect articles published in the last N days",
						Value:   1,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run the daily scheduler until interrupted",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "at",
						Usage: "Daily run time in HH:MM (24h)",
						Value: "06:00",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newPipeline builds the pipeline from CLI flags and environment.
func newPipeline(c *cli.Context) (*newsgraph.Newsgraph, error) {
	if err := godotenv.Load(c.String("env-file")); err != nil {
		// A missing env file is fine when the variables are already set.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	config := model.DefaultPipelineConfig()

	var pipeline *newsgraph.Newsgraph
	if c.Bool("memory") {
		pipeline = newsgraph.NewWithStore(graph.NewMemoryStore(), config, nil)
	} else {
		dbConfig, err := helper.NewDatabaseConfiguration()
		if err != nil {
			return nil, fmt.Errorf("database configuration: %w", err)
		}
		pipeline, err = newsgraph.New(dbConfig, config)
		if err != nil {
			return nil, fmt.Errorf("create pipeline: %w", err)
		}
	}

	if !c.Bool("no-models") {
		if err := pipeline.UseDefaultModels(); err != nil {
			return nil, fmt.Errorf("load models: %w", err)
		}
	}

	return pipeline, nil
}

func runCommand(c *cli.Context) error {
	pipeline, err := newPipeline(c)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	summary, err := pipeline.RunOnce(c.Context, c.Int("lookback-days"))
	if err != nil {
		return err
	}

	if summary.Status == model.RunStatusError {
		return cli.Exit(fmt.Sprintf("run failed: %s", summary.Message), 1)
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	hour, minute, err := parseDailyTime(c.String("at"))
	if err != nil {
		return err
	}

	pipeline, err := newPipeline(c)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	if err := pipeline.Schedule(hour, minute); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	pipeline.Stop()
	return nil
}

func parseDailyTime(value string) (int, int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}

	return hour, minute, nil
}
