package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/metroplan/app"
	"github.com/kilianp07/metroplan/core/model"
	"github.com/kilianp07/metroplan/pkg/export"
)

type planFlags struct {
	input    string
	output   string
	format   string
	hours    []int
	weekday  int
	weather  int
	event    int
	insights bool
	seed     int64
}

var pf planFlags

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute one plan and print it",
	Long: `Compute one plan. Without --input the configured network catalog is
planned for --hours (or the catalog hours) under the given conditions.`,
	RunE: runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVarP(&pf.input, "input", "i", "", "plan request file (.json, .yaml)")
	f.StringVarP(&pf.output, "output", "o", "", "write the result to this file instead of stdout")
	f.StringVarP(&pf.format, "format", "f", "json", "output format: json or csv")
	f.IntSliceVar(&pf.hours, "hours", nil, "hours to plan, e.g. 7,8,9")
	f.IntVar(&pf.weekday, "weekday", int(time.Now().Weekday()), "day of week, 0=Sunday")
	f.IntVar(&pf.weather, "weather", 0, "1 for severe weather")
	f.IntVar(&pf.event, "event", 0, "1 for a special event")
	f.BoolVar(&pf.insights, "insights", false, "include plan insights in the JSON output")
	f.Int64Var(&pf.seed, "seed", 0, "seed the demand jitter for reproducible runs")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format, err := export.ParseFormat(pf.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if pf.insights {
		cfg.Planner.Dispatch.IncludeInsights = true
	}
	if cmd.Flags().Changed("seed") {
		cfg.Planner.Prediction.Seed = pf.seed
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	var (
		in  model.PlanInput
		out model.PlanOutput
	)
	if pf.input != "" {
		if in, err = readInput(pf.input); err != nil {
			return err
		}
		out, err = svc.Planner.Plan(ctx, in)
	} else {
		cond := model.Conditions{Weekday: pf.weekday, Weather: pf.weather, Event: pf.event}
		in, out, err = svc.Plan(ctx, pf.hours, cond)
	}
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if pf.output != "" {
		f, err := os.Create(pf.output)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	return export.Write(w, format, in, out)
}

func readInput(path string) (model.PlanInput, error) {
	var in model.PlanInput
	data, err := os.ReadFile(path)
	if err != nil {
		return in, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &in)
	case ".json":
		err = json.Unmarshal(data, &in)
	default:
		return in, fmt.Errorf("unsupported input format: %s", ext)
	}
	if err != nil {
		return in, fmt.Errorf("parse %s: %w", path, err)
	}
	return in, nil
}
