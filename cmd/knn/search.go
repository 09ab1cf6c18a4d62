package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/knn"
	"github.com/hupe1980/knn/kspec"
	"github.com/hupe1980/knn/report"
)

const defaultSearchK = "3-10"

func newSearchCmd(a *app) *cobra.Command {
	var (
		file          string
		columns       []string
		label         string
		selectColumns bool
		out           string
		metricsFile   string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Score a range of k on a hold-out split",
		Example: `  knn search -f iris.csv.zst --col 0 --col 1 --col 2 --col 3 --label 4 \
      -k 1-15,2 --test 0.25 --split stratified --workers 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			metric, err := a.cfg.DistanceMetric()
			if err != nil {
				return err
			}
			policy, err := a.cfg.SplitPolicy()
			if err != nil {
				return err
			}
			candidates, err := kspec.Parse(orDefault(a.cfg.K, defaultSearchK))
			if err != nil {
				return err
			}
			writer, err := a.reportWriter()
			if err != nil {
				return err
			}

			tbl, err := a.readTable(ctx, file, label, columns)
			if err != nil {
				return err
			}

			collector := report.NewPromCollector()
			m, err := knn.New(tbl.Data,
				knn.WithMetric(metric),
				knn.WithLogger(a.logger),
				knn.WithSplitPolicy(policy),
				knn.WithSeed(a.cfg.Seed),
				knn.WithWorkers(a.cfg.Workers),
				knn.WithMetricsCollector(collector),
			)
			if err != nil {
				return err
			}

			sb := m.Search(candidates).TestFraction(a.cfg.Test)
			res, err := sb.Execute(ctx)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			r := report.NewSearch(res, metric.String(), policy.String())

			if selectColumns {
				steps, err := sb.SelectFeatures(ctx)
				if err != nil {
					return fmt.Errorf("select columns: %w", err)
				}
				r.AddFeatures(steps, tbl.FeatureNames())
			}

			var buf bytes.Buffer
			if err := writer.Search(&buf, r); err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
				return err
			}
			if out != "" {
				if err := a.opener.Put(ctx, out, buf.Bytes()); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
			}
			if metricsFile != "" {
				if err := collector.WriteTextfile(metricsFile); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&file, "file", "f", "", `input file or URI ("-" for stdin)`)
	fs.StringArrayVar(&columns, "col", nil, "feature column by name or index (repeatable)")
	fs.StringVar(&label, "label", "", "label column by name or index")
	fs.StringVarP(&a.flags.K, "k", "k", "", "candidate k values: N, A-B or A-B,S (default "+defaultSearchK+")")
	fs.StringVar(&a.flags.Metric, "algo", a.flags.Metric, "distance metric (euclidean, manhattan)")
	fs.Float64Var(&a.flags.Test, "test", a.flags.Test, "fraction of records held out for testing")
	fs.StringVar(&a.flags.Split, "split", a.flags.Split, "split policy (positional, shuffle, stratified)")
	fs.Uint64Var(&a.flags.Seed, "seed", a.flags.Seed, "seed for the shuffle split policy")
	fs.IntVar(&a.flags.Workers, "workers", a.flags.Workers, "concurrent test rows (0 uses all CPUs)")
	fs.BoolVar(&selectColumns, "select-columns", false, "also run greedy forward column selection")
	fs.StringVar(&a.flags.Output, "output", a.flags.Output, "output format (text, json)")
	fs.StringVar(&out, "out", "", "also write the report to this file or URI")
	fs.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file")

	for _, name := range []string{"file", "col", "label"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
