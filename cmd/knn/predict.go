package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/knn"
	"github.com/hupe1980/knn/kspec"
	"github.com/hupe1980/knn/report"
	"github.com/hupe1980/knn/table"
)

const defaultPredictK = "3"

func newPredictCmd(a *app) *cobra.Command {
	var (
		file      string
		columns   []string
		label     string
		datapoint string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Classify one datapoint",
		Example: `  knn predict -f iris.csv --col sepal_length --col petal_length \
      --label species --datapoint 5.1,1.4 -k 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			metric, err := a.cfg.DistanceMetric()
			if err != nil {
				return err
			}
			k, err := kspec.Parse(orDefault(a.cfg.K, defaultPredictK))
			if err != nil {
				return err
			}
			query, err := table.ParseDatapoint(datapoint)
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
			m, err := knn.New(tbl.Data, knn.WithMetric(metric), knn.WithLogger(a.logger))
			if err != nil {
				return err
			}
			p, err := m.Predict(ctx, query, k)
			if err != nil {
				return fmt.Errorf("predict: %w", err)
			}

			r := report.NewPrediction(p, tbl.Data, metric.String(), query)
			return writer.Prediction(cmd.OutOrStdout(), r)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&file, "file", "f", "", `input file or URI ("-" for stdin)`)
	fs.StringArrayVar(&columns, "col", nil, "feature column by name or index (repeatable)")
	fs.StringVar(&label, "label", "", "label column by name or index")
	fs.StringVar(&datapoint, "datapoint", "", "comma-separated feature values to classify")
	fs.StringVarP(&a.flags.K, "k", "k", "", "number of neighbors (default "+defaultPredictK+")")
	fs.StringVar(&a.flags.Metric, "algo", a.flags.Metric, "distance metric (euclidean, manhattan)")
	fs.StringVar(&a.flags.Output, "output", a.flags.Output, "output format (text, json)")

	for _, name := range []string{"file", "col", "label", "datapoint"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
