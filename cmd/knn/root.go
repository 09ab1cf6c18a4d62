package main

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hupe1980/knn"
	"github.com/hupe1980/knn/blobstore/minio"
	"github.com/hupe1980/knn/blobstore/s3"
	"github.com/hupe1980/knn/internal/config"
	"github.com/hupe1980/knn/report"
	"github.com/hupe1980/knn/source"
	"github.com/hupe1980/knn/table"
)

// app holds the state shared by all commands of one invocation.
type app struct {
	cfgFile string
	pretty  bool
	flags   config.Config

	cfg    *config.Config
	logger *knn.Logger
	opener *source.Opener
}

func newRootCmd() *cobra.Command {
	a := &app{flags: *config.Default()}

	cmd := &cobra.Command{
		Use:   "knn",
		Short: "k-nearest-neighbor classification over delimited data",
		Long: `knn reads a delimited table from a file, stdin ("-"), s3:// or minio://,
selects feature columns and a label column, and either classifies a single
datapoint (predict) or scores a range of k on a hold-out split (search).

Settings are read from .env, KNN_* environment variables and an optional
YAML file; flags given on the command line take precedence.`,
		Version:           version(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.init,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "YAML config file")
	pf.BoolVar(&a.flags.NoHeader, "no-header", a.flags.NoHeader, "treat the first line as data")
	pf.StringVar(&a.flags.Delimiter, "delimiter", a.flags.Delimiter, "field delimiter (a character, tab, comma, semicolon or pipe)")
	pf.StringVar(&a.flags.LogLevel, "log-level", a.flags.LogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&a.flags.LogFormat, "log-format", a.flags.LogFormat, "log format (text, json)")
	pf.BoolVar(&a.pretty, "pretty", false, "indent JSON output")

	cmd.AddCommand(newPredictCmd(a), newSearchCmd(a), newVersionCmd())
	return cmd
}

// init loads the configuration and applies explicitly set flags on top.
func (a *app) init(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}

	fs := cmd.Flags()
	override(fs, "no-header", &cfg.NoHeader, a.flags.NoHeader)
	override(fs, "delimiter", &cfg.Delimiter, a.flags.Delimiter)
	override(fs, "log-level", &cfg.LogLevel, a.flags.LogLevel)
	override(fs, "log-format", &cfg.LogFormat, a.flags.LogFormat)
	override(fs, "algo", &cfg.Metric, a.flags.Metric)
	override(fs, "k", &cfg.K, a.flags.K)
	override(fs, "test", &cfg.Test, a.flags.Test)
	override(fs, "split", &cfg.Split, a.flags.Split)
	override(fs, "seed", &cfg.Seed, a.flags.Seed)
	override(fs, "workers", &cfg.Workers, a.flags.Workers)
	override(fs, "output", &cfg.Output, a.flags.Output)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, _ := cfg.Level()
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.LogFormat, level)

	a.opener = source.New(func(o *source.Options) {
		o.Stdin = cmd.InOrStdin()
		o.Stores = map[string]source.StoreFactory{
			"s3": source.S3Factory(
				s3.WithRegion(cfg.S3.Region),
				s3.WithEndpoint(cfg.S3.Endpoint),
				s3.WithPathStyle(cfg.S3.PathStyle),
			),
			"minio": source.MinIOFactory(minio.Config{
				Endpoint:  cfg.Minio.Endpoint,
				AccessKey: cfg.Minio.AccessKey,
				SecretKey: cfg.Minio.SecretKey,
				Secure:    cfg.Minio.Secure,
				Region:    cfg.Minio.Region,
			}),
		}
	})
	return nil
}

func override[T any](fs *pflag.FlagSet, name string, dst *T, v T) {
	if f := fs.Lookup(name); f != nil && f.Changed {
		*dst = v
	}
}

func newLogger(w io.Writer, format string, level slog.Level) *knn.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return knn.NewLogger(slog.NewJSONHandler(w, opts))
	}
	return knn.NewLogger(slog.NewTextHandler(w, opts))
}

func (a *app) reportWriter() (*report.Writer, error) {
	w, err := a.cfg.ReportWriter()
	if err != nil {
		return nil, err
	}
	if a.pretty {
		w.Indent("  ")
	}
	return w, nil
}

// readTable opens uri and parses it with the configured table options.
func (a *app) readTable(ctx context.Context, uri, label string, columns []string) (*table.Table, error) {
	rc, err := a.opener.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	delim, err := table.ParseDelimiter(a.cfg.Delimiter)
	if err != nil {
		return nil, err
	}
	tbl, err := table.Read(rc, table.ParseColumn(label), table.ParseColumns(columns), func(o *table.Options) {
		o.Delimiter = delim
		o.NoHeader = a.cfg.NoHeader
	})
	if err != nil {
		return nil, err
	}

	a.logger.DebugContext(ctx, "table loaded",
		slog.String("source", uri),
		slog.Int("rows", tbl.Data.Len()),
		slog.Any("columns", tbl.FeatureNames()),
	)
	return tbl, nil
}
