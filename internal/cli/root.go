// Package cli реализует офлайн-утилиту summarize: GeoJSON на входе, GeoJSON на выходе.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/overlay"
	apperrors "github.com/spatial-summarize/internal/pkg/errors"
	"github.com/spatial-summarize/internal/pkg/layerio"
	"github.com/spatial-summarize/internal/pkg/logger"
	"github.com/spatial-summarize/internal/pkg/validator"
)

type options struct {
	zones        string
	sources      string
	zonesCRS     string
	sourcesCRS   string
	columns      []string
	key          string
	join         string
	out          string
	logLevel     string
	precision    int
	equalAreaCRS string
	parallel     bool
}

// NewRootCommand собирает команду summarize с подкомандами sum, mean, min, max
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "summarize",
		Short:         "Area-weighted summary of source polygons within zone polygons",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	defaults := overlay.DefaultConfig()
	pf := root.PersistentFlags()
	pf.StringVar(&opts.zones, "zones", "", "zones GeoJSON FeatureCollection (- for stdin)")
	pf.StringVar(&opts.sources, "sources", "", "sources GeoJSON FeatureCollection")
	pf.StringVar(&opts.zonesCRS, "zones-crs", "", "CRS of the zones layer, overrides the GeoJSON crs member")
	pf.StringVar(&opts.sourcesCRS, "sources-crs", "", "CRS of the sources layer, overrides the GeoJSON crs member")
	pf.StringSliceVar(&opts.columns, "columns", nil, "numeric source attributes to summarize (comma separated)")
	pf.StringVar(&opts.key, "key", "", "zone attribute that uniquely identifies a zone")
	pf.StringVar(&opts.join, "join", string(defaults.DefaultJoin), "join type: inner, left, right or outer")
	pf.StringVarP(&opts.out, "out", "o", "", "output file (stdout if empty)")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	pf.IntVar(&opts.precision, "precision", defaults.Precision, "decimal places of the summarized values")
	pf.StringVar(&opts.equalAreaCRS, "equal-area-crs", defaults.EqualAreaCRS, "equal-area CRS used for area computation")
	pf.BoolVar(&opts.parallel, "parallel", false, "reduce columns concurrently")

	for _, stat := range domain.Statistics {
		root.AddCommand(newStatisticCommand(stat, opts))
	}

	return root
}

func newStatisticCommand(stat domain.Statistic, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   string(stat),
		Short: fmt.Sprintf("Area-weighted %s of source attributes within each zone", stat),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, stat, opts)
		},
	}
}

func run(cmd *cobra.Command, stat domain.Statistic, opts *options) error {
	if err := opts.validate(); err != nil {
		return err
	}

	log, err := logger.New(opts.logLevel, logger.WithOutput("stderr"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	zones, err := readLayer(cmd.InOrStdin(), opts.zones, opts.zonesCRS)
	if err != nil {
		return fmt.Errorf("zones: %w", err)
	}
	sources, err := readLayer(cmd.InOrStdin(), opts.sources, opts.sourcesCRS)
	if err != nil {
		return fmt.Errorf("sources: %w", err)
	}

	engine, err := overlay.NewEngine(overlay.Config{
		EqualAreaCRS:   opts.equalAreaCRS,
		Precision:      opts.precision,
		DefaultJoin:    domain.JoinInner,
		ParallelReduce: opts.parallel,
	}, log.Named("overlay"))
	if err != nil {
		return err
	}

	result, err := engine.Run(zones, sources, stat, overlay.Options{
		Columns:  opts.columns,
		Key:      opts.key,
		JoinType: domain.JoinType(opts.join),
	})
	if err != nil {
		return err
	}

	if !result.Reconciliation.Empty() {
		log.Warn("Attribute names reconciled",
			zap.Any("source_renames", result.Reconciliation.SourceRenames),
			zap.Any("zone_renames", result.Reconciliation.ZoneRenames))
	}
	for _, gap := range result.CoverageGaps {
		log.Info("Source feature not fully covered by zones",
			zap.Int("source_index", gap.SourceIndex),
			zap.Float64("fraction", gap.Fraction))
	}
	log.Info("Summary computed",
		zap.String("statistic", string(stat)),
		zap.Int("zones", len(result.Layer.Features)),
		zap.Int("matched_zones", result.MatchedZones),
		zap.Int("fragments", result.FragmentCount),
		zap.Duration("duration", result.Duration))

	data, err := layerio.Encode(result.Layer)
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), opts.out, data)
}

func (o *options) validate() error {
	var missing []string
	if o.zones == "" {
		missing = append(missing, "--zones")
	}
	if o.sources == "" {
		missing = append(missing, "--sources")
	}
	if len(o.columns) == 0 {
		missing = append(missing, "--columns")
	}
	if o.key == "" {
		missing = append(missing, "--key")
	}
	if len(missing) > 0 {
		return apperrors.ErrConfiguration.WithMessage("required flags not set: %s", strings.Join(missing, ", "))
	}
	if o.zones == "-" && o.sources == "-" {
		return apperrors.ErrConfiguration.WithMessage("only one layer can be read from stdin")
	}
	for _, f := range []struct{ flag, crs string }{
		{"--zones-crs", o.zonesCRS},
		{"--sources-crs", o.sourcesCRS},
	} {
		if err := validator.Var(f.crs, "omitempty,crs"); err != nil {
			return apperrors.ErrConfiguration.WithMessage("%s: unknown CRS %q", f.flag, f.crs)
		}
	}
	return nil
}

func readLayer(stdin io.Reader, path, crs string) (*domain.Layer, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return layerio.Decode(data, crs)
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
