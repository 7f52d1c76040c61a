package overlay

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/spatial-summarize/internal/domain"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats/scalar"
)

// Служебные колонки таблиц; в выходной слой не попадают
const (
	zoneColumn  = "__zone"
	valueColumn = "weighted"
	areaColumn  = "fragment_area"
)

// reduction - агрегаты по зонам, у которых есть хотя бы один фрагмент
type reduction struct {
	// Индексы зон по возрастанию
	zones []int
	// values[c][i] - агрегат колонки c для zones[i]; NaN - нет значений
	values [][]float64
}

func (e *Engine) reduce(ov *overlayResult, stat domain.Statistic) (*reduction, error) {
	seen := make(map[int]struct{})
	for _, f := range ov.fragments {
		seen[f.ZoneIndex] = struct{}{}
	}
	zones := make([]int, 0, len(seen))
	for zi := range seen {
		zones = append(zones, zi)
	}
	sort.Ints(zones)

	red := &reduction{zones: zones, values: make([][]float64, len(ov.opts.Columns))}
	if len(zones) == 0 {
		return red, nil
	}

	perColumn := make([]map[int]float64, len(ov.opts.Columns))
	reduceOne := func(ci int) error {
		m, err := reduceColumn(ov.fragments, ci, stat)
		if err != nil {
			return fmt.Errorf("reduce column %q: %w", ov.opts.Columns[ci], err)
		}
		perColumn[ci] = m
		return nil
	}

	if e.cfg.ParallelReduce && len(ov.opts.Columns) > 1 {
		var g errgroup.Group
		for ci := range ov.opts.Columns {
			ci := ci
			g.Go(func() error { return reduceOne(ci) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for ci := range ov.opts.Columns {
			if err := reduceOne(ci); err != nil {
				return nil, err
			}
		}
	}

	for ci := range ov.opts.Columns {
		col := make([]float64, len(zones))
		for i, zi := range zones {
			v, ok := perColumn[ci][zi]
			if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
				col[i] = math.NaN()
				continue
			}
			col[i] = scalar.RoundEven(v, e.cfg.Precision)
		}
		red.values[ci] = col
	}
	return red, nil
}

// reduceColumn группирует взвешенные значения одной колонки по зонам.
// Фрагменты с пропущенным значением не участвуют.
func reduceColumn(frags []Fragment, ci int, stat domain.Statistic) (map[int]float64, error) {
	var (
		zoneIdx  []int
		weighted []float64
		areas    []float64
	)
	for _, f := range frags {
		v := f.Values[ci]
		if math.IsNaN(v) {
			continue
		}
		zoneIdx = append(zoneIdx, f.ZoneIndex)
		if stat == domain.StatisticMean {
			weighted = append(weighted, v*f.FragmentArea)
			areas = append(areas, f.FragmentArea)
		} else {
			weighted = append(weighted, v*f.OverlapFraction)
		}
	}

	result := make(map[int]float64)
	if len(zoneIdx) == 0 {
		return result, nil
	}

	cols := []series.Series{
		series.New(zoneIdx, series.Int, zoneColumn),
		series.New(weighted, series.Float, valueColumn),
	}

	var (
		typs  []dataframe.AggregationType
		names []string
	)
	switch stat {
	case domain.StatisticSum:
		typs, names = []dataframe.AggregationType{dataframe.Aggregation_SUM}, []string{valueColumn}
	case domain.StatisticMin:
		typs, names = []dataframe.AggregationType{dataframe.Aggregation_MIN}, []string{valueColumn}
	case domain.StatisticMax:
		typs, names = []dataframe.AggregationType{dataframe.Aggregation_MAX}, []string{valueColumn}
	case domain.StatisticMean:
		cols = append(cols, series.New(areas, series.Float, areaColumn))
		typs = []dataframe.AggregationType{dataframe.Aggregation_SUM, dataframe.Aggregation_SUM}
		names = []string{valueColumn, areaColumn}
	default:
		return nil, fmt.Errorf("unsupported statistic %q", stat)
	}

	df := dataframe.New(cols...)
	if df.Err != nil {
		return nil, df.Err
	}

	groups := df.GroupBy(zoneColumn)
	if groups.Err != nil {
		return nil, groups.Err
	}

	agg := groups.Aggregation(typs, names)
	if agg.Err != nil {
		return nil, agg.Err
	}

	keys := agg.Col(zoneColumn)
	primary := agg.Col(aggregatedName(names[0], typs[0]))
	for i := 0; i < agg.Nrow(); i++ {
		zi, err := keys.Elem(i).Int()
		if err != nil {
			return nil, err
		}

		v := primary.Elem(i).Float()
		if stat == domain.StatisticMean {
			total := agg.Col(aggregatedName(names[1], typs[1])).Elem(i).Float()
			if total > 0 {
				v /= total
			} else {
				v = math.NaN()
			}
		}
		result[zi] = v
	}
	return result, nil
}

func aggregatedName(col string, typ dataframe.AggregationType) string {
	return fmt.Sprintf("%s_%s", col, typ)
}
