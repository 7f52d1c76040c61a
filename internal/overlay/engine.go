// Package overlay реализует конвейер overlay-weight-aggregate: пересечение
// исходных полигонов с зонами, взвешивание атрибутов долей площади и
// агрегацию по зонам.
package overlay

import (
	"time"

	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/pkg/projection"
	"go.uber.org/zap"
)

const (
	// Суффикс ключевого атрибута исходного слоя при совпадении имени с ключом зон
	SourceKeySuffix = "_summary"
	// Суффикс атрибута зоны при совпадении имени с агрегируемой колонкой
	ZoneFieldSuffix = "_zone"

	DefaultPrecision = 2
)

// Config - настройки движка
type Config struct {
	EqualAreaCRS   string
	Precision      int
	DefaultJoin    domain.JoinType
	ParallelReduce bool
}

// DefaultConfig возвращает настройки по умолчанию
func DefaultConfig() Config {
	return Config{
		EqualAreaCRS: projection.EqualArea,
		Precision:    DefaultPrecision,
		DefaultJoin:  domain.JoinInner,
	}
}

// Options - параметры одного вызова суммирования
type Options struct {
	// Числовые атрибуты исходного слоя
	Columns []string
	// Атрибут слоя зон, уникально идентифицирующий зону
	Key string
	// Режим присоединения агрегатов к зонам; пустое значение - join по умолчанию
	JoinType domain.JoinType
}

// Engine выполняет суммирование слоев
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// NewEngine создает новый экземпляр Engine.
// CRS для вычисления площадей должна быть равновеликой.
func NewEngine(cfg Config, logger *zap.Logger) (*Engine, error) {
	if cfg.EqualAreaCRS == "" {
		cfg.EqualAreaCRS = projection.EqualArea
	}
	code, err := projection.Normalize(cfg.EqualAreaCRS)
	if err != nil {
		return nil, configError("equal-area CRS: %v", err)
	}
	if !projection.IsEqualArea(code) {
		return nil, configError("%s is not an equal-area CRS", code)
	}
	cfg.EqualAreaCRS = code
	if cfg.Precision < 0 {
		cfg.Precision = DefaultPrecision
	}
	if cfg.DefaultJoin == "" {
		cfg.DefaultJoin = domain.JoinInner
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// SumWithin распределяет значения пропорционально доле площади и суммирует по зонам
func (e *Engine) SumWithin(zones, sources *domain.Layer, opts Options) (*domain.Layer, error) {
	return e.Summarize(zones, sources, domain.StatisticSum, opts)
}

// MeanWithin считает средневзвешенное по площади фрагментов значение в зоне
func (e *Engine) MeanWithin(zones, sources *domain.Layer, opts Options) (*domain.Layer, error) {
	return e.Summarize(zones, sources, domain.StatisticMean, opts)
}

// MinWithin возвращает минимум распределенных значений по зоне
func (e *Engine) MinWithin(zones, sources *domain.Layer, opts Options) (*domain.Layer, error) {
	return e.Summarize(zones, sources, domain.StatisticMin, opts)
}

// MaxWithin возвращает максимум распределенных значений по зоне
func (e *Engine) MaxWithin(zones, sources *domain.Layer, opts Options) (*domain.Layer, error) {
	return e.Summarize(zones, sources, domain.StatisticMax, opts)
}

// Summarize выполняет полный конвейер для заданной статистики.
// Входные слои не изменяются.
func (e *Engine) Summarize(zones, sources *domain.Layer, stat domain.Statistic, opts Options) (*domain.Layer, error) {
	result, err := e.Run(zones, sources, stat, opts)
	if err != nil {
		return nil, err
	}
	return result.Layer, nil
}

// Result - результат суммирования с диагностикой
type Result struct {
	Layer          *domain.Layer
	Reconciliation Reconciliation
	FragmentCount  int
	MatchedZones   int
	CoverageGaps   []SourceCoverage
	Duration       time.Duration
}

// Run выполняет конвейер и возвращает результат вместе с диагностикой
func (e *Engine) Run(zones, sources *domain.Layer, stat domain.Statistic, opts Options) (*Result, error) {
	start := time.Now()

	if !stat.IsValid() {
		return nil, configError("unsupported statistic %q", stat)
	}

	ov, err := e.overlay(zones, sources, opts)
	if err != nil {
		return nil, err
	}

	reduced, err := e.reduce(ov, stat)
	if err != nil {
		return nil, err
	}

	layer, matched, err := e.join(ov, reduced)
	if err != nil {
		return nil, err
	}

	if layer.Len() == 0 && zones.Len() > 0 {
		e.logger.Warn("Summary produced no zones",
			zap.String("statistic", string(stat)),
			zap.String("join_type", string(ov.opts.JoinType)),
			zap.Int("zones", zones.Len()),
			zap.Int("sources", sources.Len()),
		)
	}

	res := &Result{
		Layer:          layer,
		Reconciliation: ov.reconciliation,
		FragmentCount:  len(ov.fragments),
		MatchedZones:   matched,
		CoverageGaps:   Coverage(ov.fragments, ov.measured, CoverageTolerance),
		Duration:       time.Since(start),
	}

	e.logger.Debug("Summary completed",
		zap.String("statistic", string(stat)),
		zap.Strings("columns", opts.Columns),
		zap.String("key", opts.Key),
		zap.Int("fragments", res.FragmentCount),
		zap.Int("zones_out", layer.Len()),
		zap.Duration("duration", res.Duration),
	)

	return res, nil
}
