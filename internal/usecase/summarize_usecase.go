package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/domain/repository"
	"github.com/spatial-summarize/internal/overlay"
	"github.com/spatial-summarize/internal/pkg/errors"
	"github.com/spatial-summarize/internal/pkg/layerio"
	"github.com/spatial-summarize/internal/pkg/validator"
	"github.com/spatial-summarize/internal/usecase/dto"
)

// SummarizeUseCase выполняет суммирование зон по исходному слою
type SummarizeUseCase struct {
	engine      *overlay.Engine
	engineCfg   overlay.Config
	layerUC     *LayerUseCase
	cacheRepo   repository.CacheRepository
	cacheTTL    time.Duration
	maxFeatures int
	logger      *zap.Logger
}

// NewSummarizeUseCase создает новый экземпляр SummarizeUseCase
func NewSummarizeUseCase(
	engineCfg overlay.Config,
	layerUC *LayerUseCase,
	cacheRepo repository.CacheRepository,
	cacheTTL time.Duration,
	maxFeatures int,
	logger *zap.Logger,
) (*SummarizeUseCase, error) {
	engine, err := overlay.NewEngine(engineCfg, logger.Named("overlay"))
	if err != nil {
		return nil, err
	}
	return &SummarizeUseCase{
		engine:      engine,
		engineCfg:   engineCfg,
		layerUC:     layerUC,
		cacheRepo:   cacheRepo,
		cacheTTL:    cacheTTL,
		maxFeatures: maxFeatures,
		logger:      logger,
	}, nil
}

// Summarize разрешает входные слои, проверяет кеш и запускает движок
func (uc *SummarizeUseCase) Summarize(ctx context.Context, req dto.SummarizeRequest) (*dto.SummarizeResponse, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	if req.JoinType == "" {
		req.JoinType = string(uc.engineCfg.DefaultJoin)
	}

	// 1. Проверяем кеш
	hash, err := uc.cacheKey(req)
	if err != nil {
		return nil, err
	}
	if resp := uc.fromCache(ctx, hash); resp != nil {
		return resp, nil
	}

	// 2. Разрешаем слои
	zones, err := uc.resolve(ctx, "zones", req.Zones)
	if err != nil {
		return nil, err
	}
	sources, err := uc.resolve(ctx, "sources", req.Sources)
	if err != nil {
		return nil, err
	}
	if err := checkFeatureLimit(uc.maxFeatures, zones.Len()+sources.Len()); err != nil {
		return nil, err
	}

	// 3. Считаем
	resp, err := uc.Compute(zones, sources, domain.Statistic(req.Statistic), overlay.Options{
		Columns:  req.Columns,
		Key:      req.Key,
		JoinType: domain.JoinType(req.JoinType),
	})
	if err != nil {
		return nil, err
	}

	// 4. Кешируем
	uc.toCache(ctx, hash, resp, storedLayerIDs(req.Zones, req.Sources))

	return resp, nil
}

// Compute запускает движок и кодирует результат в GeoJSON
func (uc *SummarizeUseCase) Compute(zones, sources *domain.Layer, stat domain.Statistic, opts overlay.Options) (*dto.SummarizeResponse, error) {
	res, err := uc.engine.Run(zones, sources, stat, opts)
	if err != nil {
		return nil, err
	}

	data, err := layerio.Encode(res.Layer)
	if err != nil {
		return nil, errors.ErrInternalServer.WithMessage("encode summary").Wrap(err)
	}

	joinType := opts.JoinType
	if joinType == "" {
		joinType = uc.engineCfg.DefaultJoin
	}

	meta := dto.SummaryMeta{
		Statistic:     string(stat),
		JoinType:      string(joinType),
		ZoneCount:     res.Layer.Len(),
		MatchedZones:  res.MatchedZones,
		FragmentCount: res.FragmentCount,
		CoverageGaps:  res.CoverageGaps,
		TimeMSec:      float64(res.Duration.Microseconds()) / 1000,
	}
	if !res.Reconciliation.Empty() {
		rec := res.Reconciliation
		meta.Renamed = &rec
	}
	if len(res.CoverageGaps) > 0 {
		uc.logger.Debug("Sources not fully covered by zones",
			zap.Int("count", len(res.CoverageGaps)))
	}

	return &dto.SummarizeResponse{Result: data, Meta: meta}, nil
}

func (uc *SummarizeUseCase) resolve(ctx context.Context, role string, in dto.LayerInput) (*domain.Layer, error) {
	switch {
	case in.IsStored() && len(in.GeoJSON) > 0:
		return nil, errors.ErrInvalidRequest.WithMessage("%s: layer_id and geojson are mutually exclusive", role)
	case in.IsStored():
		return uc.layerUC.Load(ctx, *in.LayerID)
	case len(in.GeoJSON) > 0:
		return layerio.Decode(in.GeoJSON, in.CRS)
	default:
		return nil, errors.ErrInvalidRequest.WithMessage("%s: layer_id or geojson is required", role)
	}
}

type layerRef struct {
	LayerID string `json:"layer_id,omitempty"`
	Digest  string `json:"digest,omitempty"`
	CRS     string `json:"crs,omitempty"`
}

type cacheKeyPayload struct {
	Statistic    string   `json:"statistic"`
	JoinType     string   `json:"join_type"`
	Key          string   `json:"key"`
	Columns      []string `json:"columns"`
	Zones        layerRef `json:"zones"`
	Sources      layerRef `json:"sources"`
	Precision    int      `json:"precision"`
	EqualAreaCRS string   `json:"equal_area_crs"`
}

// cacheKey - sha256 от нормализованного запроса; инлайн GeoJSON учитывается по хешу содержимого
func (uc *SummarizeUseCase) cacheKey(req dto.SummarizeRequest) (string, error) {
	zones, err := refOf(req.Zones)
	if err != nil {
		return "", err
	}
	sources, err := refOf(req.Sources)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(cacheKeyPayload{
		Statistic:    req.Statistic,
		JoinType:     req.JoinType,
		Key:          req.Key,
		Columns:      req.Columns,
		Zones:        zones,
		Sources:      sources,
		Precision:    uc.engineCfg.Precision,
		EqualAreaCRS: uc.engineCfg.EqualAreaCRS,
	})
	if err != nil {
		return "", errors.ErrInternalServer.Wrap(err)
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func refOf(in dto.LayerInput) (layerRef, error) {
	ref := layerRef{CRS: in.CRS}
	if in.IsStored() {
		ref.LayerID = in.LayerID.String()
	}
	if len(in.GeoJSON) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, in.GeoJSON); err != nil {
			return ref, errors.ErrInvalidLayer.WithMessage("invalid GeoJSON: %v", err).Wrap(err)
		}
		sum := sha256.Sum256(buf.Bytes())
		ref.Digest = hex.EncodeToString(sum[:])
	}
	return ref, nil
}

func storedLayerIDs(inputs ...dto.LayerInput) []string {
	var ids []string
	for _, in := range inputs {
		if in.IsStored() {
			ids = append(ids, in.LayerID.String())
		}
	}
	return ids
}

func (uc *SummarizeUseCase) fromCache(ctx context.Context, hash string) *dto.SummarizeResponse {
	data, err := uc.cacheRepo.GetSummary(ctx, hash)
	if err != nil {
		uc.logger.Warn("Failed to get summary from cache", zap.Error(err))
		return nil
	}
	if data == nil {
		return nil
	}

	var resp dto.SummarizeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		uc.logger.Warn("Cached summary is corrupted", zap.String("hash", hash), zap.Error(err))
		return nil
	}

	resp.Meta.Cached = true
	uc.logger.Debug("Summary fetched from cache", zap.String("hash", hash))
	return &resp
}

func (uc *SummarizeUseCase) toCache(ctx context.Context, hash string, resp *dto.SummarizeResponse, layerIDs []string) {
	data, err := json.Marshal(resp)
	if err != nil {
		uc.logger.Warn("Failed to marshal summary for cache", zap.Error(err))
		return
	}
	if err := uc.cacheRepo.SetSummary(ctx, hash, data, uc.cacheTTL, layerIDs...); err != nil {
		// Не возвращаем ошибку, т.к. результат уже посчитан
		uc.logger.Warn("Failed to cache summary", zap.Error(err))
	}
}
