package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb/encoding/wkb"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/domain/repository"
	"github.com/spatial-summarize/internal/pkg/errors"
	"github.com/spatial-summarize/internal/pkg/projection"
)

type layerRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewLayerRepository создает новый экземпляр LayerRepository
func NewLayerRepository(db *DB) repository.LayerRepository {
	return &layerRepository{
		db:     db,
		logger: db.logger,
	}
}

type featureRow struct {
	Geom       []byte `db:"geom"`
	Properties []byte `db:"properties"`
}

// Create сохраняет слой в одной транзакции
func (r *layerRepository) Create(ctx context.Context, name string, layer *domain.Layer) (*domain.LayerInfo, error) {
	crs, err := projection.Normalize(layer.CRS)
	if err != nil {
		return nil, errors.ErrGeometry.WithMessage("invalid layer CRS %q", layer.CRS).Wrap(err)
	}
	srid, err := projection.SRID(crs)
	if err != nil {
		return nil, errors.ErrGeometry.Wrap(err)
	}

	info := &domain.LayerInfo{
		ID:           uuid.New(),
		Name:         name,
		CRS:          crs,
		FeatureCount: layer.Len(),
		Fields:       layer.Fields(),
	}

	err = r.db.InTx(ctx, func(tx *sqlx.Tx) error {
		return r.insertLayer(ctx, tx, info, layer, srid)
	})
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, err
		}
		r.logger.Error("Failed to store layer", zap.String("name", name), zap.Error(err))
		return nil, errors.ErrDatabaseError.Wrap(err)
	}

	r.logger.Info("Layer stored",
		zap.String("layer_id", info.ID.String()),
		zap.String("crs", crs),
		zap.Int("features", info.FeatureCount))
	return info, nil
}

func (r *layerRepository) insertLayer(ctx context.Context, tx *sqlx.Tx, info *domain.LayerInfo, layer *domain.Layer, srid int) error {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO layers (id, name, crs, feature_count)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, info.ID, info.Name, info.CRS, info.FeatureCount).Scan(&info.CreatedAt)
	if err != nil {
		return err
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO layer_features (layer_id, ordinal, geom, properties)
		VALUES ($1, $2, ST_GeomFromWKB($3, $4), $5::jsonb)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range layer.Features {
		geom, err := wkb.Marshal(f.Geometry)
		if err != nil {
			return errors.ErrInvalidLayer.WithMessage("feature %d: %v", i, err).Wrap(err)
		}
		props, err := json.Marshal(f.Properties)
		if err != nil {
			return errors.ErrInvalidLayer.WithMessage("feature %d properties: %v", i, err).Wrap(err)
		}

		if _, err := stmt.ExecContext(ctx, info.ID, i, geom, srid, string(props)); err != nil {
			return fmt.Errorf("insert feature %d: %w", i, err)
		}
	}
	return nil
}

// GetByID загружает слой и его объекты по порядку
func (r *layerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Layer, error) {
	var crs string
	err := r.db.GetContext(ctx, &crs, `SELECT crs FROM layers WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrLayerNotFound.WithDetails(map[string]interface{}{"layer_id": id.String()})
	}
	if err != nil {
		r.logger.Error("Failed to get layer", zap.String("layer_id", id.String()), zap.Error(err))
		return nil, errors.ErrDatabaseError.Wrap(err)
	}

	var rows []featureRow
	err = r.db.SelectContext(ctx, &rows, `
		SELECT ST_AsBinary(geom) AS geom, properties
		FROM layer_features
		WHERE layer_id = $1
		ORDER BY ordinal
	`, id)
	if err != nil {
		r.logger.Error("Failed to get layer features", zap.String("layer_id", id.String()), zap.Error(err))
		return nil, errors.ErrDatabaseError.Wrap(err)
	}

	layer := &domain.Layer{CRS: crs, Features: make([]domain.Feature, len(rows))}
	for i, row := range rows {
		g, err := wkb.Unmarshal(row.Geom)
		if err != nil {
			return nil, errors.ErrGeometry.WithMessage("decode feature %d of layer %s", i, id).Wrap(err)
		}
		props := map[string]interface{}{}
		if len(row.Properties) > 0 {
			if err := json.Unmarshal(row.Properties, &props); err != nil {
				return nil, errors.ErrDatabaseError.Wrap(err)
			}
		}
		layer.Features[i] = domain.Feature{Geometry: g, Properties: props}
	}

	return layer, nil
}

// GetInfo возвращает метаданные слоя вместе со списком атрибутов
func (r *layerRepository) GetInfo(ctx context.Context, id uuid.UUID) (*domain.LayerInfo, error) {
	var info domain.LayerInfo
	err := r.db.GetContext(ctx, &info, `
		SELECT id, name, crs, feature_count, created_at
		FROM layers
		WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrLayerNotFound.WithDetails(map[string]interface{}{"layer_id": id.String()})
	}
	if err != nil {
		r.logger.Error("Failed to get layer info", zap.String("layer_id", id.String()), zap.Error(err))
		return nil, errors.ErrDatabaseError.Wrap(err)
	}

	err = r.db.SelectContext(ctx, &info.Fields, `
		SELECT DISTINCT jsonb_object_keys(properties) AS field
		FROM layer_features
		WHERE layer_id = $1
		ORDER BY field
	`, id)
	if err != nil {
		r.logger.Error("Failed to get layer fields", zap.String("layer_id", id.String()), zap.Error(err))
		return nil, errors.ErrDatabaseError.Wrap(err)
	}

	return &info, nil
}

// List возвращает страницу слоев, новые первыми
func (r *layerRepository) List(ctx context.Context, limit, offset int) ([]domain.LayerInfo, int, error) {
	limit, offset = normalizeLimit(limit, offset)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM layers`); err != nil {
		r.logger.Error("Failed to count layers", zap.Error(err))
		return nil, 0, errors.ErrDatabaseError.Wrap(err)
	}

	infos := []domain.LayerInfo{}
	err := r.db.SelectContext(ctx, &infos, `
		SELECT id, name, crs, feature_count, created_at
		FROM layers
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list layers", zap.Error(err))
		return nil, 0, errors.ErrDatabaseError.Wrap(err)
	}

	return infos, total, nil
}

// Delete удаляет слой; объекты удаляются каскадно
func (r *layerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM layers WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete layer", zap.String("layer_id", id.String()), zap.Error(err))
		return errors.ErrDatabaseError.Wrap(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.ErrDatabaseError.Wrap(err)
	}
	if n == 0 {
		return errors.ErrLayerNotFound.WithDetails(map[string]interface{}{"layer_id": id.String()})
	}
	return nil
}
