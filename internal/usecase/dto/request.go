package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// LayerInput - слой из хранилища (layer_id) или переданный в запросе GeoJSON
type LayerInput struct {
	LayerID *uuid.UUID      `json:"layer_id,omitempty"`
	GeoJSON json.RawMessage `json:"geojson,omitempty" swaggertype:"object"`
	// CRS переопределяет CRS переданного GeoJSON
	CRS string `json:"crs,omitempty" validate:"omitempty,crs"`
}

// IsStored сообщает, ссылается ли вход на сохраненный слой
func (in LayerInput) IsStored() bool {
	return in.LayerID != nil
}

// SummarizeRequest - запрос на синхронное суммирование
type SummarizeRequest struct {
	Statistic string     `json:"-" validate:"required,statistic"` // из пути
	Zones     LayerInput `json:"zones"`
	Sources   LayerInput `json:"sources"`
	Columns   []string   `json:"columns" validate:"required,min=1,max=50,dive,required"`
	Key       string     `json:"key" validate:"required"`
	JoinType  string     `json:"join_type,omitempty" validate:"omitempty,jointype"`
}

// CreateLayerRequest - загрузка слоя в хранилище
type CreateLayerRequest struct {
	Name    string          `json:"name" validate:"required,min=1,max=200"`
	CRS     string          `json:"crs,omitempty" validate:"omitempty,crs"`
	GeoJSON json.RawMessage `json:"geojson" validate:"required" swaggertype:"object"`
}

// ListLayersRequest - постраничный список слоев
type ListLayersRequest struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=1000"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

// SubmitJobRequest - постановка асинхронной задачи по сохраненным слоям
type SubmitJobRequest struct {
	Statistic     string    `json:"statistic" validate:"required,statistic"`
	ZoneLayerID   uuid.UUID `json:"zone_layer_id" validate:"required"`
	SourceLayerID uuid.UUID `json:"source_layer_id" validate:"required"`
	Columns       []string  `json:"columns" validate:"required,min=1,max=50,dive,required"`
	Key           string    `json:"key" validate:"required"`
	JoinType      string    `json:"join_type,omitempty" validate:"omitempty,jointype"`
}
