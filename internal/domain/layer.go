package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// Feature - полигон слоя с атрибутами
type Feature struct {
	Geometry   orb.Geometry
	Properties map[string]interface{}
}

// Layer - упорядоченный набор полигонов в одной системе координат
type Layer struct {
	CRS      string
	Features []Feature
}

// NewLayer создает пустой слой в заданной CRS
func NewLayer(crs string) *Layer {
	return &Layer{CRS: crs}
}

// Len возвращает количество объектов
func (l *Layer) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Features)
}

// HasField проверяет, встречается ли атрибут хотя бы у одного объекта
func (l *Layer) HasField(name string) bool {
	for _, f := range l.Features {
		if _, ok := f.Properties[name]; ok {
			return true
		}
	}
	return false
}

// Fields возвращает отсортированное объединение имен атрибутов
func (l *Layer) Fields() []string {
	seen := make(map[string]struct{})
	for _, f := range l.Features {
		for k := range f.Properties {
			seen[k] = struct{}{}
		}
	}

	fields := make([]string, 0, len(seen))
	for k := range seen {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// Clone возвращает глубокую копию слоя
func (l *Layer) Clone() *Layer {
	out := &Layer{CRS: l.CRS, Features: make([]Feature, len(l.Features))}
	for i, f := range l.Features {
		out.Features[i] = f.Clone()
	}
	return out
}

// Clone копирует геометрию и атрибуты объекта
func (f Feature) Clone() Feature {
	var g orb.Geometry
	if f.Geometry != nil {
		g = orb.Clone(f.Geometry)
	}
	props := make(map[string]interface{}, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = v
	}
	return Feature{Geometry: g, Properties: props}
}

// LayerInfo - метаданные сохраненного слоя
type LayerInfo struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	CRS          string    `json:"crs" db:"crs"`
	FeatureCount int       `json:"feature_count" db:"feature_count"`
	Fields       []string  `json:"fields" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
