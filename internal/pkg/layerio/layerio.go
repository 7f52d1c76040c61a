// Package layerio читает и пишет слои в формате GeoJSON.
package layerio

import (
	"fmt"

	"github.com/paulmach/orb/geojson"
	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/pkg/errors"
	"github.com/spatial-summarize/internal/pkg/geometry"
	"github.com/spatial-summarize/internal/pkg/projection"
)

// DefaultCRS - CRS по умолчанию для GeoJSON (RFC 7946)
const DefaultCRS = projection.WGS84

// Decode разбирает FeatureCollection в слой.
// CRS берется из аргумента, затем из устаревшего члена "crs", затем DefaultCRS.
func Decode(data []byte, crs string) (*domain.Layer, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.ErrInvalidLayer.WithMessage("invalid GeoJSON: %v", err).Wrap(err)
	}
	return FromFeatureCollection(fc, crs)
}

// FromFeatureCollection преобразует разобранную FeatureCollection в слой
func FromFeatureCollection(fc *geojson.FeatureCollection, crs string) (*domain.Layer, error) {
	if crs == "" {
		crs = crsMember(fc.ExtraMembers)
	}
	if crs == "" {
		crs = DefaultCRS
	}

	code, err := projection.Normalize(crs)
	if err != nil {
		return nil, errors.ErrGeometry.WithMessage("invalid CRS %q", crs).Wrap(err)
	}

	layer := &domain.Layer{CRS: code, Features: make([]domain.Feature, 0, len(fc.Features))}
	for i, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			return nil, errors.ErrInvalidLayer.WithMessage("feature %d has no geometry", i)
		}
		if !geometry.IsPolygonal(f.Geometry) {
			return nil, errors.ErrInvalidLayer.
				WithMessage("feature %d: expected Polygon or MultiPolygon, got %s", i, f.Geometry.GeoJSONType())
		}

		props := make(map[string]interface{}, len(f.Properties))
		for k, v := range f.Properties {
			props[k] = v
		}
		layer.Features = append(layer.Features, domain.Feature{Geometry: f.Geometry, Properties: props})
	}

	return layer, nil
}

// ToFeatureCollection преобразует слой в FeatureCollection
func ToFeatureCollection(layer *domain.Layer) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range layer.Features {
		gf := geojson.NewFeature(f.Geometry)
		for k, v := range f.Properties {
			gf.Properties[k] = v
		}
		fc.Append(gf)
	}

	if layer.CRS != "" && !projection.Same(layer.CRS, DefaultCRS) {
		fc.ExtraMembers = geojson.Properties{
			"crs": map[string]interface{}{
				"type":       "name",
				"properties": map[string]interface{}{"name": ogcURN(layer.CRS)},
			},
		}
	}
	return fc
}

// Encode сериализует слой в GeoJSON
func Encode(layer *domain.Layer) ([]byte, error) {
	data, err := ToFeatureCollection(layer).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal feature collection: %w", err)
	}
	return data, nil
}

func crsMember(extra geojson.Properties) string {
	raw, ok := extra["crs"].(map[string]interface{})
	if !ok {
		return ""
	}
	props, ok := raw["properties"].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := props["name"].(string)
	return name
}

func ogcURN(crs string) string {
	code, err := projection.Normalize(crs)
	if err != nil {
		return crs
	}
	return "urn:ogc:def:crs:EPSG::" + code[len("EPSG:"):]
}
