package testhelpers

import (
	"github.com/paulmach/orb"
	"github.com/spatial-summarize/internal/domain"
)

// Square returns a closed axis-aligned square polygon
func Square(x, y, size float64) orb.Polygon {
	return orb.Polygon{{{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y}}}
}

// SampleZones returns two adjacent 1x1 degree zones keyed by "id"
func SampleZones() *domain.Layer {
	return &domain.Layer{
		CRS: "EPSG:4326",
		Features: []domain.Feature{
			{Geometry: Square(0, 0, 1), Properties: map[string]interface{}{"id": "Z1", "name": "west"}},
			{Geometry: Square(1, 0, 1), Properties: map[string]interface{}{"id": "Z2", "name": "east"}},
		},
	}
}

// SampleSources returns one feature straddling both sample zones
func SampleSources() *domain.Layer {
	return &domain.Layer{
		CRS: "EPSG:4326",
		Features: []domain.Feature{
			{
				Geometry: orb.MultiPolygon{Square(0.5, 0, 1)},
				Properties: map[string]interface{}{
					"pop":    100.0,
					"income": nil,
				},
			},
		},
	}
}
