package usecase_test

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/overlay"
	"github.com/spatial-summarize/internal/pkg/layerio"
	"github.com/spatial-summarize/internal/usecase"
)

const metricCRS = "EPSG:6933"

func rect(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}}
}

// Two adjacent 1x1 km zones
func testZones() *domain.Layer {
	return &domain.Layer{CRS: metricCRS, Features: []domain.Feature{
		{Geometry: rect(0, 0, 1000, 1000), Properties: map[string]interface{}{"id": "Z1"}},
		{Geometry: rect(1000, 0, 2000, 1000), Properties: map[string]interface{}{"id": "Z2"}},
	}}
}

// One source straddling both zones evenly
func testSources() *domain.Layer {
	return &domain.Layer{CRS: metricCRS, Features: []domain.Feature{
		{Geometry: rect(500, 0, 1500, 1000), Properties: map[string]interface{}{"pop": 100.0}},
	}}
}

func mustEncode(t *testing.T, layer *domain.Layer) json.RawMessage {
	t.Helper()
	data, err := layerio.Encode(layer)
	require.NoError(t, err)
	return data
}

// resultByKey decodes a result FeatureCollection into properties keyed by "id"
func resultByKey(t *testing.T, data json.RawMessage) map[string]map[string]interface{} {
	t.Helper()
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)

	out := make(map[string]map[string]interface{}, len(fc.Features))
	for _, f := range fc.Features {
		out[f.Properties["id"].(string)] = f.Properties
	}
	return out
}

type testDeps struct {
	layers *MockLayerRepository
	cache  *MockCacheRepository
	jobs   *MockJobRepository
	stream *MockStreamRepository

	layerUC     *usecase.LayerUseCase
	summarizeUC *usecase.SummarizeUseCase
	jobUC       *usecase.JobUseCase
}

func newTestDeps(maxFeatures int) *testDeps {
	logger := zap.NewNop()
	d := &testDeps{
		layers: &MockLayerRepository{},
		cache:  &MockCacheRepository{},
		jobs:   &MockJobRepository{},
		stream: &MockStreamRepository{},
	}
	d.layerUC = usecase.NewLayerUseCase(d.layers, d.cache, 0, maxFeatures, logger)
	summarizeUC, err := usecase.NewSummarizeUseCase(overlay.DefaultConfig(), d.layerUC, d.cache, 0, maxFeatures, logger)
	if err != nil {
		panic(err)
	}
	d.summarizeUC = summarizeUC
	d.jobUC = usecase.NewJobUseCase(d.jobs, d.stream, d.layerUC, d.summarizeUC, logger)
	return d
}

func (d *testDeps) assertExpectations(t *testing.T) {
	d.layers.AssertExpectations(t)
	d.cache.AssertExpectations(t)
	d.jobs.AssertExpectations(t)
	d.stream.AssertExpectations(t)
}
