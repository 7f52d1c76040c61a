package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/delivery/http/handler"
	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/pkg/errors"
	"github.com/spatial-summarize/internal/usecase/dto"
)

type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) Summarize(ctx context.Context, req dto.SummarizeRequest) (*dto.SummarizeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SummarizeResponse), args.Error(1)
}

type MockLayerService struct {
	mock.Mock
}

func (m *MockLayerService) Create(ctx context.Context, req dto.CreateLayerRequest) (*domain.LayerInfo, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LayerInfo), args.Error(1)
}

func (m *MockLayerService) List(ctx context.Context, req dto.ListLayersRequest) (*dto.LayerListResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.LayerListResponse), args.Error(1)
}

func (m *MockLayerService) GetInfo(ctx context.Context, id uuid.UUID) (*domain.LayerInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LayerInfo), args.Error(1)
}

func (m *MockLayerService) Export(ctx context.Context, id uuid.UUID) ([]byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockLayerService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockJobService struct {
	mock.Mock
}

func (m *MockJobService) Submit(ctx context.Context, req dto.SubmitJobRequest) (*dto.JobResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.JobResponse), args.Error(1)
}

func (m *MockJobService) Get(ctx context.Context, id uuid.UUID) (*dto.JobResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.JobResponse), args.Error(1)
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func errorCode(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	e, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "response has no error object: %v", body)
	return e["code"].(string)
}

func TestSummarizeHandler(t *testing.T) {
	uc := &MockSummarizer{}
	app := fiber.New()
	app.Post("/summarize/:statistic", handler.NewSummarizeHandler(uc, zap.NewNop()).Summarize)

	result := json.RawMessage(`{"type":"FeatureCollection","features":[]}`)
	uc.On("Summarize", mock.Anything, mock.MatchedBy(func(r dto.SummarizeRequest) bool {
		return r.Statistic == "sum" && r.Key == "id" && len(r.Zones.GeoJSON) > 0
	})).Return(&dto.SummarizeResponse{
		Result: result,
		Meta:   dto.SummaryMeta{Statistic: "sum", ZoneCount: 3, FragmentCount: 5},
	}, nil)
	uc.On("Summarize", mock.Anything, mock.MatchedBy(func(r dto.SummarizeRequest) bool {
		return r.Statistic == "median"
	})).Return(nil, errors.ErrConfiguration.WithMessage("unsupported statistic"))

	body := map[string]interface{}{
		"zones":   map[string]interface{}{"geojson": result},
		"sources": map[string]interface{}{"geojson": result},
		"columns": []string{"pop"},
		"key":     "id",
	}

	t.Run("success", func(t *testing.T) {
		resp, out := doJSON(t, app, http.MethodPost, "/summarize/sum", body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		data := out["data"].(map[string]interface{})
		assert.Equal(t, "FeatureCollection", data["result"].(map[string]interface{})["type"])
		meta := out["meta"].(map[string]interface{})
		assert.Equal(t, 3.0, meta["total"])
		assert.Equal(t, 5.0, meta["fragment_count"])
	})

	t.Run("raw geojson", func(t *testing.T) {
		resp, out := doJSON(t, app, http.MethodPost, "/summarize/sum?format=geojson", body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))
		assert.Equal(t, "FeatureCollection", out["type"])
	})

	t.Run("usecase error", func(t *testing.T) {
		resp, out := doJSON(t, app, http.MethodPost, "/summarize/median", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "CONFIGURATION_ERROR", errorCode(t, out))
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, out := doJSON(t, app, http.MethodPost, "/summarize/sum", `{"zones":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_REQUEST", errorCode(t, out))
	})
}

func TestLayerHandler(t *testing.T) {
	uc := &MockLayerService{}
	h := handler.NewLayerHandler(uc, zap.NewNop())
	app := fiber.New()
	app.Post("/layers", h.Create)
	app.Get("/layers", h.List)
	app.Get("/layers/:id", h.Get)
	app.Get("/layers/:id/geojson", h.GeoJSON)
	app.Delete("/layers/:id", h.Delete)

	id := uuid.New()
	missing := uuid.New()

	t.Run("create", func(t *testing.T) {
		uc.On("Create", mock.Anything, mock.MatchedBy(func(r dto.CreateLayerRequest) bool {
			return r.Name == "zones"
		})).Return(&domain.LayerInfo{ID: id, Name: "zones", FeatureCount: 2}, nil).Once()

		resp, out := doJSON(t, app, http.MethodPost, "/layers", map[string]interface{}{
			"name":    "zones",
			"geojson": map[string]interface{}{"type": "FeatureCollection", "features": []interface{}{}},
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, id.String(), out["data"].(map[string]interface{})["id"])
	})

	t.Run("list", func(t *testing.T) {
		uc.On("List", mock.Anything, dto.ListLayersRequest{Limit: 5, Offset: 10}).
			Return(&dto.LayerListResponse{Layers: []domain.LayerInfo{{ID: id}}, Total: 11, Limit: 5, Offset: 10}, nil).Once()

		resp, out := doJSON(t, app, http.MethodGet, "/layers?limit=5&offset=10", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, out["data"], 1)
		assert.Equal(t, 11.0, out["meta"].(map[string]interface{})["total"])
	})

	t.Run("get", func(t *testing.T) {
		uc.On("GetInfo", mock.Anything, id).Return(&domain.LayerInfo{ID: id, Name: "zones"}, nil).Once()
		uc.On("GetInfo", mock.Anything, missing).Return(nil, errors.ErrLayerNotFound).Once()

		resp, _ := doJSON(t, app, http.MethodGet, "/layers/"+id.String(), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, out := doJSON(t, app, http.MethodGet, "/layers/"+missing.String(), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "LAYER_NOT_FOUND", errorCode(t, out))
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, out := doJSON(t, app, http.MethodGet, "/layers/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_REQUEST", errorCode(t, out))
	})

	t.Run("geojson", func(t *testing.T) {
		uc.On("Export", mock.Anything, id).Return([]byte(`{"type":"FeatureCollection","features":[]}`), nil).Once()

		resp, out := doJSON(t, app, http.MethodGet, "/layers/"+id.String()+"/geojson", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))
		assert.Equal(t, "FeatureCollection", out["type"])
	})

	t.Run("delete", func(t *testing.T) {
		uc.On("Delete", mock.Anything, id).Return(nil).Once()

		resp, _ := doJSON(t, app, http.MethodDelete, "/layers/"+id.String(), nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	uc.AssertExpectations(t)
}

func TestJobHandler(t *testing.T) {
	uc := &MockJobService{}
	h := handler.NewJobHandler(uc, zap.NewNop())
	app := fiber.New()
	app.Post("/jobs", h.Submit)
	app.Get("/jobs/:id", h.Get)

	id := uuid.New()
	uc.On("Submit", mock.Anything, mock.Anything).
		Return(&dto.JobResponse{ID: id, Status: domain.JobStatusPending}, nil).Once()
	uc.On("Get", mock.Anything, id).
		Return(&dto.JobResponse{ID: id, Status: domain.JobStatusDone}, nil).Once()

	resp, out := doJSON(t, app, http.MethodPost, "/jobs", map[string]interface{}{
		"statistic":       "sum",
		"zone_layer_id":   uuid.New(),
		"source_layer_id": uuid.New(),
		"columns":         []string{"pop"},
		"key":             "id",
	})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "/api/v1/jobs/"+id.String(), resp.Header.Get("Location"))
	assert.Equal(t, "pending", out["data"].(map[string]interface{})["status"])

	resp, out = doJSON(t, app, http.MethodGet, "/jobs/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "done", out["data"].(map[string]interface{})["status"])

	uc.AssertExpectations(t)
}

type fakeCheck struct{ err error }

func (f fakeCheck) Health(context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", handler.NewHealthHandler(map[string]handler.HealthChecker{
			"postgres": fakeCheck{},
			"redis":    fakeCheck{},
		}, zap.NewNop()).Health)

		resp, out := doJSON(t, app, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "healthy", out["status"])
	})

	t.Run("unhealthy dependency", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", handler.NewHealthHandler(map[string]handler.HealthChecker{
			"redis": fakeCheck{err: assert.AnError},
		}, zap.NewNop()).Health)

		resp, out := doJSON(t, app, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "unhealthy", out["status"])
	})
}
