package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/AsaTyr2018/VisionSuit-sub004/internal/analysis/frequency"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/analysis/pixel"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/database"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/models"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/moderation"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/observability"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/repository"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/screening"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/service"
	"github.com/AsaTyr2018/VisionSuit-sub004/pkg/response"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Init(database.Config{
		Path: filepath.Join(t.TempDir(), "moderation.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zaptest.NewLogger(t)
	metrics := observability.NewMetrics()
	analyzer := pixel.NewAnalyzer(pixel.DefaultConfig())

	scheduler := screening.NewScheduler(screening.Config{
		MaxWorkers:       2,
		MaxBatchSize:     2,
		QueueSoftLimit:   8,
		QueueHardLimit:   16,
		Backoff:          time.Millisecond,
		PressureCooldown: 10 * time.Millisecond,
	}, analyzer.Analyze, log, metrics)
	t.Cleanup(scheduler.Close)

	svc := service.NewScreeningService(
		scheduler,
		repository.NewModerationRepository(db),
		moderation.Config{
			Thresholds: moderation.DefaultThresholds(),
			Packs:      frequency.DefaultKeywordPacks(),
		},
		log, metrics)

	h := NewScreeningHandler(svc)
	r := gin.New()
	r.POST("/api/v1/screening/images", h.ScreenImage)
	r.POST("/api/v1/screening/metadata", h.ScreenMetadata)
	r.GET("/api/v1/moderation/decisions/:assetId", h.GetDecision)
	r.GET("/api/v1/admin/moderation/flagged", h.ListFlagged)
	r.PUT("/api/v1/admin/moderation/decisions/:assetId/status", h.SetStatus)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeRecord(t *testing.T, w *httptest.ResponseRecorder) *models.ScreeningRecord {
	t.Helper()

	var resp struct {
		Code    int                     `json:"code"`
		Message string                  `json:"message"`
		Data    *models.ScreeningRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	return resp.Data
}

func testImageBase64(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 100, G: 100, B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestScreenImageEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/screening/images", gin.H{
		"asset_id": "asset-1",
		"title":    "grey square",
		"image":    testImageBase64(t),
	})

	require.Equal(t, http.StatusOK, w.Code)
	record := decodeRecord(t, w)
	assert.Equal(t, "asset-1", record.AssetID)
	assert.Equal(t, models.ModerationStatusPublished, record.Status)
}

func TestScreenImageEndpointRejectsBadPayloads(t *testing.T) {
	r := newTestRouter(t)

	// Missing image field fails binding.
	w := doJSON(t, r, http.MethodPost, "/api/v1/screening/images", gin.H{
		"asset_id": "asset-1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Image must be base64.
	w = doJSON(t, r, http.MethodPost, "/api/v1/screening/images", gin.H{
		"asset_id": "asset-1",
		"image":    "%%%not-base64%%%",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScreenMetadataAndModerationFlow(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/screening/metadata", gin.H{
		"asset_id": "asset-2",
		"metadata": gin.H{
			"ss_tag_frequency": gin.H{"loli": 3},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	record := decodeRecord(t, w)
	assert.Equal(t, models.ModerationStatusFlagged, record.Status)

	// The decision is retrievable.
	w = doJSON(t, r, http.MethodGet, "/api/v1/moderation/decisions/asset-2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// It shows up in the moderation queue.
	w = doJSON(t, r, http.MethodGet, "/api/v1/admin/moderation/flagged", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []*models.ScreeningRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "asset-2", list.Data[0].AssetID)

	// A moderator publishes it.
	w = doJSON(t, r, http.MethodPut, "/api/v1/admin/moderation/decisions/asset-2/status", gin.H{
		"status": models.ModerationStatusPublished,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/moderation/decisions/asset-2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ModerationStatusPublished, decodeRecord(t, w).Status)
}

func TestGetDecisionNotFound(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/moderation/decisions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
