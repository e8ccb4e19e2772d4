package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pombredanne/annographix/config"
	"github.com/pombredanne/annographix/internal/engine"
	"github.com/pombredanne/annographix/model"
	"github.com/pombredanne/annographix/services"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	SetupRoutes(router, engine.NewEngine(t.TempDir()))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
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
	router.ServeHTTP(w, req)
	return w
}

func createTestIndex(t *testing.T, router *gin.Engine, name string) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/indexes", config.IndexSettings{Name: name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "annographix_")
}

func TestCreateListGetDeleteIndex(t *testing.T) {
	router := setupTestRouter(t)
	createTestIndex(t, router, "docs")

	w := doJSON(t, router, http.MethodGet, "/indexes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "docs")

	w = doJSON(t, router, http.MethodGet, "/indexes/docs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings config.IndexSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
	assert.Equal(t, config.DefaultTextField, settings.TextField.Name)
	assert.Equal(t, config.TokenizerWhitespace, settings.AnnotField.Tokenizer)

	w = doJSON(t, router, http.MethodDelete, "/indexes/docs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/indexes/docs", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateIndexConflicts(t *testing.T) {
	router := setupTestRouter(t)
	createTestIndex(t, router, "docs")

	w := doJSON(t, router, http.MethodPost, "/indexes", config.IndexSettings{Name: "docs"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateIndexBadSchema(t *testing.T) {
	router := setupTestRouter(t)

	settings := config.IndexSettings{Name: "docs"}
	settings.ApplyDefaults()
	settings.AnnotField.Tokenizer = "standard"

	w := doJSON(t, router, http.MethodPost, "/indexes", settings)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAddDocumentsAndSearch(t *testing.T) {
	router := setupTestRouter(t)
	createTestIndex(t, router, "docs")

	docs := []model.AnnotatedDocument{
		{
			DocNo: "d1",
			Text:  "the cat sat here",
			Annotations: []model.AnnotationEntry{
				{AnnotID: 5, Label: "sent", StartChar: 0, CharLen: 11},
			},
		},
		{DocNo: "d2", Text: "cat elsewhere"},
	}
	w := doJSON(t, router, http.MethodPut, "/indexes/docs/documents", docs)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	query := services.SearchQuery{Query: "@s:sent ~w:cat #contains(s,w)", IncludeSpans: true}
	w = doJSON(t, router, http.MethodPost, "/indexes/docs/_search", query)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result services.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "d1", result.Hits[0].DocNo)
	assert.Len(t, result.Hits[0].Spans, 2)
	assert.NotEmpty(t, result.QueryID)
}

func TestSearchSyntaxErrorReturns400(t *testing.T) {
	router := setupTestRouter(t)
	createTestIndex(t, router, "docs")

	w := doJSON(t, router, http.MethodPost, "/indexes/docs/_search",
		services.SearchQuery{Query: "@a:x #bogus(a,a)"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchMissingIndexReturns404(t *testing.T) {
	router := setupTestRouter(t)
	w := doJSON(t, router, http.MethodPost, "/indexes/none/_search",
		services.SearchQuery{Query: "~w:cat"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetDocument(t *testing.T) {
	router := setupTestRouter(t)
	createTestIndex(t, router, "docs")

	docs := []model.AnnotatedDocument{{DocNo: "d1", Text: "cat"}}
	w := doJSON(t, router, http.MethodPut, "/indexes/docs/documents", docs)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/indexes/docs/documents/d1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var doc model.AnnotatedDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "cat", doc.Text)

	w = doJSON(t, router, http.MethodGet, "/indexes/docs/documents/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAllDocuments(t *testing.T) {
	router := setupTestRouter(t)
	createTestIndex(t, router, "docs")

	docs := []model.AnnotatedDocument{{DocNo: "d1", Text: "cat"}}
	w := doJSON(t, router, http.MethodPut, "/indexes/docs/documents", docs)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/indexes/docs/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/indexes/docs/_search",
		services.SearchQuery{Query: "~w:cat"})
	require.Equal(t, http.StatusOK, w.Code)
	var result services.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Empty(t, result.Hits)
}

func TestIndexStats(t *testing.T) {
	router := setupTestRouter(t)
	createTestIndex(t, router, "docs")

	docs := []model.AnnotatedDocument{
		{
			DocNo: "d1",
			Text:  "cat dog",
			Annotations: []model.AnnotationEntry{
				{AnnotID: 1, Label: "np", StartChar: 0, CharLen: 3},
			},
		},
	}
	w := doJSON(t, router, http.MethodPut, "/indexes/docs/documents", docs)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/indexes/docs/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats services.IndexStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.DocumentCount)
	assert.Equal(t, uint64(1), stats.DocIDCardinality)
	assert.Equal(t, 2, stats.TextTermCount)
	assert.Equal(t, 1, stats.AnnotTermCount)
}
