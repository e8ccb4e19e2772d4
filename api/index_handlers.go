package api

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/pombredanne/annographix/config"
)

// CreateIndexHandler handles the request to create a new index.
// Request Body: config.IndexSettings
func (api *API) CreateIndexHandler(c *gin.Context) {
	var settings config.IndexSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if settings.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Index name is required"})
		return
	}

	if err := api.engine.CreateIndex(settings); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Index created", "name": settings.Name})
}

// ListIndexesHandler lists the names of all indexes.
func (api *API) ListIndexesHandler(c *gin.Context) {
	names := api.engine.ListIndexes()
	sort.Strings(names)
	c.JSON(http.StatusOK, gin.H{"indexes": names})
}

// GetIndexHandler returns the settings of one index. The indexing client
// reads these to validate the schema attributes before submitting documents.
func (api *API) GetIndexHandler(c *gin.Context) {
	settings, err := api.engine.GetIndexSettings(c.Param("indexName"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// DeleteIndexHandler deletes an index and its data.
func (api *API) DeleteIndexHandler(c *gin.Context) {
	if err := api.engine.DeleteIndex(c.Param("indexName")); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Index deleted"})
}

// GetIndexStatsHandler returns document and term counts of one index.
func (api *API) GetIndexStatsHandler(c *gin.Context) {
	accessor, err := api.engine.GetIndex(c.Param("indexName"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, accessor.Stats())
}

// PersistIndexHandler flushes an index to disk.
func (api *API) PersistIndexHandler(c *gin.Context) {
	if err := api.engine.PersistIndexData(c.Param("indexName")); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Index persisted"})
}
