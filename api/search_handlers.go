package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pombredanne/annographix/services"
)

// SearchHandler executes one structured query against an index.
// Request Body: services.SearchQuery
func (api *API) SearchHandler(c *gin.Context) {
	accessor, err := api.engine.GetIndex(c.Param("indexName"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query services.SearchQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if query.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query string is required"})
		return
	}

	result, err := accessor.Search(query)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
