package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pombredanne/annographix/model"
)

// AddDocumentsHandler indexes a batch of annotated documents.
// Request Body: []model.AnnotatedDocument
func (api *API) AddDocumentsHandler(c *gin.Context) {
	accessor, err := api.engine.GetIndex(c.Param("indexName"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	var docs []model.AnnotatedDocument
	if err := c.ShouldBindJSON(&docs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if len(docs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must contain at least one document"})
		return
	}

	if err := accessor.AddDocuments(docs); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Documents indexed", "count": len(docs)})
}

// GetDocumentHandler returns one stored document by its doc number.
func (api *API) GetDocumentHandler(c *gin.Context) {
	accessor, err := api.engine.GetIndex(c.Param("indexName"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	doc, err := accessor.GetDocument(c.Param("docNo"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DeleteAllDocumentsHandler drops every document of an index.
func (api *API) DeleteAllDocumentsHandler(c *gin.Context) {
	accessor, err := api.engine.GetIndex(c.Param("indexName"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := accessor.DeleteAllDocuments(); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All documents deleted"})
}
