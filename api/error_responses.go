package api

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pombredanne/annographix/internal/errors"
)

// respondWithError maps an application error to an HTTP status code.
// Not-found lookups become 404, conflicts 409, malformed queries and inputs
// 400, schema misconfiguration 422; anything else is a server error.
func respondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case stderrors.Is(err, errors.ErrIndexNotFound), stderrors.Is(err, errors.ErrDocumentNotFound):
		status = http.StatusNotFound
	case stderrors.Is(err, errors.ErrIndexAlreadyExists):
		status = http.StatusConflict
	case stderrors.Is(err, errors.ErrSyntax), stderrors.Is(err, errors.ErrInvalidInput):
		status = http.StatusBadRequest
	case stderrors.Is(err, errors.ErrSchema):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
