package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/logger"
)

// List is the body of collection endpoints.
type List[T any] struct {
	Data []T      `json:"data"`
	Meta ListMeta `json:"meta"`
}

// ListMeta says how much of the collection Data holds.
type ListMeta struct {
	Total    int `json:"total"`
	Returned int `json:"returned"`
}

// RespondOK answers 200 with body as JSON.
func RespondOK(c *gin.Context, body any) { c.JSON(http.StatusOK, body) }

// RespondList answers 200 with page out of a collection of total items.
func RespondList[T any](c *gin.Context, page []T, total int) {
	if page == nil {
		page = []T{}
	}
	c.JSON(http.StatusOK, List[T]{Data: page, Meta: ListMeta{Total: total, Returned: len(page)}})
}

// RespondWithError answers with the AppError in err's chain, or a 500.
// Server-side failures are logged with the request ID.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Get("http").WithContext(c.Request.Context()).
			Error("request failed", logger.ErrorFields(c.FullPath(), err))
	}
	c.JSON(appErr.HTTPStatus, appErr.ToResponse())
}
