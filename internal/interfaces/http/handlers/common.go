// Package handlers implements the REST handlers for the dashboard API. Each
// resource gets a handler struct that wraps its application service and a
// Register method that mounts its routes on a gin router group.
package handlers

import (
	stderrors "errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ecometric/esg-dashboard/pkg/errors"
)

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError maps err to an HTTP status via its error code and writes the
// error body. Non-AppError values become a generic 500.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	resp := ErrorResponse{
		Code:    code.String(),
		Message: errors.DefaultMessageForCode(code),
	}

	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		resp.Message = ae.Message
		if errors.IsClientError(code) {
			resp.Detail = ae.Detail
		}
	}

	c.Error(err)
	c.AbortWithStatusJSON(errors.HTTPStatusForCode(code), resp)
}

// respondBindError converts a JSON binding failure into a validation error.
func respondBindError(c *gin.Context, err error) {
	respondError(c, errors.NewValidation("invalid request body").WithDetail(err.Error()).WithCause(err))
}

// intQuery parses an integer query parameter, falling back to def when the
// parameter is absent. A malformed value reports an error on the context.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondError(c, errors.InvalidParam("query parameter "+name+" must be an integer"))
		return 0, false
	}
	return v, true
}

// deletedResponse is the body for successful deletes.
func deletedResponse(id string) gin.H {
	return gin.H{"deleted": true, "id": id}
}
