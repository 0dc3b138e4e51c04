package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// ErrorHandler renders every handler error as a models.ErrorResponse.
// CustomError carries its own status; echo errors keep theirs; anything else is a 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := models.ErrorResponse{
		RequestID: GetRequestID(c),
		Timestamp: time.Now(),
	}
	status := http.StatusInternalServerError

	var he *echo.HTTPError
	if ce, ok := utils.AsCustomError(err); ok {
		status = ce.Code
		resp.Error = ce.Reason
		resp.Message = ce.Error()
		resp.Field = ce.Field
		resp.Allowed = ce.Allowed
	} else if errors.As(err, &he) {
		status = he.Code
		resp.Error = http.StatusText(he.Code)
		resp.Message = fmt.Sprint(he.Message)
	} else {
		resp.Error = utils.ReasonInternal
		resp.Message = "Internal server error"
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, resp)
	}
	if writeErr != nil {
		c.Logger().Error(writeErr)
	}
}
