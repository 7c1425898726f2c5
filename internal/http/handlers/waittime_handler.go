// README: Wait-time handler for requesters.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"kwenda/internal/modules/waittime"
	"kwenda/internal/types"
)

type WaitTimeEstimator interface {
	Estimate(ctx context.Context, at types.Point, city string) waittime.Estimate
}

type WaitTimeHandler struct {
	estimator   WaitTimeEstimator
	defaultCity string
}

func NewWaitTimeHandler(est WaitTimeEstimator, defaultCity string) *WaitTimeHandler {
	return &WaitTimeHandler{estimator: est, defaultCity: defaultCity}
}

// Get serves GET /api/wait-time?at=lat,lng&city=kinshasa. It answers 200 even
// when the estimate is degraded.
func (h *WaitTimeHandler) Get(c *gin.Context) {
	at, ok := parsePoint(c.Query("at"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid at")
		return
	}
	city := c.DefaultQuery("city", h.defaultCity)
	writeJSON(c, http.StatusOK, h.estimator.Estimate(c.Request.Context(), at, city))
}
