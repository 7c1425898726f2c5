// README: Operator handlers exposing circuit breaker state.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kwenda/internal/breaker"
)

type BreakerAdmin interface {
	Snapshots() []breaker.Snapshot
	Reset(name string) bool
}

type BreakerHandler struct {
	breakers BreakerAdmin
}

func NewBreakerHandler(b BreakerAdmin) *BreakerHandler {
	return &BreakerHandler{breakers: b}
}

func (h *BreakerHandler) List(c *gin.Context) {
	writeJSON(c, http.StatusOK, map[string]any{"breakers": h.breakers.Snapshots()})
}

func (h *BreakerHandler) Reset(c *gin.Context) {
	name := c.Param("name")
	if !h.breakers.Reset(name) {
		writeError(c, http.StatusNotFound, "unknown breaker "+name)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"name": name, "state": breaker.StateClosed})
}
