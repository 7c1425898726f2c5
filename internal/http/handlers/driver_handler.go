// README: Driver handlers: accept a dispatched booking.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kwenda/internal/http/middleware"
	"kwenda/internal/types"
)

type DriverHandler struct {
	matching Dispatcher
}

func NewDriverHandler(svc Dispatcher) *DriverHandler {
	return &DriverHandler{matching: svc}
}

// Accept claims the booking for the authenticated driver.
func (h *DriverHandler) Accept(c *gin.Context) {
	booking := c.Param("booking")
	if !isValidID(booking) {
		writeError(c, http.StatusBadRequest, "invalid booking id")
		return
	}
	driverID := middleware.CallerUID(c)
	if driverID == "" {
		writeError(c, http.StatusUnauthorized, "unauthenticated")
		return
	}
	if err := h.matching.Accept(c.Request.Context(), types.ID(booking), types.ID(driverID)); err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"booking_id": booking, "driver_id": driverID, "status": "accepted"})
}
