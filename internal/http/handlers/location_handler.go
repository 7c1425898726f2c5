// README: Location handlers: driver position pings.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"kwenda/internal/http/middleware"
	"kwenda/internal/modules/location"
	"kwenda/internal/types"
)

type LocationUpdater interface {
	UpdateDriverLocation(ctx context.Context, u location.DriverUpdate) (location.UpdateResult, error)
}

type LocationHandler struct {
	location LocationUpdater
}

func NewLocationHandler(svc LocationUpdater) *LocationHandler {
	return &LocationHandler{location: svc}
}

func (h *LocationHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid driver id")
		return
	}
	// Only the authenticated driver may update their own location.
	if middleware.CallerRole(c) != "driver" {
		writeError(c, http.StatusForbidden, "forbidden: driver role required")
		return
	}
	if middleware.CallerUID(c) != id {
		writeError(c, http.StatusForbidden, "forbidden: id does not match authenticated user")
		return
	}

	var u location.DriverUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		writeError(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	u.DriverID = types.ID(id)

	res, err := h.location.UpdateDriverLocation(c.Request.Context(), u)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}
