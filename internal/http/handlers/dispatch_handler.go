// README: Dispatch handlers: start a dispatch, rank candidates offline, pickup ETA.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kwenda/internal/modules/matching"
	"kwenda/internal/types"
)

// Dispatcher is the part of matching.Service used over HTTP.
type Dispatcher interface {
	Dispatch(ctx context.Context, req matching.DispatchRequest) (matching.DispatchResult, error)
	Accept(ctx context.Context, bookingID, driverID types.ID) error
	Rank(drivers []matching.DriverCandidate, rctx matching.RankingContext, qualifiedOnly bool) []matching.RankedDriver
	RouteETA(ctx context.Context, from, to types.Point) (matching.ETAResult, error)
	LocalHour(t time.Time) int
}

type DispatchHandler struct {
	matching Dispatcher
	now      func() time.Time
}

func NewDispatchHandler(svc Dispatcher) *DispatchHandler {
	return &DispatchHandler{matching: svc, now: time.Now}
}

func (h *DispatchHandler) Dispatch(c *gin.Context) {
	var req matching.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if !isValidID(string(req.BookingID)) {
		writeError(c, http.StatusBadRequest, "invalid booking_id")
		return
	}
	res, err := h.matching.Dispatch(c.Request.Context(), req)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusAccepted, res)
}

type rankRequest struct {
	Drivers       []matching.DriverCandidate `json:"drivers"`
	Pickup        types.Point                `json:"pickup"`
	Destination   *types.Point               `json:"destination,omitempty"`
	Priority      matching.Priority          `json:"priority"`
	Hour          *int                       `json:"hour,omitempty"`
	QualifiedOnly bool                       `json:"qualified_only"`
}

type rankResponse struct {
	Ranked []matching.RankedDriver `json:"ranked"`
	Best   *matching.RankedDriver  `json:"best"`
}

// Rank scores a caller-supplied candidate list. Hour defaults to the current
// local hour.
func (h *DispatchHandler) Rank(c *gin.Context) {
	var req rankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	hour := h.matching.LocalHour(h.now())
	if req.Hour != nil {
		if *req.Hour < 0 || *req.Hour > 23 {
			writeError(c, http.StatusBadRequest, "hour must be 0..23")
			return
		}
		hour = *req.Hour
	}
	switch req.Priority {
	case "":
		req.Priority = matching.PriorityNormal
	case matching.PriorityLow, matching.PriorityNormal, matching.PriorityHigh:
	default:
		writeError(c, http.StatusBadRequest, "unknown priority")
		return
	}
	ranked := h.matching.Rank(req.Drivers, matching.RankingContext{
		Pickup:      req.Pickup,
		Destination: req.Destination,
		Priority:    req.Priority,
		TimeOfDay:   hour,
	}, req.QualifiedOnly)

	resp := rankResponse{Ranked: ranked}
	if len(ranked) > 0 {
		resp.Best = &ranked[0]
	}
	writeJSON(c, http.StatusOK, resp)
}

// ETA serves GET /api/eta?from=lat,lng&to=lat,lng.
func (h *DispatchHandler) ETA(c *gin.Context) {
	from, ok := parsePoint(c.Query("from"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid from")
		return
	}
	to, ok := parsePoint(c.Query("to"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid to")
		return
	}
	res, err := h.matching.RouteETA(c.Request.Context(), from, to)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}
