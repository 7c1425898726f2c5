// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"kwenda/internal/breaker"
	"kwenda/internal/modules/location"
	"kwenda/internal/modules/matching"
	"kwenda/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts the identifiers issued by the booking and auth services:
// up to 64 letters, digits, '-' or '_'.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

// parsePoint reads "lat,lng".
func parsePoint(v string) (types.Point, bool) {
	lat, lng, ok := strings.Cut(v, ",")
	if !ok {
		return types.Point{}, false
	}
	p := types.Point{}
	var err error
	if p.Lat, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return types.Point{}, false
	}
	if p.Lng, err = strconv.ParseFloat(strings.TrimSpace(lng), 64); err != nil {
		return types.Point{}, false
	}
	return p, location.ValidPoint(p)
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeDispatchError(c *gin.Context, err error) {
	var open *breaker.OpenError
	switch {
	case errors.As(err, &open):
		c.Header("Retry-After", strconv.Itoa(int(math.Max(1, math.Ceil(open.RetryAfter.Seconds())))))
		writeError(c, http.StatusServiceUnavailable, open.Error())
	case errors.Is(err, matching.ErrBadRequest), errors.Is(err, location.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, matching.ErrNoQualifiedDrivers):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, matching.ErrNotOffered):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, matching.ErrAlreadyAccepted):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
