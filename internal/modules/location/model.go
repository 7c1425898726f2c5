// README: Driver position updates and the liveness state kept alongside the GEO index.
package location

import (
	"errors"
	"time"

	"kwenda/internal/types"
)

var ErrBadRequest = errors.New("bad request")

// DriverUpdate is one position ping from the driver app. TsMs is the device
// timestamp in milliseconds; zero means "now".
type DriverUpdate struct {
	DriverID     types.ID    `json:"driver_id"`
	Seq          int64       `json:"seq"`
	Point        types.Point `json:"point"`
	TsMs         int64       `json:"ts_ms"`
	Online       bool        `json:"online"`
	Available    bool        `json:"available"`
	VehicleClass string      `json:"vehicle_class,omitempty"`
}

func (u DriverUpdate) Time() time.Time {
	return time.UnixMilli(u.TsMs)
}

type RejectReason string

const (
	ReasonStale     RejectReason = "stale"
	ReasonThrottled RejectReason = "throttled"
)

type UpdateResult struct {
	Accepted bool         `json:"accepted"`
	Reason   RejectReason `json:"reason,omitempty"`
}
