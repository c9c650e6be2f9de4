package dashboard

import (
	"net/http"
	"time"

	"github.com/huangsam/stockpulse/schema"
	"github.com/labstack/echo/v4"
)

// warmingUp is returned until the first refresh has finished.
var warmingUp = map[string]string{"status": "warming up"}

type handler struct {
	refresher *Refresher
}

// latest writes 503 when no refresh has finished; otherwise it hands the dashboard to fn.
func (h *handler) latest(c echo.Context, fn func(schema.Dashboard) any) error {
	d, ok := h.refresher.Latest()
	if !ok {
		return c.JSON(http.StatusServiceUnavailable, warmingUp)
	}
	return c.JSON(http.StatusOK, fn(d))
}

func (h *handler) getDashboard(c echo.Context) error {
	return h.latest(c, func(d schema.Dashboard) any { return d })
}

func (h *handler) getHistory(c echo.Context) error {
	return h.latest(c, func(d schema.Dashboard) any { return d.History })
}

func (h *handler) getSession(c echo.Context) error {
	return h.latest(c, func(d schema.Dashboard) any { return d.Session })
}

func (h *handler) getChanges(c echo.Context) error {
	return h.latest(c, func(d schema.Dashboard) any { return d.Changes })
}

func (h *handler) postRefresh(c echo.Context) error {
	if h.refresher.Trigger() {
		return c.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "already queued"})
}

type healthResponse struct {
	Status      string         `json:"status"`
	Outcome     schema.Outcome `json:"outcome,omitempty"`
	RefreshedAt *time.Time     `json:"refreshed_at,omitempty"`
}

// getHealth reports liveness; the process is healthy even when the store is not.
func (h *handler) getHealth(c echo.Context) error {
	d, ok := h.refresher.Latest()
	if !ok {
		return c.JSON(http.StatusOK, healthResponse{Status: "warming up"})
	}
	refreshed := d.RefreshedAt
	return c.JSON(http.StatusOK, healthResponse{Status: "healthy", Outcome: d.Outcome(), RefreshedAt: &refreshed})
}
