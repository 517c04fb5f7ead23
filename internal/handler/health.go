package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers liveness probes. It deliberately avoids touching the
// database so a degraded dependency does not pull the process out of
// rotation while gateways are still delivering webhooks.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
