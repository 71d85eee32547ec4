package runs

import (
	"errors"
	"time"

	"route-ops/internal/models"
	"route-ops/pkg/utils"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// upgrader is used to upgrade HTTP connections to WebSocket connections.
var upgrader = websocket.Upgrader{}

// streamInterval is how often the active run state is pushed to the client.
const streamInterval = 5 * time.Second

// runFrame is one WebSocket message: the active run, or null once the run
// ends.
type runFrame struct {
	Run *models.RouteRun `json:"run"`
}

// StreamActiveRun handles GET /ws/runs/active. It upgrades the connection
// and pushes the active run state on an interval so the dashboard follows
// progress without polling. The stream closes when the run completes, is
// discarded, or the client goes away.
func (h *Handler) StreamActiveRun(c echo.Context) error {
	operatorID, _, err := utils.ExtractOperatorInfo(c)
	if err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		run, err := h.svc.Active(ctx, operatorID)
		if err != nil && !errors.Is(err, models.ErrNoActiveRun) {
			c.Logger().Errorf("run stream: %v", err)
			return nil
		}
		if err := conn.WriteJSON(runFrame{Run: run}); err != nil {
			return nil // client gone
		}
		if run == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
