package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/labstack/echo"
	"github.com/nats-io/nats.go"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/api/resource"
	log "github.com/sirupsen/logrus"
)

// realtimeEventsHandler upgrades to a websocket and relays the
// orchestrator's NATS status events to the admin client until the
// socket goes away.
func (h *Handler) realtimeEventsHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.nc == nil {
			return c.JSON(http.StatusServiceUnavailable, errorResource{Error: "realtime events are not available"})
		}

		conn, _, _, err := ws.UpgradeHTTP(c.Request(), c.Response())
		if err != nil {
			log.Error("api: failed to upgrade to websocket: ", err)
			return nil
		}
		defer conn.Close()

		var once sync.Once
		closedCh := make(chan struct{})

		sub, err := h.nc.Subscribe("waadmin.orchestrator.v1.*.events.*", func(msg *nats.Msg) {
			// Get tenant and topic from the NATS subject
			strippedSubject := strings.TrimPrefix(msg.Subject, "waadmin.orchestrator.v1.")
			s := strings.Split(strippedSubject, ".")
			if len(s) != 3 {
				return
			}
			tenantID := s[0]
			topic := s[2]

			// Parse the message and send it
			var data interface{}
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				return
			}

			event := resource.NewRealtimeEvent(tenantID, topic, data)
			out, _ := json.Marshal(event)
			if err := wsutil.WriteServerMessage(conn, ws.OpText, out); err != nil {
				log.Error("api: failed to send realtime event: ", err)
				once.Do(func() { close(closedCh) })
			}
		})
		if err != nil {
			log.Error("api: failed to subscribe to realtime events: ", err)
			return nil
		}
		defer sub.Unsubscribe()

		<-closedCh
		return nil
	}
}
