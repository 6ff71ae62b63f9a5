package services

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bellapacxx/bingo-hall/utils/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket attaches a screen to /ws/:table. The first message is the
// current table state; afterwards the client receives every call, claim and
// state change.
func (h *Hall) HandleWebSocket(c *gin.Context) {
	table, err := h.Table(c.Param("table"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrTableNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf("[WS] upgrade error: %v", err)
		return
	}

	client := newClient(conn, table)
	table.addClient(client)

	state := table.State()
	if b, err := json.Marshal(event{Type: "state", Table: table.ID, State: &state}); err == nil {
		client.trySend(b)
	}

	go client.writePump()
	go client.readPump()
}
