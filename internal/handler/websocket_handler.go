package handler

import (
	"net/http"
	"strconv"

	"github.com/Pradeepvanguru/Testing-Tool/internal/service"
	"github.com/Pradeepvanguru/Testing-Tool/internal/websocket"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Stream routes already require a valid token.
		return true
	},
}

// ExecutionHandler triggers simulated executions and streams their events.
type ExecutionHandler struct {
	service service.ExecutionService
	hub     *websocket.Hub
	logger  *log.Logger
}

// NewExecutionHandler creates a new execution handler
func NewExecutionHandler(service service.ExecutionService, hub *websocket.Hub, logger *log.Logger) *ExecutionHandler {
	return &ExecutionHandler{service: service, hub: hub, logger: logger}
}

// RegisterRoutes registers execution routes
func (h *ExecutionHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/executions", h.StartExecution)
	api.GET("/executions", h.ListExecutions)
	api.GET("/executions/:executionId", h.GetExecution)
	api.GET("/executions/:executionId/logs", h.GetExecutionLogs)
	api.GET("/executions/:executionId/stream", h.StreamExecution)
}

func (h *ExecutionHandler) StartExecution(c *gin.Context) {
	var req service.StartExecutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	exec, err := h.service.Start(&req, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.Info("execution started", "executionId", exec.ExecutionID, "target", exec.TargetType, "targetId", exec.TargetID)
	c.JSON(http.StatusAccepted, exec)
}

func (h *ExecutionHandler) ListExecutions(c *gin.Context) {
	targetID := c.Query("targetId")
	if targetID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "query parameter 'targetId' is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	executions, err := h.service.History(targetID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, executions)
}

func (h *ExecutionHandler) GetExecution(c *gin.Context) {
	exec, err := h.service.Get(c.Param("executionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exec)
}

func (h *ExecutionHandler) GetExecutionLogs(c *gin.Context) {
	logs, err := h.service.Logs(c.Param("executionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// StreamExecution establishes a WebSocket connection for an execution. The
// first message is a snapshot of the execution and its log so far; a
// finished execution is followed by execution_complete and the stream ends.
func (h *ExecutionHandler) StreamExecution(c *gin.Context) {
	executionID := c.Param("executionId")
	exec, err := h.service.Get(executionID)
	if err != nil {
		respondError(c, err)
		return
	}
	logs, err := h.service.Logs(executionID)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.logger.Warn("websocket upgrade failed", "executionId", executionID, "err", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, executionID)
	client.Enqueue(&websocket.Message{
		ExecutionID: executionID,
		Type:        websocket.EventSnapshot,
		Payload:     gin.H{"execution": exec, "logs": logs},
	})
	if exec.Finished() {
		client.Enqueue(&websocket.Message{ExecutionID: executionID, Type: websocket.EventExecutionComplete, Payload: exec})
		go client.WritePump()
		return
	}
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	// Start goroutines
	go client.WritePump()
	go client.ReadPump()

	// The execution may have finished between the snapshot and Register.
	if latest, err := h.service.Get(executionID); err == nil && latest.Finished() {
		h.hub.Broadcast(executionID, websocket.EventExecutionComplete, latest)
	}
}
