package handler

import (
	"net/http"

	"github.com/Pradeepvanguru/Testing-Tool/internal/service"

	"github.com/gin-gonic/gin"
)

// StepHandler 测试步骤HTTP处理器
type StepHandler struct {
	service service.StepService
}

// NewStepHandler 创建处理器
func NewStepHandler(service service.StepService) *StepHandler {
	return &StepHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *StepHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/teststeps/:projectId/:releaseId/:runId/:testCaseId", h.ListSteps)
	api.POST("/teststeps/save", h.SaveSteps)
}

func (h *StepHandler) ListSteps(c *gin.Context) {
	steps, err := h.service.ListSteps(
		c.Param("projectId"),
		c.Param("releaseId"),
		c.Param("runId"),
		c.Param("testCaseId"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, steps)
}

func (h *StepHandler) SaveSteps(c *gin.Context) {
	var req service.SaveStepsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	steps, err := h.service.SaveSteps(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, steps)
}
