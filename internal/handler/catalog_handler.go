package handler

import (
	"net/http"

	"github.com/Pradeepvanguru/Testing-Tool/internal/service"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves projects, releases, runs and test cases.
type CatalogHandler struct {
	service service.CatalogService
}

// NewCatalogHandler 创建处理器
func NewCatalogHandler(service service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *CatalogHandler) RegisterRoutes(api *gin.RouterGroup) {
	// Projects
	api.GET("/projects", h.ListProjects)
	api.POST("/projects/add-project", h.CreateProject)
	api.GET("/projects/:projectId", h.GetProject)

	// Releases
	api.GET("/releases/:projectId", h.ListReleases)
	api.POST("/releases/add-release", h.CreateRelease)

	// Runs
	api.GET("/runs/:projectId/:releaseId", h.ListRuns)
	api.POST("/runs/add-run", h.CreateRun)

	// Test cases
	api.GET("/testcases/search", h.SearchTestCases)
	api.GET("/testcases/:projectId/:releaseId/:runId", h.ListTestCases)
	api.POST("/testcases/add-testcase", h.CreateTestCase)
}

// ===== Project Handlers =====

func (h *CatalogHandler) ListProjects(c *gin.Context) {
	projects, err := h.service.ListProjects()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *CatalogHandler) GetProject(c *gin.Context) {
	project, err := h.service.GetProject(c.Param("projectId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *CatalogHandler) CreateProject(c *gin.Context) {
	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	project, err := h.service.CreateProject(&req, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// ===== Release Handlers =====

func (h *CatalogHandler) ListReleases(c *gin.Context) {
	releases, err := h.service.ListReleases(c.Param("projectId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, releases)
}

func (h *CatalogHandler) CreateRelease(c *gin.Context) {
	var req service.CreateReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	release, err := h.service.CreateRelease(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, release)
}

// ===== Run Handlers =====

func (h *CatalogHandler) ListRuns(c *gin.Context) {
	runs, err := h.service.ListRuns(c.Param("projectId"), c.Param("releaseId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (h *CatalogHandler) CreateRun(c *gin.Context) {
	var req service.CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	run, err := h.service.CreateRun(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, run)
}

// ===== Test Case Handlers =====

func (h *CatalogHandler) ListTestCases(c *gin.Context) {
	cases, err := h.service.ListTestCases(c.Param("projectId"), c.Param("releaseId"), c.Param("runId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cases)
}

func (h *CatalogHandler) CreateTestCase(c *gin.Context) {
	var req service.CreateTestCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	tc, err := h.service.CreateTestCase(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tc)
}

func (h *CatalogHandler) SearchTestCases(c *gin.Context) {
	cases, err := h.service.SearchTestCases(c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cases)
}
