package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Pradeepvanguru/Testing-Tool/internal/logging"
	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
	"github.com/Pradeepvanguru/Testing-Tool/internal/repository"
	"github.com/Pradeepvanguru/Testing-Tool/internal/service"
	"github.com/Pradeepvanguru/Testing-Tool/internal/simulator"
	"github.com/Pradeepvanguru/Testing-Tool/internal/websocket"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))

	ctx, cancel := context.WithCancel(context.Background())
	hub := websocket.NewHub()
	go hub.Run(ctx)

	log := logging.Discard()
	projectRepo := repository.NewProjectRepository(db)
	releaseRepo := repository.NewReleaseRepository(db)
	runRepo := repository.NewRunRepository(db)
	testCaseRepo := repository.NewTestCaseRepository(db)
	stepRepo := repository.NewTestStepRepository(db)
	executionRepo := repository.NewExecutionRepository(db)
	logRepo := repository.NewExecutionLogRepository(db)
	runner := simulator.NewRunner(executionRepo, logRepo, hub, 0, log)

	t.Cleanup(func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = runner.Shutdown(shutdownCtx)
		cancel()
	})

	return NewRouter(Services{
		Auth: service.NewAuthService(
			repository.NewUserRepository(db),
			repository.NewSessionRepository(db),
			time.Hour,
			log,
		),
		Catalog:   service.NewCatalogService(projectRepo, releaseRepo, runRepo, testCaseRepo),
		Steps:     service.NewStepService(testCaseRepo, stepRepo, log),
		Execution: service.NewExecutionService(runRepo, testCaseRepo, stepRepo, executionRepo, logRepo, runner),
		Hub:       hub,
	}, log)
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func signup(t *testing.T, r http.Handler) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "tester", "email": "tester@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

type ids struct {
	project, release, run, testCase string
}

func seed(t *testing.T, r http.Handler, token string) ids {
	t.Helper()
	var out ids
	var m map[string]interface{}

	w := doJSON(t, r, http.MethodPost, "/api/projects/add-project", token, gin.H{"ProjectName": "P1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &m)
	out.project = m["ProjectID"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/releases/add-release", token, gin.H{"ProjectID": out.project, "ReleaseName": "R1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &m)
	out.release = m["ReleaseID"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/runs/add-run", token, gin.H{
		"ProjectID": out.project, "ReleaseID": out.release, "RunName": "Run1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &m)
	out.run = m["RunID"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/testcases/add-testcase", token, gin.H{
		"ProjectID": out.project, "ReleaseID": out.release, "RunID": out.run, "TestCaseName": "TC1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &m)
	out.testCase = m["TestCaseID"].(string)

	return out
}

func TestAuthRoutes(t *testing.T) {
	r := setupRouter(t)
	token := signup(t, r)

	t.Run("login with bad password", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "tester@example.com", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var body map[string]string
		decode(t, w, &body)
		assert.Equal(t, "invalid email or password", body["message"])
	})

	t.Run("login", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "tester@example.com", "password": "secret123"})
		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		decode(t, w, &body)
		assert.NotEmpty(t, body["token"])
		user := body["user"].(map[string]interface{})
		assert.Equal(t, "tester", user["username"])
		assert.NotContains(t, user, "PasswordHash")
	})

	t.Run("missing fields", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "tester@example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "message")
	})

	t.Run("profile", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/auth/profile", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			User models.User `json:"user"`
		}
		decode(t, w, &body)
		assert.Equal(t, "tester@example.com", body.User.Email)
	})

	t.Run("update profile", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/auth/profile", token, gin.H{"username": "renamed"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "renamed")
	})

	t.Run("logout revokes token", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/auth/logout", token, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, r, http.MethodGet, "/api/auth/profile", token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := setupRouter(t)

	for _, path := range []string{"/api/projects", "/api/auth/profile", "/api/releases/x"} {
		w := doJSON(t, r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		var body map[string]string
		decode(t, w, &body)
		assert.NotEmpty(t, body["message"])
	}

	w := doJSON(t, r, http.MethodGet, "/api/projects", "bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCatalogRoutes(t *testing.T) {
	r := setupRouter(t)
	token := signup(t, r)
	id := seed(t, r, token)

	w := doJSON(t, r, http.MethodGet, "/api/projects", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var projects []map[string]interface{}
	decode(t, w, &projects)
	require.Len(t, projects, 1)
	assert.Equal(t, "P1", projects[0]["ProjectName"])
	assert.Equal(t, false, projects[0]["isReleased"])

	w = doJSON(t, r, http.MethodGet, "/api/projects/"+id.project, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/runs/"+id.project+"/"+id.release, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Run1")

	w = doJSON(t, r, http.MethodGet, "/api/testcases/"+id.project+"/"+id.release+"/"+id.run, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cases []map[string]interface{}
	decode(t, w, &cases)
	require.Len(t, cases, 1)
	assert.Equal(t, id.testCase, cases[0]["TestCaseID"])

	w = doJSON(t, r, http.MethodGet, "/api/testcases/search?q=TC", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id.testCase)

	t.Run("empty name", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/projects/add-project", token, gin.H{"ProjectName": "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing parent", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/releases/add-release", token, gin.H{"ProjectID": "missing", "ReleaseName": "R"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		var body map[string]string
		decode(t, w, &body)
		assert.Equal(t, "project not found: missing", body["message"])
	})

	t.Run("unknown project", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/projects/missing", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStepRoutes(t *testing.T) {
	r := setupRouter(t)
	token := signup(t, r)
	id := seed(t, r, token)
	stepsPath := "/api/teststeps/" + id.project + "/" + id.release + "/" + id.run + "/" + id.testCase

	w := doJSON(t, r, http.MethodGet, stepsPath, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/teststeps/save", token, gin.H{
		"ProjectID": id.project, "ReleaseID": id.release, "RunID": id.run, "TestCaseID": id.testCase,
		"steps": []gin.H{
			{"testSteps": "Open login page", "browserActions": "NAVIGATION_TO"},
			{"testSteps": ""},
			{"testSteps": "Submit", "locatorType": "id", "locatorValue": "go", "browserActions": "CLICK", "executionStatus": "PASS"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, stepsPath, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var steps []models.TestStep
	decode(t, w, &steps)
	require.Len(t, steps, 2)
	assert.Equal(t, 1, steps[0].StepNumber)
	assert.Equal(t, "Open login page", steps[0].TestSteps)
	assert.Equal(t, 2, steps[1].StepNumber)
	assert.Equal(t, models.StatusPass, steps[1].ExecutionStatus)

	t.Run("invalid vocabulary", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/teststeps/save", token, gin.H{
			"ProjectID": id.project, "ReleaseID": id.release, "RunID": id.run, "TestCaseID": id.testCase,
			"steps": []gin.H{{"testSteps": "x", "executionStatus": "MAYBE"}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(t, r, http.MethodGet, stepsPath, token, nil)
		decode(t, w, &steps)
		assert.Len(t, steps, 2, "failed save leaves stored steps alone")
	})
}

func TestExecutionRoutes(t *testing.T) {
	r := setupRouter(t)
	token := signup(t, r)
	id := seed(t, r, token)

	w := doJSON(t, r, http.MethodPost, "/api/teststeps/save", token, gin.H{
		"ProjectID": id.project, "ReleaseID": id.release, "RunID": id.run, "TestCaseID": id.testCase,
		"steps": []gin.H{{"testSteps": "one"}, {"testSteps": "two"}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/executions", token, gin.H{"TestCaseID": id.testCase})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var exec models.Execution
	decode(t, w, &exec)
	assert.Equal(t, 2, exec.TotalSteps)
	assert.True(t, exec.Simulated)

	assert.Eventually(t, func() bool {
		w := doJSON(t, r, http.MethodGet, "/api/executions/"+exec.ExecutionID, token, nil)
		var got models.Execution
		_ = json.Unmarshal(w.Body.Bytes(), &got)
		return got.Status == models.ExecutionCompleted && got.CompletedSteps == 2
	}, 5*time.Second, 20*time.Millisecond)

	w = doJSON(t, r, http.MethodGet, "/api/executions/"+exec.ExecutionID+"/logs", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "simulated")

	w = doJSON(t, r, http.MethodGet, "/api/executions?targetId="+id.testCase, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), exec.ExecutionID)

	w = doJSON(t, r, http.MethodPost, "/api/executions", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/executions/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExecutionStream(t *testing.T) {
	r := setupRouter(t)
	token := signup(t, r)
	id := seed(t, r, token)

	w := doJSON(t, r, http.MethodPost, "/api/executions", token, gin.H{"RunID": id.run})
	require.Equal(t, http.StatusAccepted, w.Code)
	var exec models.Execution
	decode(t, w, &exec)

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/executions/" + exec.ExecutionID + "/stream?token=" + token
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var types []string
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg websocket.Message
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		types = append(types, msg.Type)
		if msg.Type == websocket.EventExecutionComplete {
			break
		}
	}

	require.NotEmpty(t, types)
	assert.Equal(t, websocket.EventSnapshot, types[0])
	assert.Equal(t, websocket.EventExecutionComplete, types[len(types)-1])
}

func TestStreamRequiresToken(t *testing.T) {
	r := setupRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/executions/x/stream", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
