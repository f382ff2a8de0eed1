package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
)

// AuthResult is returned by Login and Register.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// StepsPayload is the body of a bulk step save.
type StepsPayload struct {
	ProjectID  string            `json:"ProjectID"`
	ReleaseID  string            `json:"ReleaseID"`
	RunID      string            `json:"RunID"`
	TestCaseID string            `json:"TestCaseID"`
	Steps      []models.TestStep `json:"steps"`
}

func path(parts ...string) string {
	out := ""
	for _, p := range parts {
		out += "/" + url.PathEscape(p)
	}
	return out
}

// ===== Projects =====

func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	err := c.request(ctx, http.MethodGet, "/projects", nil, &out)
	return out, err
}

func (c *Client) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	var out models.Project
	if err := c.request(ctx, http.MethodGet, "/projects"+path(projectID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	var out models.Project
	body := map[string]interface{}{"ProjectName": name}
	if err := c.request(ctx, http.MethodPost, "/projects/add-project", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ===== Releases =====

func (c *Client) ListReleases(ctx context.Context, projectID string) ([]models.Release, error) {
	var out []models.Release
	err := c.request(ctx, http.MethodGet, "/releases"+path(projectID), nil, &out)
	return out, err
}

func (c *Client) CreateRelease(ctx context.Context, projectID, name string) (*models.Release, error) {
	var out models.Release
	body := map[string]string{"ProjectID": projectID, "ReleaseName": name}
	if err := c.request(ctx, http.MethodPost, "/releases/add-release", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ===== Runs =====

func (c *Client) ListRuns(ctx context.Context, projectID, releaseID string) ([]models.Run, error) {
	var out []models.Run
	err := c.request(ctx, http.MethodGet, "/runs"+path(projectID, releaseID), nil, &out)
	return out, err
}

func (c *Client) CreateRun(ctx context.Context, projectID, releaseID, name string) (*models.Run, error) {
	var out models.Run
	body := map[string]string{"ProjectID": projectID, "ReleaseID": releaseID, "RunName": name}
	if err := c.request(ctx, http.MethodPost, "/runs/add-run", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ===== Test cases =====

func (c *Client) ListTestCases(ctx context.Context, projectID, releaseID, runID string) ([]models.TestCase, error) {
	var out []models.TestCase
	err := c.request(ctx, http.MethodGet, "/testcases"+path(projectID, releaseID, runID), nil, &out)
	return out, err
}

func (c *Client) CreateTestCase(ctx context.Context, projectID, releaseID, runID, name string) (*models.TestCase, error) {
	var out models.TestCase
	body := map[string]string{"ProjectID": projectID, "ReleaseID": releaseID, "RunID": runID, "TestCaseName": name}
	if err := c.request(ctx, http.MethodPost, "/testcases/add-testcase", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchTestCases(ctx context.Context, query string) ([]models.TestCase, error) {
	var out []models.TestCase
	err := c.request(ctx, http.MethodGet, "/testcases/search?q="+url.QueryEscape(query), nil, &out)
	return out, err
}

// ===== Steps =====

func (c *Client) ListSteps(ctx context.Context, projectID, releaseID, runID, testCaseID string) ([]models.TestStep, error) {
	var out []models.TestStep
	err := c.request(ctx, http.MethodGet, "/teststeps"+path(projectID, releaseID, runID, testCaseID), nil, &out)
	return out, err
}

// SaveSteps replaces the steps of a test case and returns them as stored.
func (c *Client) SaveSteps(ctx context.Context, payload StepsPayload) ([]models.TestStep, error) {
	if payload.Steps == nil {
		payload.Steps = []models.TestStep{}
	}
	var out []models.TestStep
	err := c.request(ctx, http.MethodPost, "/teststeps/save", payload, &out)
	return out, err
}

// ===== Auth =====

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.request(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.request(ctx, http.MethodPost, "/auth/register", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the user owning the current token. The server may wrap
// the user as {"user": ...} or send it bare.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var raw json.RawMessage
	if err := c.request(ctx, http.MethodGet, "/auth/profile", nil, &raw); err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

func (c *Client) UpdateProfile(ctx context.Context, username, email string) (*models.User, error) {
	var raw json.RawMessage
	body := map[string]string{"username": username, "email": email}
	if err := c.request(ctx, http.MethodPut, "/auth/profile", body, &raw); err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	body := map[string]string{"currentPassword": current, "newPassword": next}
	return c.request(ctx, http.MethodPut, "/auth/password", body, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.request(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func decodeUser(raw json.RawMessage) (*models.User, error) {
	var wrapped struct {
		User *models.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}
	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to decode profile: %v", err), Err: err}
	}
	if user.UserID == "" && user.Email == "" {
		return nil, &Error{Message: "profile response carries no user"}
	}
	return &user, nil
}

// ===== Executions =====

// StartTestCase triggers a simulated execution of one test case.
func (c *Client) StartTestCase(ctx context.Context, testCaseID string) (*models.Execution, error) {
	return c.startExecution(ctx, map[string]string{"TestCaseID": testCaseID})
}

// StartRun triggers a simulated execution of every test case in a run.
func (c *Client) StartRun(ctx context.Context, runID string) (*models.Execution, error) {
	return c.startExecution(ctx, map[string]string{"RunID": runID})
}

func (c *Client) startExecution(ctx context.Context, body map[string]string) (*models.Execution, error) {
	var out models.Execution
	if err := c.request(ctx, http.MethodPost, "/executions", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetExecution(ctx context.Context, executionID string) (*models.Execution, error) {
	var out models.Execution
	if err := c.request(ctx, http.MethodGet, "/executions"+path(executionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ExecutionLogs(ctx context.Context, executionID string) ([]models.ExecutionLog, error) {
	var out []models.ExecutionLog
	err := c.request(ctx, http.MethodGet, "/executions"+path(executionID, "logs"), nil, &out)
	return out, err
}
