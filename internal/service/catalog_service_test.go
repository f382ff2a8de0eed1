package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_CreateAndListHierarchy(t *testing.T) {
	f := setup(t)
	p, r, run, tc := f.hierarchy(t)

	projects, err := f.catalog.ListProjects()
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "P1", projects[0].ProjectName)
	assert.NotEmpty(t, p.ProjectID)

	releases, err := f.catalog.ListReleases(p.ProjectID)
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.Equal(t, r.ReleaseID, releases[0].ReleaseID)

	runs, err := f.catalog.ListRuns(p.ProjectID, r.ReleaseID)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.RunID, runs[0].RunID)
	assert.Equal(t, p.ProjectID, runs[0].ProjectID)

	cases, err := f.catalog.ListTestCases(p.ProjectID, r.ReleaseID, run.RunID)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, tc.TestCaseID, cases[0].TestCaseID)
	assert.Equal(t, r.ReleaseID, cases[0].ReleaseID)
}

func TestCatalogService_NamesAreTrimmedAndRequired(t *testing.T) {
	f := setup(t)

	p, err := f.catalog.CreateProject(&CreateProjectRequest{ProjectName: "  Shop  "}, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Shop", p.ProjectName)
	assert.Equal(t, "u-1", p.CreatedBy)

	_, err = f.catalog.CreateProject(&CreateProjectRequest{ProjectName: "   "}, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.catalog.CreateRelease(&CreateReleaseRequest{ProjectID: p.ProjectID, ReleaseName: ""})
	assert.ErrorIs(t, err, ErrValidation)

	projects, err := f.catalog.ListProjects()
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestCatalogService_MissingParentIsNotFound(t *testing.T) {
	f := setup(t)
	p, r, run, _ := f.hierarchy(t)

	_, err := f.catalog.CreateRelease(&CreateReleaseRequest{ProjectID: "nope", ReleaseName: "R"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.catalog.CreateRun(&CreateRunRequest{ProjectID: p.ProjectID, ReleaseID: "nope", RunName: "X"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.catalog.ListReleases("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	other, err := f.catalog.CreateProject(&CreateProjectRequest{ProjectName: "P2"}, "")
	require.NoError(t, err)

	// A release addressed through the wrong project does not exist.
	_, err = f.catalog.ListRuns(other.ProjectID, r.ReleaseID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.catalog.ListTestCases(other.ProjectID, r.ReleaseID, run.RunID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "run not found")
}

func TestCatalogService_ListsAreScopedAndOrdered(t *testing.T) {
	f := setup(t)
	p, r, _, _ := f.hierarchy(t)

	second, err := f.catalog.CreateRun(&CreateRunRequest{ProjectID: p.ProjectID, ReleaseID: r.ReleaseID, RunName: "Run2"})
	require.NoError(t, err)

	other, err := f.catalog.CreateRelease(&CreateReleaseRequest{ProjectID: p.ProjectID, ReleaseName: "R2"})
	require.NoError(t, err)
	_, err = f.catalog.CreateRun(&CreateRunRequest{ProjectID: p.ProjectID, ReleaseID: other.ReleaseID, RunName: "Elsewhere"})
	require.NoError(t, err)

	runs, err := f.catalog.ListRuns(p.ProjectID, r.ReleaseID)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "Run1", runs[0].RunName)
	assert.Equal(t, second.RunID, runs[1].RunID)
}

func TestCatalogService_SearchTestCases(t *testing.T) {
	f := setup(t)
	_, _, _, tc := f.hierarchy(t)

	found, err := f.catalog.SearchTestCases("TC")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, tc.TestCaseID, found[0].TestCaseID)

	found, err = f.catalog.SearchTestCases("missing")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = f.catalog.SearchTestCases(" ")
	assert.ErrorIs(t, err, ErrValidation)
}
