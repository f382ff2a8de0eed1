package repository

import (
	"errors"

	"github.com/Pradeepvanguru/Testing-Tool/internal/models"

	"gorm.io/gorm"
)

// TestCaseRepository 测试案例数据访问接口
type TestCaseRepository interface {
	Create(testCase *models.TestCase) error
	FindByID(testCaseID string) (*models.TestCase, error)
	FindByRun(projectID, releaseID, runID string) ([]models.TestCase, error)
	FindByRunID(runID string) ([]models.TestCase, error)
	Search(query string) ([]models.TestCase, error)
}

// testCaseRepo 实现
type testCaseRepo struct {
	db *gorm.DB
}

// NewTestCaseRepository 创建Repository实例
func NewTestCaseRepository(db *gorm.DB) TestCaseRepository {
	return &testCaseRepo{db: db}
}

func (r *testCaseRepo) Create(testCase *models.TestCase) error {
	return r.db.Create(testCase).Error
}

func (r *testCaseRepo) FindByID(testCaseID string) (*models.TestCase, error) {
	var testCase models.TestCase
	err := r.db.Where("test_case_id = ?", testCaseID).First(&testCase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &testCase, nil
}

func (r *testCaseRepo) FindByRun(projectID, releaseID, runID string) ([]models.TestCase, error) {
	testCases := []models.TestCase{}
	err := r.db.Where("project_id = ? AND release_id = ? AND run_id = ?", projectID, releaseID, runID).
		Order("created_at ASC, id ASC").
		Find(&testCases).Error
	return testCases, err
}

func (r *testCaseRepo) FindByRunID(runID string) ([]models.TestCase, error) {
	testCases := []models.TestCase{}
	err := r.db.Where("run_id = ?", runID).Order("created_at ASC, id ASC").Find(&testCases).Error
	return testCases, err
}

func (r *testCaseRepo) Search(query string) ([]models.TestCase, error) {
	testCases := []models.TestCase{}
	err := r.db.Where("test_case_name LIKE ?", "%"+query+"%").
		Order("created_at ASC, id ASC").
		Find(&testCases).Error
	return testCases, err
}
