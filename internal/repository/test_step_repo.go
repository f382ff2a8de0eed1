package repository

import (
	"fmt"

	"github.com/Pradeepvanguru/Testing-Tool/internal/models"

	"gorm.io/gorm"
)

// TestStepRepository 测试步骤数据访问接口
type TestStepRepository interface {
	FindByTestCaseID(testCaseID string) ([]models.TestStep, error)
	// ReplaceForTestCase deletes every stored step of the test case and
	// inserts steps in one transaction.
	ReplaceForTestCase(testCaseID string, steps []models.TestStep) error
}

type testStepRepo struct {
	db *gorm.DB
}

func NewTestStepRepository(db *gorm.DB) TestStepRepository {
	return &testStepRepo{db: db}
}

func (r *testStepRepo) FindByTestCaseID(testCaseID string) ([]models.TestStep, error) {
	steps := []models.TestStep{}
	err := r.db.Where("test_case_id = ?", testCaseID).Order("step_number ASC, id ASC").Find(&steps).Error
	return steps, err
}

func (r *testStepRepo) ReplaceForTestCase(testCaseID string, steps []models.TestStep) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("test_case_id = ?", testCaseID).Delete(&models.TestStep{}).Error; err != nil {
			return fmt.Errorf("failed to clear steps: %w", err)
		}
		if len(steps) == 0 {
			return nil
		}
		if err := tx.Create(&steps).Error; err != nil {
			return fmt.Errorf("failed to insert steps: %w", err)
		}
		return nil
	})
}
