package repository

import (
	"errors"

	"github.com/Pradeepvanguru/Testing-Tool/internal/models"

	"gorm.io/gorm"
)

// RunRepository 测试批次数据访问接口
type RunRepository interface {
	Create(run *models.Run) error
	FindByID(runID string) (*models.Run, error)
	FindByRelease(projectID, releaseID string) ([]models.Run, error)
}

type runRepo struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepo{db: db}
}

func (r *runRepo) Create(run *models.Run) error {
	return r.db.Create(run).Error
}

func (r *runRepo) FindByID(runID string) (*models.Run, error) {
	var run models.Run
	err := r.db.Where("run_id = ?", runID).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (r *runRepo) FindByRelease(projectID, releaseID string) ([]models.Run, error) {
	runs := []models.Run{}
	err := r.db.Where("project_id = ? AND release_id = ?", projectID, releaseID).
		Order("created_at ASC, id ASC").
		Find(&runs).Error
	return runs, err
}
