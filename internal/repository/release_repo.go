package repository

import (
	"errors"

	"github.com/Pradeepvanguru/Testing-Tool/internal/models"

	"gorm.io/gorm"
)

// ReleaseRepository 发布版本数据访问接口
type ReleaseRepository interface {
	Create(release *models.Release) error
	FindByID(releaseID string) (*models.Release, error)
	FindByProjectID(projectID string) ([]models.Release, error)
}

type releaseRepo struct {
	db *gorm.DB
}

func NewReleaseRepository(db *gorm.DB) ReleaseRepository {
	return &releaseRepo{db: db}
}

func (r *releaseRepo) Create(release *models.Release) error {
	return r.db.Create(release).Error
}

func (r *releaseRepo) FindByID(releaseID string) (*models.Release, error) {
	var release models.Release
	err := r.db.Where("release_id = ?", releaseID).First(&release).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &release, nil
}

func (r *releaseRepo) FindByProjectID(projectID string) ([]models.Release, error) {
	releases := []models.Release{}
	err := r.db.Where("project_id = ?", projectID).Order("created_at ASC, id ASC").Find(&releases).Error
	return releases, err
}
