package repository

import (
	"errors"

	"github.com/Pradeepvanguru/Testing-Tool/internal/models"

	"gorm.io/gorm"
)

// ProjectRepository 项目数据访问接口
type ProjectRepository interface {
	Create(project *models.Project) error
	FindByID(projectID string) (*models.Project, error)
	FindAll() ([]models.Project, error)
}

type projectRepo struct {
	db *gorm.DB
}

// NewProjectRepository 创建Repository实例
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

func (r *projectRepo) FindByID(projectID string) (*models.Project, error) {
	var project models.Project
	err := r.db.Where("project_id = ?", projectID).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}

func (r *projectRepo) FindAll() ([]models.Project, error) {
	projects := []models.Project{}
	err := r.db.Order("created_at ASC, id ASC").Find(&projects).Error
	return projects, err
}
