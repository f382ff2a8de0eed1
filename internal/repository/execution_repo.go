package repository

import (
	"errors"

	"github.com/Pradeepvanguru/Testing-Tool/internal/models"

	"gorm.io/gorm"
)

// ExecutionRepository 执行记录数据访问接口
type ExecutionRepository interface {
	Create(execution *models.Execution) error
	Update(execution *models.Execution) error
	FindByID(executionID string) (*models.Execution, error)
	FindByTarget(targetID string, limit int) ([]models.Execution, error)
}

type executionRepo struct {
	db *gorm.DB
}

func NewExecutionRepository(db *gorm.DB) ExecutionRepository {
	return &executionRepo{db: db}
}

func (r *executionRepo) Create(execution *models.Execution) error {
	return r.db.Create(execution).Error
}

func (r *executionRepo) Update(execution *models.Execution) error {
	return r.db.Save(execution).Error
}

func (r *executionRepo) FindByID(executionID string) (*models.Execution, error) {
	var execution models.Execution
	err := r.db.Where("execution_id = ?", executionID).First(&execution).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &execution, nil
}

func (r *executionRepo) FindByTarget(targetID string, limit int) ([]models.Execution, error) {
	executions := []models.Execution{}
	query := r.db.Where("target_id = ?", targetID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&executions).Error
	return executions, err
}

// ExecutionLogRepository 执行日志数据访问接口
type ExecutionLogRepository interface {
	Create(entry *models.ExecutionLog) error
	FindByExecutionID(executionID string) ([]models.ExecutionLog, error)
}

type executionLogRepo struct {
	db *gorm.DB
}

func NewExecutionLogRepository(db *gorm.DB) ExecutionLogRepository {
	return &executionLogRepo{db: db}
}

func (r *executionLogRepo) Create(entry *models.ExecutionLog) error {
	return r.db.Create(entry).Error
}

func (r *executionLogRepo) FindByExecutionID(executionID string) ([]models.ExecutionLog, error) {
	logs := []models.ExecutionLog{}
	err := r.db.Where("execution_id = ?", executionID).Order("timestamp ASC, id ASC").Find(&logs).Error
	return logs, err
}
