package repository

import (
	"context"

	"github.com/archdrift/engine/internal/models"
	appErr "github.com/archdrift/engine/pkg/errors"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	BaseRepository[models.Project]
	GetByRepoURL(ctx context.Context, repoURL string, dest *models.Project) error
	List(ctx context.Context) ([]models.Project, error)
}

type projectRepository struct {
	BaseRepository[models.Project]
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{BaseRepository: NewBaseRepository[models.Project](db), db: db}
}

func (r *projectRepository) GetByRepoURL(ctx context.Context, repoURL string, dest *models.Project) error {
	if err := r.db.WithContext(ctx).Where("repo_url = ?", repoURL).First(dest).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return appErr.New(appErr.CodeNotFound, "project not found").WithMeta("repo_url", repoURL)
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get project by repo url failed")
	}
	return nil
}

func (r *projectRepository) List(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list projects failed")
	}
	return out, nil
}
