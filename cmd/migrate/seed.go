package main

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/archdrift/engine/internal/models"
)

func int64Ptr(v int64) *int64 { return &v }

// seedProjects inserts a few tracked projects for local development.
// Existing repo URLs are left untouched.
func seedProjects(db *gorm.DB) error {
	projects := []models.Project{
		{
			Name:                 "Sample Rails App",
			RepoURL:              "https://github.com/example/sample-rails-app",
			DefaultBranch:        "main",
			GithubInstallationID: int64Ptr(12345),
		},
		{
			Name:                 "E-commerce Platform",
			RepoURL:              "https://github.com/example/ecommerce-platform",
			DefaultBranch:        "main",
			GithubInstallationID: int64Ptr(12346),
		},
		{
			Name:                 "API Gateway",
			RepoURL:              "https://github.com/example/api-gateway",
			DefaultBranch:        "main",
			GithubInstallationID: int64Ptr(12347),
		},
	}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "repo_url"}},
		DoNothing: true,
	}).Create(&projects).Error
}
