package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/vtk-it/declaro/internal/profile/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *domain.Profile) error {
	return db.WithContext(ctx).Create(p).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Profile, error) {
	var profiles []domain.Profile
	err := db.WithContext(ctx).
		Order("name asc, id asc").
		Find(&profiles).Error
	return profiles, err
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, p *domain.Profile) error {
	return db.WithContext(ctx).Save(p).Error
}
