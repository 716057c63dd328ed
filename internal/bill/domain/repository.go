package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, bill *Bill) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Bill, error)
	Update(ctx context.Context, db *gorm.DB, bill *Bill) error
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, column string, value bool) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	ListByUID(ctx context.Context, db *gorm.DB, uid string) ([]Bill, error)
	ListAll(ctx context.Context, db *gorm.DB) ([]Bill, error)
	ListByPosts(ctx context.Context, db *gorm.DB, posts []string) ([]Bill, error)
}
