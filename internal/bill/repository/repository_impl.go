package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/vtk-it/declaro/internal/bill/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, bill *domain.Bill) error {
	return db.WithContext(ctx).Create(bill).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Bill, error) {
	var bill domain.Bill
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&bill).Error
	if err != nil {
		return nil, err
	}
	if bill.ID == 0 {
		return nil, nil
	}
	return &bill, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, bill *domain.Bill) error {
	return db.WithContext(ctx).
		Model(&domain.Bill{}).
		Where("id = ?", bill.ID).
		Updates(map[string]interface{}{
			"name":           bill.Name,
			"activity":       bill.Activity,
			"desc":           bill.Desc,
			"post":           bill.Post,
			"date":           bill.Date,
			"amount":         bill.Amount,
			"payment_method": bill.PaymentMethod,
			"iban":           bill.IBAN,
			"image":          bill.Image,
		}).Error
}

// UpdateStatus flips exactly one boolean column; nothing else is touched.
func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, column string, value bool) error {
	return db.WithContext(ctx).
		Model(&domain.Bill{}).
		Where("id = ?", id).
		Update(column, value).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Bill{}).Error
}

func (r *repo) ListByUID(ctx context.Context, db *gorm.DB, uid string) ([]domain.Bill, error) {
	var bills []domain.Bill
	err := db.WithContext(ctx).
		Where("uid = ?", uid).
		Order("created_at desc, id desc").
		Find(&bills).Error
	return bills, err
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB) ([]domain.Bill, error) {
	var bills []domain.Bill
	err := db.WithContext(ctx).
		Order("created_at desc, id desc").
		Find(&bills).Error
	return bills, err
}

func (r *repo) ListByPosts(ctx context.Context, db *gorm.DB, posts []string) ([]domain.Bill, error) {
	if len(posts) == 0 {
		return []domain.Bill{}, nil
	}
	var bills []domain.Bill
	err := db.WithContext(ctx).
		Where("post IN ?", posts).
		Order("created_at desc, id desc").
		Find(&bills).Error
	return bills, err
}
