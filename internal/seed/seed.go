package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/vtk-it/declaro/internal/config"
	profiledomain "github.com/vtk-it/declaro/internal/profile/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EnsureAdmin creates the bootstrap admin account when one is configured
// and no profile with that email exists yet. Idempotent across restarts.
func EnsureAdmin(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	email := strings.ToLower(strings.TrimSpace(cfg.BootstrapAdminEmail))
	if email == "" {
		return nil
	}
	if cfg.BootstrapAdminPassword == "" {
		return errors.New("seed: bootstrap admin password is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing profiledomain.Profile
		if err := tx.Where("email = ?", email).Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		if existing.ID != 0 {
			return nil
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.BootstrapAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		return tx.Create(&profiledomain.Profile{
			ID:           node.Generate(),
			Email:        email,
			PasswordHash: string(hash),
			Name:         "Administrator",
			Admin:        true,
			CreatedAt:    time.Now().UTC(),
		}).Error
	})
}
