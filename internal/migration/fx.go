package migration

import (
	billdomain "github.com/vtk-it/declaro/internal/bill/domain"
	"github.com/vtk-it/declaro/internal/config"
	profiledomain "github.com/vtk-it/declaro/internal/profile/domain"
	"github.com/vtk-it/declaro/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// mysql and sqlite installs rely on the ORM schema.
			if err := conn.AutoMigrate(&profiledomain.Profile{}, &billdomain.Bill{}); err != nil {
				return err
			}
		}
		return seed.EnsureAdmin(conn, cfg)
	}),
)
