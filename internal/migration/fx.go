package migration

import (
	applicationdomain "github.com/municipia/apoios/internal/application/domain"
	authdomain "github.com/municipia/apoios/internal/auth/domain"
	"github.com/municipia/apoios/internal/config"
	documentdomain "github.com/municipia/apoios/internal/document/domain"
	entitydomain "github.com/municipia/apoios/internal/entity/domain"
	historydomain "github.com/municipia/apoios/internal/history/domain"
	referencedomain "github.com/municipia/apoios/internal/reference/domain"
	"github.com/municipia/apoios/internal/seed"
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
			// Versioned migrations target postgres. Other drivers exist
			// for local development and get the schema from the models.
			if err := conn.AutoMigrate(
				&entitydomain.Entity{},
				&authdomain.User{},
				&authdomain.Session{},
				&referencedomain.ApplicationCategory{},
				&referencedomain.DocumentType{},
				&applicationdomain.Application{},
				&applicationdomain.MeetingDeliberation{},
				&applicationdomain.PresidentDecision{},
				&documentdomain.Document{},
				&historydomain.StatusEntry{},
				&historydomain.DocumentReviewEntry{},
			); err != nil {
				return err
			}
		}

		if err := seed.EnsureReferenceData(conn); err != nil {
			return err
		}
		if cfg.Bootstrap.EnsureDefaultAdmin {
			return seed.EnsureDefaultAdmin(conn, cfg)
		}
		return nil
	}),
)
