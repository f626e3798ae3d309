package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/municipia/apoios/internal/auth/domain"
	"github.com/municipia/apoios/internal/auth/password"
	"github.com/municipia/apoios/internal/config"
	referencedomain "github.com/municipia/apoios/internal/reference/domain"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@apoios.local"
	defaultAdminPassword = "changeme123"
	defaultAdminDisplay  = "Administrator"
)

type categorySeed struct {
	Code string
	Name string
}

type documentTypeSeed struct {
	Code     string
	Name     string
	Required bool
}

var defaultCategories = []categorySeed{
	{"CULTURE", "Cultural activities"},
	{"SPORTS", "Sports activities"},
	{"SOCIAL", "Social action"},
	{"EDUCATION", "Education and youth"},
	{"OTHER", "Other support"},
}

var defaultDocumentTypes = []documentTypeSeed{
	{"STATUTES", "Entity statutes", true},
	{"ACTIVITY_PLAN", "Annual activity plan", true},
	{"BUDGET", "Activity budget", true},
	{"TAX_CLEARANCE", "Tax clearance certificate", false},
	{"OTHER", "Other supporting document", false},
}

// EnsureReferenceData seeds categories and document types. Existing rows
// are left untouched.
func EnsureReferenceData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, c := range defaultCategories {
			var existing referencedomain.ApplicationCategory
			err := tx.WithContext(ctx).Where("code = ?", c.Code).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			row := referencedomain.ApplicationCategory{
				ID:        node.Generate(),
				Code:      c.Code,
				Name:      c.Name,
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
				return err
			}
		}

		for _, dt := range defaultDocumentTypes {
			var existing referencedomain.DocumentType
			err := tx.WithContext(ctx).Where("code = ?", dt.Code).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			row := referencedomain.DocumentType{
				ID:        node.Generate(),
				Code:      dt.Code,
				Name:      dt.Name,
				Required:  dt.Required,
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureDefaultAdmin creates the bootstrap admin account when no admin
// exists yet. Credentials come from config with local fallbacks.
func EnsureDefaultAdmin(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(cfg.Bootstrap.AdminEmail))
	if email == "" {
		email = defaultAdminEmail
	}
	plain := cfg.Bootstrap.AdminPassword
	if strings.TrimSpace(plain) == "" {
		plain = defaultAdminPassword
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).
			Model(&authdomain.User{}).
			Where("role = ?", authdomain.RoleAdmin).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hashed, err := password.Hash(plain)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		user := authdomain.User{
			ID:           node.Generate(),
			Email:        email,
			DisplayName:  defaultAdminDisplay,
			PasswordHash: &hashed,
			Role:         authdomain.RoleAdmin,
			IsActive:     true,
			IsDefault:    true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}
