package bootstrap

import (
	"strings"

	"anoa.com/learnhub/internal/entity"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/logger"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Category{},
		&entity.Course{},
		&entity.Chapter{},
		&entity.Material{},
		&entity.Assignment{},
		&entity.Attachment{},
		&entity.Purchase{},
		&entity.Application{},
		&entity.UserProgress{},
		&entity.Notification{},
	)
}

var defaultCategories = []string{
	"Computer Science",
	"Music",
	"Fitness",
	"Photography",
	"Accounting",
	"Engineering",
	"Filming",
}

func SeedCategories(db *gorm.DB) error {
	for _, name := range defaultCategories {
		slug := strings.ReplaceAll(strings.ToLower(name), " ", "-")

		var count int64
		if err := db.Model(&entity.Category{}).
			Where("slug = ?", slug).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&entity.Category{Name: name, Slug: slug}).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// SeedAdminUsers pre-creates admin rows for the allow-list so the first sign-in
// links to them by email instead of provisioning a plain user.
func SeedAdminUsers(db *gorm.DB, emails []string, log *logger.Logger) error {
	for _, raw := range emails {
		email := strings.ToLower(strings.TrimSpace(raw))
		if email == "" {
			continue
		}

		var count int64
		if err := db.Model(&entity.User{}).
			Where("email = ?", email).
			Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			continue
		}

		admin := entity.User{
			Email:     &email,
			FirstName: "Administrator",
			Role:      policy.RoleAdmin,
		}
		if err := db.Create(&admin).Error; err != nil {
			return err
		}
		log.Info("seeded admin user", "email", email)
	}

	return nil
}
