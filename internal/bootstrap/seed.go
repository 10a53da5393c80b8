package bootstrap

import (
	"log"

	"anoa.com/linkbio/internal/entity"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Link{},
		&entity.LinkClickDaily{},
		&entity.BioLink{},
	)
}

// SeedAdminUser creates the development admin account when no admin exists.
func SeedAdminUser(db *gorm.DB, password string) error {
	var count int64
	if err := db.Model(&entity.User{}).
		Where("role = ?", entity.RoleAdmin).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin user already exists, skipping seed")
		return nil
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminUser := entity.User{
		Username:     "admin",
		Email:        "admin@linkbio.local",
		FullName:     "Administrador",
		Role:         entity.RoleAdmin,
		PasswordHash: string(hashedPasswordBytes),
	}

	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	log.Println("✅ Admin user seeded successfully")
	log.Println("   Username: admin")

	return nil
}
