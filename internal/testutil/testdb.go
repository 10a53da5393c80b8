// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"testing"

	"anoa.com/linkbio/internal/bootstrap"
	"anoa.com/linkbio/internal/entity"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := bootstrap.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user whose password is password.
func CreateUser(t *testing.T, db *gorm.DB, username, role, password string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &entity.User{
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Test " + username,
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func CreateLink(t *testing.T, db *gorm.DB, owner *entity.User, slug, destination string) *entity.Link {
	t.Helper()
	link := &entity.Link{
		UserID:         owner.ID,
		Slug:           slug,
		Title:          "Link " + slug,
		DestinationURL: destination,
	}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("create link: %v", err)
	}
	return link
}
