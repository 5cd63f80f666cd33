package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/ksred/pageturn-api/internal/types"
	"gorm.io/gorm"
)

type Contact struct {
	Name  string
	Email string
}

// Directory resolves a user id to an email contact
type Directory interface {
	Contact(ctx context.Context, userID string) (*Contact, error)
}

// GormDirectory reads contacts from the users table
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) Contact(ctx context.Context, userID string) (*Contact, error) {
	var user types.User
	if err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user.Email == "" {
		return nil, types.NotFound("user has no email")
	}
	return &Contact{Name: user.Name, Email: user.Email}, nil
}
