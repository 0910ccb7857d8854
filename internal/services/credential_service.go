package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
)

// dummyHash is compared against when a username is unknown so that a
// missing account costs the same as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("no-such-account"), bcrypt.DefaultCost)
	return h
})

// credentialService handles the shared users table.
type credentialService struct {
	db *gorm.DB
}

// NewCredentialService creates a new CredentialServicer.
func NewCredentialService(db *gorm.DB) CredentialServicer {
	return &credentialService{db: db}
}

// CreateAccount stores a salted hash of password under username. An
// existing username is never overwritten.
func (s *credentialService) CreateAccount(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "username and password are required")
	}

	exists, err := s.Exists(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.ErrDuplicateUsername
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	account := &models.UserAccount{
		Username:     username,
		PasswordHash: string(hashedPassword),
	}
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicateUsername
		}
		return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
	}
	return nil
}

// Verify reports whether password matches the stored hash for username.
// An unknown username and a wrong password both yield false.
func (s *credentialService) Verify(ctx context.Context, username, password string) (bool, error) {
	var account models.UserAccount
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return false, nil
		}
		return false, apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
	}

	return bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) == nil, nil
}

// Exists reports whether a credential row exists for username.
func (s *credentialService) Exists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.UserAccount{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
	}
	return count > 0, nil
}

// Lookup returns the credential row for username, or nil when there is none.
func (s *credentialService) Lookup(ctx context.Context, username string) (*models.UserAccount, error) {
	var account models.UserAccount
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
	}
	return &account, nil
}

// DeleteAccount removes the credential row for username, if any.
func (s *credentialService) DeleteAccount(ctx context.Context, username string) error {
	if err := s.db.WithContext(ctx).Where("username = ?", username).Delete(&models.UserAccount{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
	}
	return nil
}
