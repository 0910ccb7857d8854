package services

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
)

// tokenService records revoked bearer tokens in the credential database.
type tokenService struct {
	db *gorm.DB
}

// NewTokenService creates a new TokenServicer.
func NewTokenService(db *gorm.DB) TokenServicer {
	return &tokenService{db: db}
}

// Revoke marks tokenID as unusable until it would have expired anyway.
// Revoking the same token twice is harmless.
func (s *tokenService) Revoke(ctx context.Context, tokenID, username string, expiresAt time.Time) error {
	if tokenID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "token id is required")
	}

	row := &models.RevokedToken{
		TokenID:   tokenID,
		Username:  username,
		ExpiresAt: expiresAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (s *tokenService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.RevokedToken{}).Where("token_id = ?", tokenID).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
	}
	return count > 0, nil
}

// PurgeExpired drops revocations of tokens that have expired by now and
// returns how many were removed.
func (s *tokenService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", now.UTC()).Delete(&models.RevokedToken{})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorageUnavailable, res.Error)
	}
	return res.RowsAffected, nil
}
