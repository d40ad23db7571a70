package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merchforge/merchforge-backend/internal/repo"
	"github.com/merchforge/merchforge-backend/pkg/db/models"
	"github.com/merchforge/merchforge-backend/pkg/pagination"
)

// Repository persists saved user addresses.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// ListByUser returns the default address first, then newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// ListAll pages through every address newest first, optionally for one user.
func (r *Repository) ListAll(ctx context.Context, userID *uuid.UUID, params pagination.Params) (pagination.Page[models.Address], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Address]{}, err
	}
	qb := r.DB(ctx).Model(&models.Address{})
	if userID != nil {
		qb = qb.Where("user_id = ?", *userID)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Address
	if err := qb.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error; err != nil {
		return pagination.Page[models.Address]{}, err
	}
	return pagination.Trim(rows, params.Limit, func(a models.Address) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	}), nil
}

func (r *Repository) FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.DB(ctx).Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.DB(ctx).First(&address, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *Repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Address{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *Repository) Create(ctx context.Context, address *models.Address) error {
	return r.DB(ctx).Create(address).Error
}

func (r *Repository) Save(ctx context.Context, address *models.Address) error {
	return r.DB(ctx).Save(address).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.Address{}).Error
}

// ClearDefault unsets the default flag on every address of the user.
func (r *Repository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.DB(ctx).Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		UpdateColumn("is_default", false).Error
}

// MarkDefault flags one address as the user's default.
func (r *Repository) MarkDefault(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Model(&models.Address{}).
		Where("id = ?", id).
		UpdateColumn("is_default", true).Error
}

// NewestForUser returns the most recently created address, if any.
func (r *Repository) NewestForUser(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.DB(ctx).Where("user_id = ?", userID).Order("created_at DESC").First(&address).Error; err != nil {
		return nil, err
	}
	return &address, nil
}
