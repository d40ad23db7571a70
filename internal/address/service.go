package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merchforge/merchforge-backend/internal/repo"
	"github.com/merchforge/merchforge-backend/pkg/db/models"
	"github.com/merchforge/merchforge-backend/pkg/errors"
	"github.com/merchforge/merchforge-backend/pkg/pagination"
)

type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
	Create(ctx context.Context, userID uuid.UUID, input Input) (*models.Address, error)
	Update(ctx context.Context, userID, id uuid.UUID, input Input) (*models.Address, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
	AdminList(ctx context.Context, userID *uuid.UUID, params pagination.Params) (*pagination.Page[models.Address], error)
	AdminDelete(ctx context.Context, id uuid.UUID) error
}

// Input is the full address payload for create and update.
type Input struct {
	Label      string
	FullName   string
	Phone      string
	Line1      string
	Line2      *string
	City       string
	State      string
	PostalCode string
	Country    string
	IsDefault  bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repository *Repository, tx txRunner) (Service, error) {
	if repository == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repository, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list addresses")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	address, err := s.repo.FindForUser(ctx, userID, id)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return address, nil
}

// Create stores the address. The first address of a user is always the default.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input Input) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "user id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	address := &models.Address{UserID: userID}
	input.apply(address)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		count, err := txRepo.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if count == 0 {
			address.IsDefault = true
		}
		if address.IsDefault {
			if err := txRepo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return txRepo.Create(ctx, address)
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "create address")
	}
	return address, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input Input) (*models.Address, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var updated *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		address, err := txRepo.FindForUser(ctx, userID, id)
		if err != nil {
			return mapLoadError(err)
		}
		wasDefault := address.IsDefault
		input.apply(address)
		// the default can only move to another address, never be dropped
		if wasDefault {
			address.IsDefault = true
		}
		if address.IsDefault && !wasDefault {
			if err := txRepo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		if err := txRepo.Save(ctx, address); err != nil {
			return err
		}
		updated = address
		return nil
	})
	if err != nil {
		if errors.As(err) != nil {
			return nil, err
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "update address")
	}
	return updated, nil
}

// Delete removes the address and promotes the newest remaining one when the
// default was removed.
func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		address, err := txRepo.FindForUser(ctx, userID, id)
		if err != nil {
			return mapLoadError(err)
		}
		return s.remove(ctx, txRepo, address)
	})
	return wrapTxError(err, "delete address")
}

// AdminList pages through every saved address. A non-nil userID narrows the
// listing to one customer.
func (s *service) AdminList(ctx context.Context, userID *uuid.UUID, params pagination.Params) (*pagination.Page[models.Address], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.ListAll(ctx, userID, params)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list addresses")
	}
	return &page, nil
}

func (s *service) AdminDelete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		address, err := txRepo.FindByID(ctx, id)
		if err != nil {
			return mapLoadError(err)
		}
		return s.remove(ctx, txRepo, address)
	})
	return wrapTxError(err, "delete address")
}

func (s *service) SetDefault(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	var address *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		found, err := txRepo.FindForUser(ctx, userID, id)
		if err != nil {
			return mapLoadError(err)
		}
		if err := txRepo.ClearDefault(ctx, userID); err != nil {
			return err
		}
		if err := txRepo.MarkDefault(ctx, found.ID); err != nil {
			return err
		}
		found.IsDefault = true
		address = found
		return nil
	})
	if err := wrapTxError(err, "set default address"); err != nil {
		return nil, err
	}
	return address, nil
}

func (s *service) remove(ctx context.Context, txRepo *Repository, address *models.Address) error {
	if err := txRepo.Delete(ctx, address.ID); err != nil {
		return err
	}
	if !address.IsDefault {
		return nil
	}
	next, err := txRepo.NewestForUser(ctx, address.UserID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil
		}
		return err
	}
	return txRepo.MarkDefault(ctx, next.ID)
}

func (in Input) validate() error {
	required := []struct{ field, value string }{
		{"full_name", in.FullName},
		{"phone", in.Phone},
		{"line1", in.Line1},
		{"city", in.City},
		{"state", in.State},
		{"postal_code", in.PostalCode},
		{"country", in.Country},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return errors.New(errors.CodeValidation, "address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func (in Input) apply(address *models.Address) {
	address.Label = strings.TrimSpace(in.Label)
	if address.Label == "" {
		address.Label = "home"
	}
	address.FullName = strings.TrimSpace(in.FullName)
	address.Phone = strings.TrimSpace(in.Phone)
	address.Line1 = strings.TrimSpace(in.Line1)
	address.Line2 = in.Line2
	address.City = strings.TrimSpace(in.City)
	address.State = strings.TrimSpace(in.State)
	address.PostalCode = strings.TrimSpace(in.PostalCode)
	address.Country = strings.TrimSpace(in.Country)
	address.IsDefault = in.IsDefault
}

func mapLoadError(err error) error {
	if repo.IsNotFound(err) {
		return errors.New(errors.CodeNotFound, "address not found")
	}
	return errors.Wrap(errors.CodeDependency, err, "load address")
}

func wrapTxError(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.As(err) != nil {
		return err
	}
	return errors.Wrap(errors.CodeDependency, err, message)
}
