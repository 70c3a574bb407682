package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/contactshub/contacts-api/internal/database"
)

var ErrNotFound = errors.New("contact not found")

// Store is the persistence contract the handlers run against. Every method
// takes the owner id; a record belonging to another owner behaves exactly
// like a missing one.
type Store interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]Contact, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Contact, error)
	Create(ctx context.Context, ownerID uuid.UUID, name, email, phone string) (*Contact, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, update Update) (*Contact, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) (*Contact, error)
	SetFavorite(ctx context.Context, ownerID, id uuid.UUID, favorite bool) (*Contact, error)
}

// Repository is the bun-backed Store.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, ownerID uuid.UUID) ([]Contact, error) {
	var rows []database.Contact
	err := r.db.NewSelect().
		Model(&rows).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	contacts := make([]Contact, 0, len(rows))
	for i := range rows {
		contacts = append(contacts, *mapDBContactToModel(&rows[i]))
	}

	return contacts, nil
}

func (r *Repository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Contact, error) {
	row := new(database.Contact)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return mapDBContactToModel(row), nil
}

func (r *Repository) Create(ctx context.Context, ownerID uuid.UUID, name, email, phone string) (*Contact, error) {
	row := &database.Contact{
		Name:    name,
		Email:   email,
		Phone:   phone,
		OwnerID: ownerID,
	}

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	return mapDBContactToModel(row), nil
}

func (r *Repository) Update(ctx context.Context, ownerID, id uuid.UUID, update Update) (*Contact, error) {
	row := new(database.Contact)
	q := r.db.NewUpdate().
		Model(row).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		Returning("*")

	if update.Name != nil {
		q = q.Set("name = ?", *update.Name)
	}
	if update.Email != nil {
		q = q.Set("email = ?", *update.Email)
	}
	if update.Phone != nil {
		q = q.Set("phone = ?", *update.Phone)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	if err := checkRowsAffected(result); err != nil {
		return nil, err
	}

	return mapDBContactToModel(row), nil
}

func (r *Repository) Delete(ctx context.Context, ownerID, id uuid.UUID) (*Contact, error) {
	row := new(database.Contact)
	result, err := r.db.NewDelete().
		Model(row).
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to delete contact: %w", err)
	}

	if err := checkRowsAffected(result); err != nil {
		return nil, err
	}

	return mapDBContactToModel(row), nil
}

func (r *Repository) SetFavorite(ctx context.Context, ownerID, id uuid.UUID, favorite bool) (*Contact, error) {
	row := new(database.Contact)
	result, err := r.db.NewUpdate().
		Model(row).
		Set("favorite = ?", favorite).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to update favorite: %w", err)
	}

	if err := checkRowsAffected(result); err != nil {
		return nil, err
	}

	return mapDBContactToModel(row), nil
}

func checkRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func mapDBContactToModel(row *database.Contact) *Contact {
	return &Contact{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		Phone:     row.Phone,
		Favorite:  row.Favorite,
		OwnerID:   row.OwnerID,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
