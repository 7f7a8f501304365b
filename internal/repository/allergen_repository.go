package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"carta-api/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrAllergenNotFound      = errors.New("allergen not found")
	ErrAllergenAlreadyExists = errors.New("allergen with this name already exists")
)

// AllergenRepository defines the interface for allergen data access,
// covering both the allergen catalog and per-product assignments.
type AllergenRepository interface {
	Create(ctx context.Context, allergen *domain.Allergen) error
	List(ctx context.Context) ([]*domain.Allergen, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Allergen, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Allergen, error)
	ReplaceForProduct(ctx context.Context, productID uuid.UUID, allergenIDs []uuid.UUID) error
}

type allergenRepository struct {
	db *sql.DB
}

// NewAllergenRepository creates a new instance of AllergenRepository
func NewAllergenRepository(db *sql.DB) AllergenRepository {
	return &allergenRepository{db: db}
}

// Create inserts a new allergen into the catalog
func (r *allergenRepository) Create(ctx context.Context, allergen *domain.Allergen) error {
	query := `
		INSERT INTO allergens (id, name, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.ExecContext(ctx, query, allergen.ID, allergen.Name, allergen.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "allergens_name_key") {
			return ErrAllergenAlreadyExists
		}
		return fmt.Errorf("failed to create allergen: %w", err)
	}

	return nil
}

// List retrieves the full allergen catalog
func (r *allergenRepository) List(ctx context.Context) ([]*domain.Allergen, error) {
	query := `
		SELECT id, name, created_at
		FROM allergens
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list allergens: %w", err)
	}
	defer rows.Close()

	return scanAllergens(rows)
}

// FindByID retrieves an allergen by ID
func (r *allergenRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Allergen, error) {
	query := `
		SELECT id, name, created_at
		FROM allergens
		WHERE id = $1
	`

	allergen := &domain.Allergen{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&allergen.ID, &allergen.Name, &allergen.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAllergenNotFound
		}
		return nil, fmt.Errorf("failed to find allergen by ID: %w", err)
	}

	return allergen, nil
}

// ListByProduct retrieves the allergens assigned to one product
func (r *allergenRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Allergen, error) {
	query := `
		SELECT a.id, a.name, a.created_at
		FROM allergens a
		JOIN product_allergens pa ON pa.allergen_id = a.id
		WHERE pa.product_id = $1
		ORDER BY a.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product allergens: %w", err)
	}
	defer rows.Close()

	return scanAllergens(rows)
}

// ReplaceForProduct swaps a product's allergen assignment for the given set
// in a single transaction. An empty set clears the assignment.
func (r *allergenRepository) ReplaceForProduct(ctx context.Context, productID uuid.UUID, allergenIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_allergens WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("failed to clear product allergens: %w", err)
	}

	for _, allergenID := range allergenIDs {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO product_allergens (product_id, allergen_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			productID,
			allergenID,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrAllergenNotFound
			}
			return fmt.Errorf("failed to assign allergen: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit allergen assignment: %w", err)
	}

	return nil
}

func scanAllergens(rows *sql.Rows) ([]*domain.Allergen, error) {
	allergens := []*domain.Allergen{}
	for rows.Next() {
		allergen := &domain.Allergen{}
		if err := rows.Scan(&allergen.ID, &allergen.Name, &allergen.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan allergen: %w", err)
		}
		allergens = append(allergens, allergen)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allergens: %w", err)
	}

	return allergens, nil
}
