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
	ErrOptionNotFound      = errors.New("product option not found")
	ErrOptionAlreadyExists = errors.New("product already has an option with this type and name")
)

// OptionRepository defines the interface for product option data access
type OptionRepository interface {
	Create(ctx context.Context, option *domain.ProductOption) error
	Delete(ctx context.Context, productID, optionID uuid.UUID) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.ProductOption, error)
}

type optionRepository struct {
	db *sql.DB
}

// NewOptionRepository creates a new instance of OptionRepository
func NewOptionRepository(db *sql.DB) OptionRepository {
	return &optionRepository{db: db}
}

// Create inserts a new option for a product
func (r *optionRepository) Create(ctx context.Context, option *domain.ProductOption) error {
	query := `
		INSERT INTO product_options (id, product_id, name, option_type, extra_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		option.ID,
		option.ProductID,
		option.Name,
		option.Type,
		option.ExtraPrice,
		option.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "product_options_product_id_option_type_name_key") {
			return ErrOptionAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to create product option: %w", err)
	}

	return nil
}

// Delete removes one option from a product. The product id is part of the
// predicate so an option can only be deleted through its own product.
func (r *optionRepository) Delete(ctx context.Context, productID, optionID uuid.UUID) error {
	query := `DELETE FROM product_options WHERE id = $1 AND product_id = $2`

	result, err := r.db.ExecContext(ctx, query, optionID, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product option: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOptionNotFound
	}

	return nil
}

// ListByProduct retrieves a product's options ordered by type then name, so
// callers can group them without re-sorting.
func (r *optionRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.ProductOption, error) {
	query := `
		SELECT id, product_id, name, option_type, extra_price, created_at
		FROM product_options
		WHERE product_id = $1
		ORDER BY option_type ASC, name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product options: %w", err)
	}
	defer rows.Close()

	options := []*domain.ProductOption{}
	for rows.Next() {
		option := &domain.ProductOption{}
		err := rows.Scan(
			&option.ID,
			&option.ProductID,
			&option.Name,
			&option.Type,
			&option.ExtraPrice,
			&option.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product option: %w", err)
		}
		options = append(options, option)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product options: %w", err)
	}

	return options, nil
}
