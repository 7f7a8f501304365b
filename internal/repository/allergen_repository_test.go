package repository

import (
	"context"
	"testing"
	"time"

	"carta-api/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func mustCreateProduct(t *testing.T, categoryID uuid.UUID) *domain.Product {
	t.Helper()

	product := &domain.Product{
		ID:         uuid.New(),
		Name:       uniqueName("Allergen Test Product"),
		BasePrice:  decimal.NewFromFloat(5.00),
		Available:  true,
		CategoryID: categoryID,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := NewProductRepository(testDB).Create(context.Background(), product); err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}

	return product
}

func mustCreateAllergen(t *testing.T) *domain.Allergen {
	t.Helper()

	allergen := &domain.Allergen{
		ID:        uuid.New(),
		Name:      "Allergen " + uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
	if err := NewAllergenRepository(testDB).Create(context.Background(), allergen); err != nil {
		t.Fatalf("Failed to create allergen: %v", err)
	}

	return allergen
}

func TestDuplicateAllergenNamesAreRejected(t *testing.T) {
	repo := NewAllergenRepository(testDB)
	ctx := context.Background()

	allergen := mustCreateAllergen(t)
	defer testDB.Exec("DELETE FROM allergens WHERE id = $1", allergen.ID)

	duplicate := &domain.Allergen{
		ID:        uuid.New(),
		Name:      allergen.Name,
		CreatedAt: time.Now().UTC(),
	}

	if err := repo.Create(ctx, duplicate); err != ErrAllergenAlreadyExists {
		t.Fatalf("Expected ErrAllergenAlreadyExists, got: %v", err)
	}
}

func TestReplaceForProductRoundTrip(t *testing.T) {
	repo := NewAllergenRepository(testDB)
	ctx := context.Background()

	category := mustCreateCategory(t)
	defer cleanupCategory(category.ID)

	product := mustCreateProduct(t, category.ID)
	defer cleanupProduct(product.ID)

	first := mustCreateAllergen(t)
	second := mustCreateAllergen(t)
	third := mustCreateAllergen(t)
	defer testDB.Exec("DELETE FROM allergens WHERE id IN ($1, $2, $3)", first.ID, second.ID, third.ID)

	// Initial assignment
	if err := repo.ReplaceForProduct(ctx, product.ID, []uuid.UUID{first.ID, second.ID}); err != nil {
		t.Fatalf("Failed to assign allergens: %v", err)
	}

	assigned, err := repo.ListByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("Failed to list product allergens: %v", err)
	}
	if len(assigned) != 2 {
		t.Fatalf("Expected 2 allergens, got %d", len(assigned))
	}

	// Replacement fully supersedes the previous assignment
	if err := repo.ReplaceForProduct(ctx, product.ID, []uuid.UUID{third.ID}); err != nil {
		t.Fatalf("Failed to replace allergens: %v", err)
	}

	assigned, err = repo.ListByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("Failed to list product allergens: %v", err)
	}
	if len(assigned) != 1 {
		t.Fatalf("Expected 1 allergen after replacement, got %d", len(assigned))
	}
	if assigned[0].ID != third.ID {
		t.Errorf("Expected allergen %s, got %s", third.ID, assigned[0].ID)
	}

	// Replacing with an empty set clears the assignment
	if err := repo.ReplaceForProduct(ctx, product.ID, nil); err != nil {
		t.Fatalf("Failed to clear allergens: %v", err)
	}

	assigned, err = repo.ListByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("Failed to list product allergens: %v", err)
	}
	if len(assigned) != 0 {
		t.Errorf("Expected no allergens after clearing, got %d", len(assigned))
	}
}

func TestReplaceForProductRejectsUnknownAllergen(t *testing.T) {
	repo := NewAllergenRepository(testDB)
	ctx := context.Background()

	category := mustCreateCategory(t)
	defer cleanupCategory(category.ID)

	product := mustCreateProduct(t, category.ID)
	defer cleanupProduct(product.ID)

	err := repo.ReplaceForProduct(ctx, product.ID, []uuid.UUID{uuid.New()})
	if err != ErrAllergenNotFound {
		t.Fatalf("Expected ErrAllergenNotFound, got: %v", err)
	}

	// A failed replacement must not leave partial rows behind
	assigned, err := repo.ListByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("Failed to list product allergens: %v", err)
	}
	if len(assigned) != 0 {
		t.Errorf("Expected no allergens after failed replacement, got %d", len(assigned))
	}
}

func TestDeletingProductCascadesAllergenAssignments(t *testing.T) {
	repo := NewAllergenRepository(testDB)
	productRepo := NewProductRepository(testDB)
	ctx := context.Background()

	category := mustCreateCategory(t)
	defer cleanupCategory(category.ID)

	product := mustCreateProduct(t, category.ID)

	allergen := mustCreateAllergen(t)
	defer testDB.Exec("DELETE FROM allergens WHERE id = $1", allergen.ID)

	if err := repo.ReplaceForProduct(ctx, product.ID, []uuid.UUID{allergen.ID}); err != nil {
		t.Fatalf("Failed to assign allergen: %v", err)
	}

	if err := productRepo.Delete(ctx, product.ID); err != nil {
		t.Fatalf("Failed to delete product: %v", err)
	}

	var count int
	if err := testDB.QueryRow("SELECT COUNT(*) FROM product_allergens WHERE product_id = $1", product.ID).Scan(&count); err != nil {
		t.Fatalf("Failed to count assignments: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected assignments to cascade on product deletion, found %d rows", count)
	}
}
