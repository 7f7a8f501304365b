package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carta-api/internal/domain"
	"carta-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var (
	ErrNegativePrice   = errors.New("precio_base must not be negative")
	ErrNegativeExtra   = errors.New("precio_extra must not be negative")
	ErrUnknownCategory = errors.New("referenced category does not exist")
	ErrUnknownAllergen = errors.New("referenced allergen does not exist")
)

// ProductInput carries the client-supplied fields for create and update.
// Available is a pointer so create can default it to true when omitted.
type ProductInput struct {
	Name        string
	Description string
	BasePrice   decimal.Decimal
	ImagePath   string
	Available   *bool
	CategoryID  uuid.UUID
}

// OptionInput carries the client-supplied fields for a new product option.
type OptionInput struct {
	Name       string
	Type       string
	ExtraPrice decimal.Decimal
}

// ProductService defines the business logic of the product catalog
type ProductService interface {
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error)
	ListCards(ctx context.Context) ([]*domain.ProductCard, error)
	ListCardsByCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.ProductCard, error)
	GetWithOptions(ctx context.Context, id uuid.UUID) (*domain.ProductWithOptions, error)
	GetWithAllergens(ctx context.Context, id uuid.UUID) (*domain.ProductWithAllergens, error)
	AssignAllergens(ctx context.Context, productID uuid.UUID, allergenIDs []uuid.UUID) (*domain.ProductWithAllergens, error)
	AddOption(ctx context.Context, productID uuid.UUID, input OptionInput) (*domain.ProductOption, error)
	RemoveOption(ctx context.Context, productID, optionID uuid.UUID) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	allergenRepo repository.AllergenRepository
	optionRepo   repository.OptionRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	allergenRepo repository.AllergenRepository,
	optionRepo repository.OptionRepository,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		allergenRepo: allergenRepo,
		optionRepo:   optionRepo,
	}
}

// validateInput enforces the catalog invariants shared by create and update:
// non-negative price and an existing category.
func (s *productService) validateInput(ctx context.Context, input ProductInput) error {
	if input.BasePrice.IsNegative() {
		return ErrNegativePrice
	}

	if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
		if err == repository.ErrCategoryNotFound {
			return ErrUnknownCategory
		}
		return fmt.Errorf("failed to check category: %w", err)
	}

	return nil
}

// Create adds a product to the catalog. The id is a v7 UUID so creation
// order is recoverable from the id itself.
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	// Pre-check for a clean conflict; the unique index still backs this up
	// under concurrent creates.
	existing, err := s.productRepo.FindByName(ctx, input.Name)
	if err != nil && err != repository.ErrProductNotFound {
		return nil, fmt.Errorf("failed to check existing product: %w", err)
	}
	if existing != nil {
		return nil, repository.ErrProductNameTaken
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate product id: %w", err)
	}

	available := true
	if input.Available != nil {
		available = *input.Available
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		BasePrice:   input.BasePrice,
		ImagePath:   input.ImagePath,
		Available:   available,
		CategoryID:  input.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Update replaces the mutable fields of a product. The id and created_at
// are immutable.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Name uniqueness, excluding the product itself
	if input.Name != product.Name {
		existing, err := s.productRepo.FindByName(ctx, input.Name)
		if err != nil && err != repository.ErrProductNotFound {
			return nil, fmt.Errorf("failed to check existing product: %w", err)
		}
		if existing != nil {
			return nil, repository.ErrProductNameTaken
		}
	}

	product.Name = input.Name
	product.Description = input.Description
	product.BasePrice = input.BasePrice
	product.ImagePath = input.ImagePath
	if input.Available != nil {
		product.Available = *input.Available
	}
	product.CategoryID = input.CategoryID
	product.UpdatedAt = time.Now().UTC()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Delete removes a product from the catalog
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

// Get retrieves a single product
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// List retrieves a page of products, normalizing pagination bounds
func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	filter.Page, filter.PageSize = NormalizePage(filter.Page, filter.PageSize)
	return s.productRepo.List(ctx, filter)
}

// Search performs a case-insensitive name/description search. An empty query
// falls back to a plain listing.
func (s *productService) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	page, pageSize = NormalizePage(page, pageSize)
	if query == "" {
		return s.productRepo.List(ctx, repository.ProductFilter{Page: page, PageSize: pageSize})
	}
	return s.productRepo.Search(ctx, query, page, pageSize)
}

// ListCards retrieves the card view of the whole catalog
func (s *productService) ListCards(ctx context.Context) ([]*domain.ProductCard, error) {
	return s.productRepo.ListCards(ctx)
}

// ListCardsByCategory retrieves the card view of one category. The category
// must exist; an empty category yields an empty list, not an error.
func (s *productService) ListCardsByCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.ProductCard, error) {
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.productRepo.ListCardsByCategory(ctx, categoryID)
}

// GetWithOptions retrieves a product with its options grouped by type
func (s *productService) GetWithOptions(ctx context.Context, id uuid.UUID) (*domain.ProductWithOptions, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	options, err := s.optionRepo.ListByProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.ProductWithOptions{
		Product:      *product,
		OptionGroups: groupOptions(options),
	}, nil
}

// GetWithAllergens retrieves a product with its allergen tags
func (s *productService) GetWithAllergens(ctx context.Context, id uuid.UUID) (*domain.ProductWithAllergens, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allergens, err := s.allergenRepo.ListByProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.ProductWithAllergens{
		Product:   *product,
		Allergens: allergens,
	}, nil
}

// AssignAllergens replaces a product's allergen set and returns the
// resulting allergen view.
func (s *productService) AssignAllergens(ctx context.Context, productID uuid.UUID, allergenIDs []uuid.UUID) (*domain.ProductWithAllergens, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	if err := s.allergenRepo.ReplaceForProduct(ctx, productID, allergenIDs); err != nil {
		if err == repository.ErrAllergenNotFound {
			return nil, ErrUnknownAllergen
		}
		return nil, err
	}

	return s.GetWithAllergens(ctx, productID)
}

// AddOption attaches a new option to a product
func (s *productService) AddOption(ctx context.Context, productID uuid.UUID, input OptionInput) (*domain.ProductOption, error) {
	if input.ExtraPrice.IsNegative() {
		return nil, ErrNegativeExtra
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate option id: %w", err)
	}

	option := &domain.ProductOption{
		ID:         id,
		ProductID:  productID,
		Name:       input.Name,
		Type:       input.Type,
		ExtraPrice: input.ExtraPrice,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.optionRepo.Create(ctx, option); err != nil {
		return nil, err
	}

	return option, nil
}

// RemoveOption detaches an option from a product
func (s *productService) RemoveOption(ctx context.Context, productID, optionID uuid.UUID) error {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return err
	}
	return s.optionRepo.Delete(ctx, productID, optionID)
}

// groupOptions folds a type-then-name ordered option list into groups,
// preserving order within and across groups.
func groupOptions(options []*domain.ProductOption) []domain.OptionGroup {
	groups := []domain.OptionGroup{}
	for _, option := range options {
		if n := len(groups); n > 0 && groups[n-1].Type == option.Type {
			groups[n-1].Options = append(groups[n-1].Options, option)
			continue
		}
		groups = append(groups, domain.OptionGroup{
			Type:    option.Type,
			Options: []*domain.ProductOption{option},
		})
	}
	return groups
}

// NormalizePage clamps pagination parameters to the supported bounds. The
// transport layer uses the same clamping so the response envelope always
// reports the page that was actually queried.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
