package service

import (
	"context"
	"fmt"
	"time"

	"carta-api/internal/domain"
	"carta-api/internal/repository"

	"github.com/google/uuid"
)

// AllergenService defines the business logic for the allergen catalog
type AllergenService interface {
	Create(ctx context.Context, name string) (*domain.Allergen, error)
	List(ctx context.Context) ([]*domain.Allergen, error)
}

type allergenService struct {
	allergenRepo repository.AllergenRepository
}

// NewAllergenService creates a new instance of AllergenService
func NewAllergenService(allergenRepo repository.AllergenRepository) AllergenService {
	return &allergenService{allergenRepo: allergenRepo}
}

func (s *allergenService) Create(ctx context.Context, name string) (*domain.Allergen, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate allergen id: %w", err)
	}

	allergen := &domain.Allergen{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.allergenRepo.Create(ctx, allergen); err != nil {
		return nil, err
	}

	return allergen, nil
}

func (s *allergenService) List(ctx context.Context) ([]*domain.Allergen, error) {
	return s.allergenRepo.List(ctx)
}
