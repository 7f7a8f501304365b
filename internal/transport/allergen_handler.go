package transport

import (
	"errors"
	"net/http"

	"carta-api/internal/middleware"
	"carta-api/internal/repository"
	"carta-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AllergenRequest is the create payload for an allergen tag
type AllergenRequest struct {
	Name string `json:"nombre" validate:"required,max=100"`
}

// AllergenHandler handles HTTP requests for the allergen catalog
type AllergenHandler struct {
	allergenService service.AllergenService
	logger          *zap.Logger
}

// NewAllergenHandler creates a new AllergenHandler
func NewAllergenHandler(allergenService service.AllergenService, logger *zap.Logger) *AllergenHandler {
	return &AllergenHandler{
		allergenService: allergenService,
		logger:          logger,
	}
}

// RegisterRoutes registers all allergen routes
func (h *AllergenHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/v1/alergenos", func(r chi.Router) {
		r.Get("/", h.List)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(adminMiddleware)
			r.Post("/", h.Create)
		})
	})
}

// Create handles allergen creation
func (h *AllergenHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req AllergenRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Allergen payload validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	allergen, err := h.allergenService.Create(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrAllergenAlreadyExists) {
			middleware.RespondWithError(w, http.StatusConflict, "allergen with this name already exists")
			return
		}
		h.logger.Error("Allergen creation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("Allergen created",
		zap.String("allergen_id", allergen.ID.String()),
		zap.String("name", allergen.Name),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, allergen)
}

// List handles fetching the allergen catalog
func (h *AllergenHandler) List(w http.ResponseWriter, r *http.Request) {
	allergens, err := h.allergenService.List(r.Context())
	if err != nil {
		h.logger.Error("Allergen listing failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, allergens)
}
