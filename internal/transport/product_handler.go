package transport

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"carta-api/internal/middleware"
	"carta-api/internal/repository"
	"carta-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest is the create/update payload for a product
type ProductRequest struct {
	Name        string          `json:"nombre" validate:"required,max=255"`
	Description string          `json:"descripcion" validate:"omitempty,max=2000"`
	BasePrice   decimal.Decimal `json:"precio_base"`
	ImagePath   string          `json:"imagen_path" validate:"omitempty,max=500"`
	Available   *bool           `json:"disponible"`
	CategoryID  uuid.UUID       `json:"id_categoria" validate:"required"`
}

// OptionRequest is the payload for adding an option to a product
type OptionRequest struct {
	Name       string          `json:"nombre" validate:"required,max=255"`
	Type       string          `json:"tipo" validate:"required,max=100"`
	ExtraPrice decimal.Decimal `json:"precio_extra"`
}

// AllergenAssignmentRequest replaces a product's allergen set. An empty list
// clears the assignment.
type AllergenAssignmentRequest struct {
	AllergenIDs []uuid.UUID `json:"alergenos"`
}

// Pagination describes the page of a list response
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ListResponse is the envelope for paginated list responses
type ListResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

func newListResponse(data interface{}, page, pageSize, total int) ListResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return ListResponse{
		Data: data,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	}
}

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes. Reads are public, writes go
// through auth + admin.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/v1/productos", func(r chi.Router) {
		// Public routes
		r.Get("/", h.List)
		r.Get("/search", h.Search)
		r.Get("/cards", h.ListCards)
		r.Get("/categoria/{categoriaID}/cards", h.ListCardsByCategory)
		r.Get("/{productoID}", h.Get)
		r.Get("/{productoID}/opciones", h.GetWithOptions)
		r.Get("/{productoID}/alergenos", h.GetWithAllergens)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(adminMiddleware)
			r.Post("/", h.Create)
			r.Put("/{productoID}", h.Update)
			r.Delete("/{productoID}", h.Delete)
			r.Put("/{productoID}/alergenos", h.AssignAllergens)
			r.Post("/{productoID}/opciones", h.AddOption)
			r.Delete("/{productoID}/opciones/{opcionID}", h.RemoveOption)
		})
	})
}

func urlParamUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

// sortColumns maps the wire-level sort_by values onto their columns. Unknown
// values map to "", which the repository treats as the created_at default.
var sortColumns = map[string]string{
	"nombre":      "name",
	"precio_base": "base_price",
	"created_at":  "created_at",
}

// respondServiceError maps service and repository errors to the API's error
// contract.
func (h *ProductHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrProductNameTaken):
		middleware.RespondWithError(w, http.StatusConflict, "product with this name already exists")
	case errors.Is(err, repository.ErrOptionAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, "product already has an option with this type and name")
	case errors.Is(err, service.ErrNegativePrice),
		errors.Is(err, service.ErrNegativeExtra),
		errors.Is(err, service.ErrUnknownCategory),
		errors.Is(err, service.ErrUnknownAllergen):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCategoryNotFound),
		errors.Is(err, repository.ErrOptionNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("Product operation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *ProductHandler) decodeProductRequest(w http.ResponseWriter, r *http.Request) (*ProductRequest, bool) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product payload validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return nil, false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return &req, true
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeProductRequest(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Create(r.Context(), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		BasePrice:   req.BasePrice,
		ImagePath:   req.ImagePath,
		Available:   req.Available,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Get handles fetching a single product
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamUUID(r, "productoID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// List handles the paginated product listing with optional filters
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.ProductFilter{
		Page:      queryInt(r, "page", service.DefaultPage),
		PageSize:  queryInt(r, "page_size", service.DefaultPageSize),
		SortBy:    sortColumns[r.URL.Query().Get("sort_by")],
		SortOrder: repository.SortOrder(strings.ToUpper(r.URL.Query().Get("sort_order"))),
	}
	filter.Page, filter.PageSize = service.NormalizePage(filter.Page, filter.PageSize)

	if raw := r.URL.Query().Get("id_categoria"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
			return
		}
		filter.CategoryID = &categoryID
	}

	if raw := r.URL.Query().Get("disponible"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid disponible filter")
			return
		}
		filter.Available = &available
	}

	products, total, err := h.productService.List(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newListResponse(products, filter.Page, filter.PageSize, total))
}

// Search handles name/description search
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page, pageSize := service.NormalizePage(
		queryInt(r, "page", service.DefaultPage),
		queryInt(r, "page_size", service.DefaultPageSize),
	)

	products, total, err := h.productService.Search(r.Context(), query, page, pageSize)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newListResponse(products, page, pageSize, total))
}

// ListCards handles the card view of the whole catalog
func (h *ProductHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.productService.ListCards(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cards)
}

// ListCardsByCategory handles the card view filtered by category
func (h *ProductHandler) ListCardsByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := urlParamUUID(r, "categoriaID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	cards, err := h.productService.ListCardsByCategory(r.Context(), categoryID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cards)
}

// Update handles product update
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamUUID(r, "productoID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	req, ok := h.decodeProductRequest(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Update(r.Context(), id, service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		BasePrice:   req.BasePrice,
		ImagePath:   req.ImagePath,
		Available:   req.Available,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete handles product deletion
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamUUID(r, "productoID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// GetWithOptions handles the product-with-options view
func (h *ProductHandler) GetWithOptions(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamUUID(r, "productoID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.productService.GetWithOptions(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// GetWithAllergens handles the product-with-allergens view
func (h *ProductHandler) GetWithAllergens(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamUUID(r, "productoID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.productService.GetWithAllergens(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// AssignAllergens handles replacing a product's allergen set
func (h *ProductHandler) AssignAllergens(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamUUID(r, "productoID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req AllergenAssignmentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Allergen assignment validation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.AssignAllergens(r.Context(), id, req.AllergenIDs)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.logger.Info("Product allergens assigned",
		zap.String("product_id", id.String()),
		zap.Int("count", len(req.AllergenIDs)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// AddOption handles adding an option to a product
func (h *ProductHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamUUID(r, "productoID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req OptionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Option payload validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	option, err := h.productService.AddOption(r.Context(), id, service.OptionInput{
		Name:       req.Name,
		Type:       req.Type,
		ExtraPrice: req.ExtraPrice,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.logger.Info("Product option added",
		zap.String("product_id", id.String()),
		zap.String("option_id", option.ID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, option)
}

// RemoveOption handles removing an option from a product
func (h *ProductHandler) RemoveOption(w http.ResponseWriter, r *http.Request) {
	productID, err := urlParamUUID(r, "productoID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	optionID, err := urlParamUUID(r, "opcionID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid option id")
		return
	}

	if err := h.productService.RemoveOption(r.Context(), productID, optionID); err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.logger.Info("Product option removed",
		zap.String("product_id", productID.String()),
		zap.String("option_id", optionID.String()),
	)
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
