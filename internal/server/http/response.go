package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fodmapkitchen/recipe-catalog-service/internal/domain"
	"github.com/fodmapkitchen/recipe-catalog-service/internal/pagination"
	"github.com/fodmapkitchen/recipe-catalog-service/internal/querybuilder"
)

// Stable machine-readable error codes for client-side branching.
const (
	codeValidationFailure  = "VALIDATION_FAILURE"
	codeNotFound           = "NOT_FOUND"
	codeConflict           = "CONFLICT"
	codeServiceUnavailable = "SERVICE_UNAVAILABLE"
	codeRateLimited        = "RATE_LIMITED"
	codeInternalError      = "INTERNAL_ERROR"
)

// successResponse is the envelope for every successful response.
type successResponse struct {
	Error      bool                 `json:"error"`
	Message    string               `json:"message"`
	Data       interface{}          `json:"data"`
	Pagination *pagination.PageInfo `json:"pagination,omitempty"`
}

// errorResponse is the envelope for every failure response.
type errorResponse struct {
	Error   bool     `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	Code    string   `json:"code"`
}

// bulkSummary counts the per-item outcomes of a bulk operation.
type bulkSummary struct {
	TotalSubmitted int `json:"total_submitted"`
	Successful     int `json:"successful"`
	Failed         int `json:"failed"`
}

// bulkCreateData is the data block of a bulk create response.
type bulkCreateData struct {
	Created []domain.BulkCreatedRecipe `json:"created"`
	Errors  []domain.BulkCreateError   `json:"errors"`
	Summary bulkSummary                `json:"summary"`
}

// bulkDeleteData is the data block of a bulk delete response.
type bulkDeleteData struct {
	Deleted []domain.RecipeRef       `json:"deleted"`
	Errors  []domain.BulkDeleteError `json:"errors"`
	Summary bulkSummary              `json:"summary"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeSuccess writes a success envelope.
func writeSuccess(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	writeJSON(w, statusCode, successResponse{Message: message, Data: data})
}

// writePaginated writes a success envelope with a pagination block.
func writePaginated(w http.ResponseWriter, message string, data interface{}, page pagination.PageInfo) {
	writeJSON(w, http.StatusOK, successResponse{Message: message, Data: data, Pagination: &page})
}

// writeError writes an error envelope.
func writeError(w http.ResponseWriter, statusCode int, message, code string, details ...string) {
	writeJSON(w, statusCode, errorResponse{
		Error:   true,
		Message: message,
		Details: details,
		Code:    code,
	})
}

// writeDomainError maps domain errors to HTTP status codes and stable error
// codes. Raw driver or internal error text is never sent to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var conflictErr *domain.ConflictError
	var validationErr *domain.ValidationError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "validation failed", codeValidationFailure, validationErr.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input", codeValidationFailure)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), codeNotFound)
	case errors.As(err, &conflictErr):
		writeError(w, http.StatusConflict, conflictErr.Error(), conflictErr.Code)
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict with existing state", codeConflict)
	case errors.Is(err, domain.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable", codeServiceUnavailable)
	case errors.Is(err, querybuilder.ErrInvalidCondition):
		// Programmer error in filter wiring, not user input.
		writeError(w, http.StatusInternalServerError, "internal server error", codeInternalError)
	default:
		writeError(w, http.StatusInternalServerError, "internal server error", codeInternalError)
	}
}

// Response DTOs. Domain models stay transport-agnostic; these fix the JSON
// field names of the public API.

type categoryResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ingredientResponse struct {
	ID           int64               `json:"id"`
	Name         string              `json:"name"`
	QuantityUnit *string             `json:"quantity_unit"`
	FodmapLevel  *domain.FodmapLevel `json:"fodmap_level"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type tagResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type recipeSummaryResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description"`
	PreparationTime *int32    `json:"preparation_time"`
	ServingSize     *int32    `json:"serving_size"`
	ImageURL        *string   `json:"image_url"`
	CategoryID      int64     `json:"category_id"`
	CategoryName    string    `json:"category_name"`
	IngredientCount int64     `json:"ingredient_count"`
	TagCount        int64     `json:"tag_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type recipeDetailResponse struct {
	ID              int64                           `json:"id"`
	Title           string                          `json:"title"`
	Description     *string                         `json:"description"`
	PreparationTime *int32                          `json:"preparation_time"`
	ServingSize     *int32                          `json:"serving_size"`
	ImageURL        *string                         `json:"image_url"`
	CategoryID      int64                           `json:"category_id"`
	CategoryName    string                          `json:"category_name"`
	CreatedBy       string                          `json:"created_by"`
	UpdatedBy       string                          `json:"updated_by"`
	CreatedAt       time.Time                       `json:"created_at"`
	UpdatedAt       time.Time                       `json:"updated_at"`
	Ingredients     []domain.RecipeIngredientDetail `json:"ingredients"`
	Tags            []domain.TagRef                 `json:"tags"`
}

func domainCategoryToResponse(c *domain.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func domainIngredientToResponse(i *domain.Ingredient) ingredientResponse {
	return ingredientResponse{
		ID:           i.ID,
		Name:         i.Name,
		QuantityUnit: i.QuantityUnit,
		FodmapLevel:  i.FodmapLevel,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

func domainTagToResponse(t *domain.Tag) tagResponse {
	return tagResponse{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
}

func domainSummaryToResponse(s *domain.RecipeSummary) recipeSummaryResponse {
	return recipeSummaryResponse{
		ID:              s.ID,
		Title:           s.Title,
		Description:     s.Description,
		PreparationTime: s.PreparationTime,
		ServingSize:     s.ServingSize,
		ImageURL:        s.ImageURL,
		CategoryID:      s.CategoryID,
		CategoryName:    s.CategoryName,
		IngredientCount: s.IngredientCount,
		TagCount:        s.TagCount,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func domainDetailToResponse(d *domain.RecipeDetail) recipeDetailResponse {
	ingredients := d.Ingredients
	if ingredients == nil {
		ingredients = []domain.RecipeIngredientDetail{}
	}
	tags := d.Tags
	if tags == nil {
		tags = []domain.TagRef{}
	}
	return recipeDetailResponse{
		ID:              d.ID,
		Title:           d.Title,
		Description:     d.Description,
		PreparationTime: d.PreparationTime,
		ServingSize:     d.ServingSize,
		ImageURL:        d.ImageURL,
		CategoryID:      d.CategoryID,
		CategoryName:    d.CategoryName,
		CreatedBy:       d.CreatedBy,
		UpdatedBy:       d.UpdatedBy,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		Ingredients:     ingredients,
		Tags:            tags,
	}
}

func newBulkCreateResponse(result *domain.BulkCreateResult, submitted int) (int, bulkCreateData) {
	data := bulkCreateData{
		Created: result.Created,
		Errors:  result.Errors,
		Summary: bulkSummary{
			TotalSubmitted: submitted,
			Successful:     len(result.Created),
			Failed:         len(result.Errors),
		},
	}
	status := http.StatusCreated
	if len(result.Errors) > 0 {
		status = http.StatusMultiStatus
	}
	return status, data
}

func newBulkDeleteResponse(result *domain.BulkDeleteResult, submitted int) (int, bulkDeleteData) {
	data := bulkDeleteData{
		Deleted: result.Deleted,
		Errors:  result.Errors,
		Summary: bulkSummary{
			TotalSubmitted: submitted,
			Successful:     len(result.Deleted),
			Failed:         len(result.Errors),
		},
	}
	status := http.StatusOK
	if len(result.Errors) > 0 {
		status = http.StatusMultiStatus
	}
	return status, data
}
