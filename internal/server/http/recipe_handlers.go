package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fodmapkitchen/recipe-catalog-service/internal/domain"
	"github.com/fodmapkitchen/recipe-catalog-service/internal/pagination"
)

// Request body and batch bounds.
const (
	maxRequestBodySize = 1 << 20 // 1 MB
	maxBulkItems       = 100
	userHeader         = "X-User-Email"
	anonymousUser      = "anonymous"
)

// recipeIngredientRequest is one ingredient association in a recipe payload.
type recipeIngredientRequest struct {
	IngredientID int64   `json:"ingredient_id" validate:"required,gt=0"`
	Quantity     float64 `json:"quantity" validate:"required,gt=0"`
}

// recipeRequest is the JSON request body for creating or updating a recipe.
// On update, a present ingredients/tags key (even an empty list) replaces the
// existing set; an absent key leaves it untouched.
type recipeRequest struct {
	Title           string                     `json:"title" validate:"required,max=255"`
	Description     *string                    `json:"description" validate:"omitempty,max=2000"`
	PreparationTime *int32                     `json:"preparation_time" validate:"omitempty,gt=0"`
	ServingSize     *int32                     `json:"serving_size" validate:"omitempty,gt=0"`
	ImageURL        *string                    `json:"image_url" validate:"omitempty,url,max=2048"`
	CategoryID      int64                      `json:"category_id" validate:"required,gt=0"`
	Ingredients     *[]recipeIngredientRequest `json:"ingredients" validate:"omitempty,dive"`
	Tags            *[]int64                   `json:"tags" validate:"omitempty,dive,gt=0"`
}

// bulkDeleteRequest is the JSON request body for a bulk delete.
type bulkDeleteRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,max=100,dive,gt=0"`
}

// replaceIngredientsRequest is the JSON request body for replacing a
// recipe's ingredient set.
type replaceIngredientsRequest struct {
	Ingredients []recipeIngredientRequest `json:"ingredients" validate:"dive"`
}

// decodeBody decodes a size-limited JSON request body into dst and validates
// its struct tags. The returned bool reports success; the error response has
// already been written on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body", codeValidationFailure)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body", codeValidationFailure)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", codeValidationFailure, validationDetails(err)...)
		return false
	}
	return true
}

// validationDetails flattens validator errors into user-facing strings.
func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"invalid request body"}
	}
	details := make([]string, len(verrs))
	for i, fe := range verrs {
		details[i] = fmt.Sprintf("field %s failed on rule %s", strings.ToLower(fe.Field()), fe.Tag())
	}
	return details
}

// parseID parses a positive int64 path parameter, writing a 400 on failure.
func parseID(w http.ResponseWriter, raw, fieldName string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("%s must be a positive integer", fieldName), codeValidationFailure)
		return 0, false
	}
	return id, true
}

// requestUser resolves the acting user for created_by/updated_by columns.
// Authentication is handled upstream; this only records identity.
func requestUser(r *http.Request) string {
	if u := r.Header.Get(userHeader); u != "" {
		return u
	}
	return anonymousUser
}

// pageFromQuery resolves page/limit query parameters.
func pageFromQuery(r *http.Request) pagination.Params {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return pagination.Resolve(page, limit)
}

func (req *recipeRequest) ingredientSet() *[]domain.RecipeIngredient {
	if req.Ingredients == nil {
		return nil
	}
	set := make([]domain.RecipeIngredient, len(*req.Ingredients))
	for i, ing := range *req.Ingredients {
		set[i] = domain.RecipeIngredient{IngredientID: ing.IngredientID, Quantity: ing.Quantity}
	}
	return &set
}

// createRecipe handles POST /api/v1/recipes.
func (s *Server) createRecipe(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	input := &domain.NewRecipe{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		PreparationTime: req.PreparationTime,
		ServingSize:     req.ServingSize,
		ImageURL:        req.ImageURL,
		CategoryID:      req.CategoryID,
		CreatedBy:       requestUser(r),
	}
	if set := req.ingredientSet(); set != nil {
		input.Ingredients = *set
	}
	if req.Tags != nil {
		input.Tags = *req.Tags
	}

	detail, err := s.recipeRepo.Create(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "recipe created", domainDetailToResponse(detail))
}

// updateRecipe handles PUT /api/v1/recipes/{recipeID}.
func (s *Server) updateRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "recipeID"), "recipe_id")
	if !ok {
		return
	}

	var req recipeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	input := &domain.RecipeUpdate{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		PreparationTime: req.PreparationTime,
		ServingSize:     req.ServingSize,
		ImageURL:        req.ImageURL,
		CategoryID:      req.CategoryID,
		UpdatedBy:       requestUser(r),
		Ingredients:     req.ingredientSet(),
		Tags:            req.Tags,
	}

	detail, err := s.recipeRepo.Update(r.Context(), id, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "recipe updated", domainDetailToResponse(detail))
}

// deleteRecipe handles DELETE /api/v1/recipes/{recipeID}.
func (s *Server) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "recipeID"), "recipe_id")
	if !ok {
		return
	}

	ref, err := s.recipeRepo.Delete(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "recipe deleted", ref)
}

// getRecipe handles GET /api/v1/recipes/{recipeID}.
func (s *Server) getRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "recipeID"), "recipe_id")
	if !ok {
		return
	}

	detail, err := s.recipeRepo.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "recipe retrieved", domainDetailToResponse(detail))
}

// listRecipes handles GET /api/v1/recipes.
func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	q := r.URL.Query()

	filter := domain.RecipeFilter{
		Search:  strings.TrimSpace(q.Get("search")),
		TagName: strings.TrimSpace(q.Get("tag")),
	}
	if raw := q.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "category_id must be a positive integer", codeValidationFailure)
			return
		}
		filter.CategoryID = &id
	}
	if raw := q.Get("max_preparation_time"); raw != "" {
		minutes, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || minutes <= 0 {
			writeError(w, http.StatusBadRequest, "max_preparation_time must be a positive integer", codeValidationFailure)
			return
		}
		m := int32(minutes)
		filter.MaxPreparationTime = &m
	}

	summaries, totalCount, err := s.recipeRepo.List(r.Context(), filter, page)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	data := make([]recipeSummaryResponse, len(summaries))
	for i, summary := range summaries {
		data[i] = domainSummaryToResponse(summary)
	}

	writePaginated(w, "recipes retrieved", data, pagination.NewPageInfo(page, totalCount))
}

// bulkCreateRecipes handles POST /api/v1/recipes/bulk. Partial failure is
// normal: successes commit and the response reports both sides.
func (s *Server) bulkCreateRecipes(w http.ResponseWriter, r *http.Request) {
	var reqs []recipeRequest
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body", codeValidationFailure)
		return
	}
	if err := json.Unmarshal(body, &reqs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body: expected an array of recipes", codeValidationFailure)
		return
	}
	if len(reqs) == 0 {
		writeError(w, http.StatusBadRequest, "at least one recipe is required", codeValidationFailure)
		return
	}
	if len(reqs) > maxBulkItems {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("at most %d recipes per request", maxBulkItems), codeValidationFailure)
		return
	}

	user := requestUser(r)
	items := make([]domain.NewRecipe, len(reqs))
	for i, req := range reqs {
		items[i] = domain.NewRecipe{
			Title:           strings.TrimSpace(req.Title),
			Description:     req.Description,
			PreparationTime: req.PreparationTime,
			ServingSize:     req.ServingSize,
			ImageURL:        req.ImageURL,
			CategoryID:      req.CategoryID,
			CreatedBy:       user,
		}
		if set := req.ingredientSet(); set != nil {
			items[i].Ingredients = *set
		}
		if req.Tags != nil {
			items[i].Tags = *req.Tags
		}
	}

	result, err := s.recipeRepo.BulkCreate(r.Context(), items)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordBulkItems("recipe_create", len(result.Created), len(result.Errors))
	}

	status, data := newBulkCreateResponse(result, len(items))
	writeSuccess(w, status, "bulk create processed", data)
}

// bulkDeleteRecipes handles DELETE /api/v1/recipes/bulk.
func (s *Server) bulkDeleteRecipes(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.recipeRepo.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordBulkItems("recipe_delete", len(result.Deleted), len(result.Errors))
	}

	status, data := newBulkDeleteResponse(result, len(req.IDs))
	writeSuccess(w, status, "bulk delete processed", data)
}

// replaceRecipeIngredients handles PUT /api/v1/recipes/{recipeID}/ingredients.
func (s *Server) replaceRecipeIngredients(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "recipeID"), "recipe_id")
	if !ok {
		return
	}

	var req replaceIngredientsRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	set := make([]domain.RecipeIngredient, len(req.Ingredients))
	for i, ing := range req.Ingredients {
		set[i] = domain.RecipeIngredient{IngredientID: ing.IngredientID, Quantity: ing.Quantity}
	}

	details, err := s.recipeRepo.ReplaceIngredients(r.Context(), id, set)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if details == nil {
		details = []domain.RecipeIngredientDetail{}
	}
	writeSuccess(w, http.StatusOK, "recipe ingredients replaced", details)
}
