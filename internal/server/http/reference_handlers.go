package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fodmapkitchen/recipe-catalog-service/internal/domain"
	"github.com/fodmapkitchen/recipe-catalog-service/internal/pagination"
)

// nameRequest is the JSON request body for category and tag writes.
type nameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// ingredientRequest is the JSON request body for ingredient writes.
type ingredientRequest struct {
	Name         string  `json:"name" validate:"required,max=255"`
	QuantityUnit *string `json:"quantity_unit" validate:"omitempty,max=50"`
	FodmapLevel  *string `json:"fodmap_level" validate:"omitempty,oneof=LOW MODERATE HIGH"`
}

// listCategories handles GET /api/v1/categories.
func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categoryRepo.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	data := make([]categoryResponse, len(categories))
	for i, c := range categories {
		data[i] = domainCategoryToResponse(c)
	}
	writeSuccess(w, http.StatusOK, "categories retrieved", data)
}

// getCategory handles GET /api/v1/categories/{categoryID}.
func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "categoryID"), "category_id")
	if !ok {
		return
	}

	c, err := s.categoryRepo.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "category retrieved", domainCategoryToResponse(c))
}

// createCategory handles POST /api/v1/categories.
func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	c, err := s.categoryRepo.Create(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "category created", domainCategoryToResponse(c))
}

// updateCategory handles PUT /api/v1/categories/{categoryID}.
func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "categoryID"), "category_id")
	if !ok {
		return
	}

	var req nameRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	c, err := s.categoryRepo.Update(r.Context(), id, strings.TrimSpace(req.Name))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "category updated", domainCategoryToResponse(c))
}

// deleteCategory handles DELETE /api/v1/categories/{categoryID}. Deletion is
// blocked with a 409 while any recipe references the category.
func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "categoryID"), "category_id")
	if !ok {
		return
	}

	if err := s.categoryRepo.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "category deleted", map[string]int64{"id": id})
}

// listIngredients handles GET /api/v1/ingredients.
func (s *Server) listIngredients(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	q := r.URL.Query()

	filter := domain.IngredientFilter{Search: strings.TrimSpace(q.Get("search"))}
	if raw := q.Get("fodmap_level"); raw != "" {
		level, err := domain.ParseFodmapLevel(strings.ToUpper(raw))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		filter.FodmapLevel = &level
	}

	ingredients, totalCount, err := s.ingredientRepo.List(r.Context(), filter, page)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	data := make([]ingredientResponse, len(ingredients))
	for i, ing := range ingredients {
		data[i] = domainIngredientToResponse(ing)
	}
	writePaginated(w, "ingredients retrieved", data, pagination.NewPageInfo(page, totalCount))
}

// getIngredient handles GET /api/v1/ingredients/{ingredientID}.
func (s *Server) getIngredient(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "ingredientID"), "ingredient_id")
	if !ok {
		return
	}

	ing, err := s.ingredientRepo.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "ingredient retrieved", domainIngredientToResponse(ing))
}

// createIngredient handles POST /api/v1/ingredients.
func (s *Server) createIngredient(w http.ResponseWriter, r *http.Request) {
	var req ingredientRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	var level *domain.FodmapLevel
	if req.FodmapLevel != nil {
		l := domain.FodmapLevel(*req.FodmapLevel)
		level = &l
	}

	ing, err := s.ingredientRepo.Create(r.Context(), strings.TrimSpace(req.Name), req.QuantityUnit, level)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "ingredient created", domainIngredientToResponse(ing))
}

// updateIngredient handles PUT /api/v1/ingredients/{ingredientID}.
func (s *Server) updateIngredient(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "ingredientID"), "ingredient_id")
	if !ok {
		return
	}

	var req ingredientRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	var level *domain.FodmapLevel
	if req.FodmapLevel != nil {
		l := domain.FodmapLevel(*req.FodmapLevel)
		level = &l
	}

	ing, err := s.ingredientRepo.Update(r.Context(), id, strings.TrimSpace(req.Name), req.QuantityUnit, level)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "ingredient updated", domainIngredientToResponse(ing))
}

// deleteIngredient handles DELETE /api/v1/ingredients/{ingredientID}.
func (s *Server) deleteIngredient(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "ingredientID"), "ingredient_id")
	if !ok {
		return
	}

	if err := s.ingredientRepo.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "ingredient deleted", map[string]int64{"id": id})
}

// listTags handles GET /api/v1/tags.
func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.tagRepo.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	data := make([]tagResponse, len(tags))
	for i, t := range tags {
		data[i] = domainTagToResponse(t)
	}
	writeSuccess(w, http.StatusOK, "tags retrieved", data)
}

// getTag handles GET /api/v1/tags/{tagID}.
func (s *Server) getTag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "tagID"), "tag_id")
	if !ok {
		return
	}

	t, err := s.tagRepo.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "tag retrieved", domainTagToResponse(t))
}

// createTag handles POST /api/v1/tags.
func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	t, err := s.tagRepo.Create(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "tag created", domainTagToResponse(t))
}

// updateTag handles PUT /api/v1/tags/{tagID}.
func (s *Server) updateTag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "tagID"), "tag_id")
	if !ok {
		return
	}

	var req nameRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	t, err := s.tagRepo.Update(r.Context(), id, strings.TrimSpace(req.Name))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "tag updated", domainTagToResponse(t))
}

// deleteTag handles DELETE /api/v1/tags/{tagID}.
func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "tagID"), "tag_id")
	if !ok {
		return
	}

	if err := s.tagRepo.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "tag deleted", map[string]int64{"id": id})
}
