package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/utils"
)

type ProductHandler struct {
	productService services.ProductService
}

func NewProductHandler(productService services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func parsePrice(w http.ResponseWriter, raw, name string) (*float64, bool) {
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		utils.SendJSONError(w, "Invalid "+name, http.StatusBadRequest)
		return nil, false
	}
	return &v, true
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minPrice, ok := parsePrice(w, q.Get("min_price"), "min_price")
	if !ok {
		return
	}
	maxPrice, ok := parsePrice(w, q.Get("max_price"), "max_price")
	if !ok {
		return
	}
	page, limit := utils.ParsePagination(r, 20, 100)

	result, err := h.productService.ListProducts(r.Context(), models.ProductQuery{
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Search:   q.Get("q"),
		Sort:     q.Get("sort"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	product, err := h.productService.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.GetProductBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var payload models.ProductPayload
	if !utils.DecodeAndValidate(w, r, &payload) {
		return
	}
	product, err := h.productService.CreateProduct(r.Context(), &payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	var payload models.ProductUpdate
	if !utils.DecodeAndValidate(w, r, &payload) {
		return
	}
	product, err := h.productService.UpdateProduct(r.Context(), id, &payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	if err := h.productService.DeleteProduct(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GenerateDescription asks the language model for a new product description
// and stores it.
func (h *ProductHandler) GenerateDescription(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	product, err := h.productService.GenerateDescription(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, product)
}
