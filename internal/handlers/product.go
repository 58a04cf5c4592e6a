// internal/handlers/product.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/b2b-marketplace/internal/i18n"
	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/services"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

// maxImagesPerUpload bounds one upload-images request.
const maxImagesPerUpload = 10

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params, ok := productSearchParams(c)
	if !ok {
		return
	}

	var viewer *services.Actor
	if _, authenticated := utils.GetUserIDFromContext(c); authenticated {
		actor, _ := currentActor(c)
		viewer = &actor
	}

	result, err := h.productService.SearchProducts(c.Request.Context(), viewer, params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /products/mine
func (h *ProductHandler) GetMyProducts(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	params, ok := productSearchParams(c)
	if !ok {
		return
	}

	result, err := h.productService.ListMine(c.Request.Context(), actor, params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.KeyProductCreated, gin.H{"product": product})
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id", "product")
	if !ok {
		return
	}

	var viewer *services.Actor
	if _, authenticated := utils.GetUserIDFromContext(c); authenticated {
		actor, _ := currentActor(c)
		viewer = &actor
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id, viewer)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"product": product})
}

// PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id", "product")
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.KeyProductUpdated, gin.H{"product": product})
}

// DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id", "product")
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.KeyProductDeleted, nil)
}

// POST /products/upload-images
func (h *ProductHandler) UploadProductImages(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}

	files := form.File["images"]
	if len(files) == 0 || len(files) > maxImagesPerUpload {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "images"), nil)
		return
	}

	results, err := h.productService.UploadImages(actor, files)
	if err != nil {
		respondError(c, err)
		return
	}

	urls := make([]string, 0, len(results))
	for _, result := range results {
		urls = append(urls, result.URL)
	}

	utils.SuccessMessageResponse(c, i18n.KeyFileUploadSuccess, gin.H{
		"images": results,
		"urls":   urls,
	})
}

// productSearchParams reads the catalogue filters from the query string.
func productSearchParams(c *gin.Context) (services.ProductSearchParams, bool) {
	params := services.ProductSearchParams{
		Pagination: utils.GetPaginationParams(c),
		Category:   c.Query("category"),
		Search:     c.Query("search"),
	}

	if status := c.Query("status"); status != "" {
		params.Status = models.ProductStatus(status)
		if !params.Status.IsValid() {
			badQuery(c, "status")
			return params, false
		}
	}

	if raw := c.Query("supplierId"); raw != "" {
		supplierID, err := uuid.Parse(raw)
		if err != nil {
			badQuery(c, "supplierId")
			return params, false
		}
		params.SupplierID = &supplierID
	}

	for name, target := range map[string]**decimal.Decimal{
		"minPrice": &params.MinPrice,
		"maxPrice": &params.MaxPrice,
	} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		value, err := decimal.NewFromString(raw)
		if err != nil || value.IsNegative() {
			badQuery(c, name)
			return params, false
		}
		*target = &value
	}

	if raw := c.Query("inStock"); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			badQuery(c, "inStock")
			return params, false
		}
		params.InStock = inStock
	}

	return params, true
}

func badQuery(c *gin.Context, name string) {
	utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, name), nil)
}
