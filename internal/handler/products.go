package handler

import (
	"errors"
	"net/http"

	"github.com/NoorShal/lamma-backend-test/internal/apierror"
	"github.com/NoorShal/lamma-backend-test/internal/dto"
	"github.com/NoorShal/lamma-backend-test/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

// List godoc
// @Summary      List products
// @Description  Paginated catalog, newest first, each product with its variations and attribute map.
// @Tags         products
// @Produce      json
// @Param        type      query string false "simple | variable"
// @Param        name      query string false "case-insensitive substring"
// @Param        min_price query number false "inclusive lower bound"
// @Param        max_price query number false "inclusive upper bound"
// @Param        per_page  query int    false "page size (capped)"
// @Param        page      query int    false "page number"
// @Success      200  {object} apierror.Envelope{data=[]dto.ProductResponse,meta=dto.PageMeta}
// @Failure      422  {object} apierror.Envelope
// @Router       /products [get]
func (h *ProductsHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"query": "invalid"}))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.Page("Products retrieved successfully", resp.Data, resp.Meta))
}

// Create godoc
// @Summary      Create a product
// @Description  Creates a simple or variable product; variations and their attributes are written in the same transaction.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        body body dto.CreateProductRequest true "Product"
// @Success      201  {object} apierror.Envelope{data=dto.ProductResponse}
// @Failure      422  {object} apierror.Envelope
// @Router       /products [post]
func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apierror.OK("Product created successfully", resp))
}

// Get godoc
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id   path string true "Product ID (uuid)"
// @Success      200  {object} apierror.Envelope{data=dto.ProductResponse}
// @Failure      404  {object} apierror.Envelope
// @Router       /products/{id} [get]
func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK("Product retrieved successfully", resp))
}

// Update godoc
// @Summary      Update a product
// @Description  Patch semantics. A present variations list replaces the variation set, matched by SKU.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id   path string true "Product ID (uuid)"
// @Param        body body dto.UpdateProductRequest true "Fields to change"
// @Success      200  {object} apierror.Envelope{data=dto.ProductResponse}
// @Failure      404  {object} apierror.Envelope
// @Failure      422  {object} apierror.Envelope
// @Router       /products/{id} [put]
// @Router       /products/{id} [patch]
func (h *ProductsHandler) Update(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK("Product updated successfully", resp))
}

// Delete godoc
// @Summary      Delete a product
// @Description  Removes the product with its variations and their attribute values.
// @Tags         products
// @Produce      json
// @Param        id   path string true "Product ID (uuid)"
// @Success      200  {object} apierror.Envelope
// @Failure      404  {object} apierror.Envelope
// @Router       /products/{id} [delete]
func (h *ProductsHandler) Delete(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK("Product deleted successfully", nil))
}

// productID parses the :id path segment. Anything that is not a uuid cannot
// name a stored product, so it is answered with 404 like any other miss.
func productID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Resource not found"))
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors onto HTTP status codes. Unknown errors are
// recorded on the context so ErrorHandler logs them; the client only sees a
// generic message.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	var cerr *service.ConflictError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(verr.Fields))
	case errors.As(err, &cerr):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{cerr.Field: "unique"}))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New("Resource not found"))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("Internal server error"))
	}
}
