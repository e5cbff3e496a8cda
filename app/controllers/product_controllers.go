package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

const maxUploadMemory = 32 << 20

type ProductController struct {
	service *services.ProductService
}

func NewProductController(service *services.ProductService) *ProductController {
	return &ProductController{service: service}
}

// Add — POST /api/product/addproduct (multipart)
func (pc *ProductController) Add(c *ctx.Context) {
	if err := c.R.ParseMultipartForm(maxUploadMemory); err != nil {
		c.Fail(http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer c.R.MultipartForm.RemoveAll() //nolint:errcheck

	in, err := productInput(c.R)
	if err != nil {
		c.ValidationError(map[string]string{"form": err.Error()})
		return
	}

	var images []services.ImageUpload
	for slot := 0; slot < models.MaxProductImages; slot++ {
		file, header, err := c.R.FormFile(fmt.Sprintf("image%d", slot+1))
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			c.Fail(http.StatusBadRequest, "Invalid image upload")
			return
		}
		defer file.Close()
		images = append(images, services.ImageUpload{
			Slot:        slot,
			Filename:    header.Filename,
			ContentType: contentType(header),
			Body:        file,
		})
	}

	product, err := pc.service.Add(c.Context(), in, images)
	if err != nil {
		fail(c, err)
		return
	}
	c.OK(response.Body{"message": "Product Added", "product": product})
}

func productInput(r *http.Request) (services.ProductInput, error) {
	in := services.ProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		SubCategory: r.FormValue("subCategory"),
		Bestseller:  r.FormValue("bestseller") == "true",
		Sizes:       []string{},
	}
	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return in, fmt.Errorf("price must be a whole number")
		}
		in.Price = price
	}
	if raw := strings.TrimSpace(r.FormValue("sizes")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Sizes); err != nil {
			return in, fmt.Errorf("sizes must be a JSON array")
		}
	}
	return in, nil
}

func contentType(h *multipart.FileHeader) string {
	if ct := h.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// List — GET /api/product/list
func (pc *ProductController) List(c *ctx.Context) {
	products, err := pc.service.List(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.OK(response.Body{"products": products})
}

// Remove — POST /api/product/remove
func (pc *ProductController) Remove(c *ctx.Context) {
	var body struct {
		ID string `json:"id" validate:"required"`
	}
	if !c.BindJSON(&body) {
		return
	}
	if err := pc.service.Remove(c.Context(), body.ID); err != nil {
		fail(c, err)
		return
	}
	c.OK(response.Body{"message": "Product Removed"})
}

// Single — POST /api/product/single
func (pc *ProductController) Single(c *ctx.Context) {
	var body struct {
		ProductID string `json:"productId" validate:"required"`
	}
	if !c.BindJSON(&body) {
		return
	}
	product, err := pc.service.Single(c.Context(), body.ProductID)
	if err != nil {
		fail(c, err)
		return
	}
	c.OK(response.Body{"product": product})
}
