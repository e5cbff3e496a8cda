package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/validate"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

const (
	productListKey = "products:all"
	productListTTL = 10 * time.Minute
)

// ProductInput is the editable part of a product.
type ProductInput struct {
	Name        string   `json:"name"        validate:"required,max=255"`
	Description string   `json:"description" validate:"required"`
	Price       int64    `json:"price"       validate:"gte=1"`
	Category    string   `json:"category"    validate:"required,max=100"`
	SubCategory string   `json:"subCategory" validate:"required,max=100"`
	Sizes       []string `json:"sizes"`
	Bestseller  bool     `json:"bestseller"`
}

// ImageUpload is one file for images[Slot].
type ImageUpload struct {
	Slot        int
	Filename    string
	ContentType string
	Body        io.Reader
}

// ProductService manages the catalog and its images.
type ProductService struct {
	products *repositories.ProductRepository
	disk     storage.Disk
	pool     *workerpool.Pool
}

func NewProductService(products *repositories.ProductRepository, disk storage.Disk, pool *workerpool.Pool) *ProductService {
	return &ProductService{products: products, disk: disk, pool: pool}
}

// Add uploads the images in parallel, then stores the product.
func (s *ProductService) Add(ctx context.Context, in ProductInput, images []ImageUpload) (*models.Product, error) {
	if errs := validate.Struct(&in); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}
	product := &models.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		SubCategory: in.SubCategory,
		Sizes:       in.Sizes,
		Bestseller:  in.Bestseller,
	}
	if product.Sizes == nil {
		product.Sizes = []string{}
	}

	uploaded, err := s.upload(ctx, product, images)
	if err != nil {
		s.cleanup(ctx, uploaded)
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		s.cleanup(ctx, uploaded)
		return nil, fmt.Errorf("add product: %w", err)
	}

	s.forgetList(ctx)
	logger.WithCtx(ctx).Info("product added", "product_id", product.ID, "images", len(uploaded))
	return product, nil
}

func (s *ProductService) upload(ctx context.Context, product *models.Product, images []ImageUpload) ([]string, error) {
	var (
		mu       sync.Mutex
		uploaded []string
		tasks    []func(context.Context) error
	)
	for _, img := range images {
		if img.Slot < 0 || img.Slot >= models.MaxProductImages {
			return nil, newValidationError("images", fmt.Sprintf("Image slot %d is out of range", img.Slot+1))
		}
		img := img
		key := fmt.Sprintf("products/%s/%d%s", product.ID, img.Slot, strings.ToLower(path.Ext(img.Filename)))
		tasks = append(tasks, func(ctx context.Context) error {
			url, err := s.disk.Put(ctx, key, img.Body, img.ContentType)
			if err != nil {
				return fmt.Errorf("add product: upload image %d: %w", img.Slot+1, err)
			}
			mu.Lock()
			product.Images[img.Slot] = url
			uploaded = append(uploaded, key)
			mu.Unlock()
			return nil
		})
	}
	err := s.pool.Run(ctx, tasks...)
	return uploaded, err
}

func (s *ProductService) cleanup(ctx context.Context, keys []string) {
	for _, k := range keys {
		if err := s.disk.Delete(ctx, k); err != nil {
			logger.WithCtx(ctx).Warn("add product: orphan image", "path", k, "error", err)
		}
	}
}

// List returns the catalog, cached until the next change.
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := cache.Remember(ctx, productListKey, productListTTL, &products, func() (interface{}, error) {
		return s.products.All(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Single returns one product.
func (s *ProductService) Single(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// Remove soft-deletes the product. Its images stay so past orders keep
// rendering.
func (s *ProductService) Remove(ctx context.Context, id string) error {
	err := s.products.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("remove product: %w", err)
	}
	s.forgetList(ctx)
	logger.Audit(ctx, "product removed", "product_id", id)
	return nil
}

func (s *ProductService) forgetList(ctx context.Context) {
	if err := cache.Forget(ctx, productListKey); err != nil {
		logger.WithCtx(ctx).Warn("product list cache not cleared", "error", err)
	}
}
