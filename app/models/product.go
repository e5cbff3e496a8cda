package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxProductImages is the number of image slots per product.
const MaxProductImages = 4

// Product is a catalog entry. Price is in whole currency units.
type Product struct {
	ID          string         `gorm:"primaryKey;size:36" json:"_id"`
	Name        string         `gorm:"size:255;not null;index" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Price       int64          `gorm:"not null;default:0" json:"price"`
	Category    string         `gorm:"size:100;index" json:"category"`
	SubCategory string         `gorm:"size:100" json:"subCategory"`
	Sizes       []string       `gorm:"type:text;serializer:json" json:"sizes"`
	Bestseller  bool           `gorm:"not null;default:false" json:"bestseller"`
	Images      ProductImages  `gorm:"type:text;serializer:json" json:"images"`
	CreatedAt   time.Time      `json:"date"`
	UpdatedAt   time.Time      `json:"-"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// ProductImages holds image URLs by slot, images[0] being the cover.
type ProductImages [MaxProductImages]string

// Cover returns the first non-empty image URL.
func (p ProductImages) Cover() string {
	for _, u := range p {
		if u != "" {
			return u
		}
	}
	return ""
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// HasSize reports whether size is offered. Products without sizes accept "".
func (p *Product) HasSize(size string) bool {
	if len(p.Sizes) == 0 {
		return size == ""
	}
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// Catalog indexes products by ID and resolves current prices for carts.
type Catalog map[string]Product

func (c Catalog) Price(productID string) (int64, bool) {
	p, ok := c[productID]
	return p.Price, ok
}
