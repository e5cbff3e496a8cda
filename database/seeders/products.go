package seeders

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
)

func init() {
	Register("products", seedProducts)
}

var demoProducts = []models.Product{
	{Name: "Classic Cotton Tee", Description: "Soft crew-neck tee.", Price: 499, Category: "Men", SubCategory: "Topwear", Sizes: []string{"S", "M", "L", "XL"}, Bestseller: true},
	{Name: "Slim Fit Chinos", Description: "Stretch cotton chinos.", Price: 1299, Category: "Men", SubCategory: "Bottomwear", Sizes: []string{"M", "L", "XL"}},
	{Name: "Floral Summer Dress", Description: "Lightweight midi dress.", Price: 1499, Category: "Women", SubCategory: "Topwear", Sizes: []string{"S", "M", "L"}, Bestseller: true},
	{Name: "Quilted Winter Jacket", Description: "Water-resistant puffer.", Price: 2999, Category: "Women", SubCategory: "Winterwear", Sizes: []string{"M", "L"}},
	{Name: "Kids Hoodie", Description: "Fleece pullover hoodie.", Price: 799, Category: "Kids", SubCategory: "Winterwear", Sizes: []string{"S", "M"}},
}

// seedProducts inserts the demo catalog into an empty products table.
func seedProducts(ctx context.Context, db *gorm.DB) error {
	repo := repositories.NewProductRepository(db)
	n, err := repo.Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	for _, p := range demoProducts {
		p := p
		p.Sizes = append([]string(nil), p.Sizes...)
		if err := repo.Create(ctx, &p); err != nil {
			return err
		}
	}
	return nil
}
