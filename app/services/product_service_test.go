package services_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/services"
)

func TestAddProductUploadsImagesBySlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.catalog.Add(ctx, services.ProductInput{
		Name:        "Linen Shirt",
		Description: "Breathable",
		Price:       1299,
		Category:    "Men",
		SubCategory: "Topwear",
		Sizes:       []string{"M", "L"},
		Bestseller:  true,
	}, []services.ImageUpload{
		{Slot: 0, Filename: "front.JPG", ContentType: "image/jpeg", Body: strings.NewReader("front")},
		{Slot: 2, Filename: "back.png", ContentType: "image/png", Body: strings.NewReader("back")},
	})
	require.NoError(t, err)

	assert.Equal(t, "http://cdn.test/storage/products/"+p.ID+"/0.jpg", p.Images[0])
	assert.Empty(t, p.Images[1])
	assert.Equal(t, "http://cdn.test/storage/products/"+p.ID+"/2.png", p.Images[2])

	ok, err := f.disk.Exists(ctx, "products/"+p.ID+"/2.png")
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := f.catalog.Single(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Images, stored.Images)
	assert.Equal(t, []string{"M", "L"}, stored.Sizes)
	assert.True(t, stored.Bestseller)
}

func TestAddProductValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.Add(context.Background(), services.ProductInput{Name: "No price"}, nil)
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "price")

	_, err = f.catalog.Add(context.Background(), services.ProductInput{
		Name: "Shirt", Description: "d", Price: 10, Category: "Men", SubCategory: "Topwear",
	}, []services.ImageUpload{{Slot: 7, Filename: "x.jpg", Body: strings.NewReader("x")}})
	require.ErrorAs(t, err, &verr)
}

func TestAddProductCleansUpOnUploadFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.Add(ctx, services.ProductInput{
		Name: "Shirt", Description: "d", Price: 10, Category: "Men", SubCategory: "Topwear",
	}, []services.ImageUpload{
		{Slot: 0, Filename: "a.jpg", Body: strings.NewReader("a")},
		{Slot: 1, Filename: "b.jpg", Body: failingReader{}},
	})
	require.Error(t, err)

	n, err := f.products.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, os.ErrClosed }

func TestProductListIsCachedUntilChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tee", 500)

	list, err := f.catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// Written behind the service's back: the cached list does not see it.
	f.product(t, "Cap", 200)
	list, err = f.catalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.catalog.Remove(ctx, p.ID))
	list, err = f.catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Cap", list[0].Name)

	assert.ErrorIs(t, f.catalog.Remove(ctx, p.ID), services.ErrNotFound)
	_, err = f.catalog.Single(ctx, p.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}
