// Package schema defines the read-only catalog GraphQL API.
package schema

import (
	"context"
	"errors"
	"strings"
	"time"

	gql "github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/collection"
	"github.com/shashiranjanraj/storefront/pkg/graphql"
)

// Catalog is the product lookup the schema resolves against.
type Catalog interface {
	List(ctx context.Context) ([]models.Product, error)
	Single(ctx context.Context, id string) (*models.Product, error)
}

var productType = gql.NewObject(gql.ObjectConfig{
	Name: "Product",
	Fields: gql.Fields{
		"id":          &gql.Field{Type: gql.NewNonNull(gql.ID), Resolve: product(func(p *models.Product) any { return p.ID })},
		"name":        &gql.Field{Type: gql.String, Resolve: product(func(p *models.Product) any { return p.Name })},
		"description": &gql.Field{Type: gql.String, Resolve: product(func(p *models.Product) any { return p.Description })},
		"price":       &gql.Field{Type: gql.Int, Resolve: product(func(p *models.Product) any { return int(p.Price) })},
		"category":    &gql.Field{Type: gql.String, Resolve: product(func(p *models.Product) any { return p.Category })},
		"subCategory": &gql.Field{Type: gql.String, Resolve: product(func(p *models.Product) any { return p.SubCategory })},
		"sizes":       &gql.Field{Type: gql.NewList(gql.String), Resolve: product(func(p *models.Product) any { return p.Sizes })},
		"bestseller":  &gql.Field{Type: gql.Boolean, Resolve: product(func(p *models.Product) any { return p.Bestseller })},
		"images": &gql.Field{
			Type: gql.NewList(gql.String),
			Resolve: product(func(p *models.Product) any {
				out := []string{}
				for _, u := range p.Images {
					if u != "" {
						out = append(out, u)
					}
				}
				return out
			}),
		},
		"createdAt": &gql.Field{
			Type:    gql.String,
			Resolve: product(func(p *models.Product) any { return p.CreatedAt.UTC().Format(time.RFC3339) }),
		},
	},
})

var categoryType = gql.NewObject(gql.ObjectConfig{
	Name: "Category",
	Fields: gql.Fields{
		"name":          &gql.Field{Type: gql.String},
		"count":         &gql.Field{Type: gql.Int},
		"subCategories": &gql.Field{Type: gql.NewList(gql.String)},
	},
})

func product(get func(*models.Product) any) gql.FieldResolveFn {
	return func(p gql.ResolveParams) (interface{}, error) {
		switch v := p.Source.(type) {
		case *models.Product:
			return get(v), nil
		case models.Product:
			return get(&v), nil
		}
		return nil, nil
	}
}

// New builds the catalog schema.
func New(catalog Catalog) (gql.Schema, error) {
	query := gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"products": &gql.Field{
				Type: gql.NewList(productType),
				Args: gql.FieldConfigArgument{
					"category":    &gql.ArgumentConfig{Type: gql.String},
					"subCategory": &gql.ArgumentConfig{Type: gql.String},
					"bestseller":  &gql.ArgumentConfig{Type: gql.Boolean},
					"search":      &gql.ArgumentConfig{Type: gql.String},
					"offset":      &gql.ArgumentConfig{Type: gql.Int},
					"limit":       &gql.ArgumentConfig{Type: gql.Int},
				},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					all, err := catalog.List(p.Context)
					if err != nil {
						return nil, err
					}
					return filter(all, p.Args), nil
				},
			},
			"categories": &gql.Field{
				Type: gql.NewList(categoryType),
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					all, err := catalog.List(p.Context)
					if err != nil {
						return nil, err
					}
					return categories(all), nil
				},
			},
			"product": &gql.Field{
				Type: productType,
				Args: gql.FieldConfigArgument{
					"id": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.ID)},
				},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					found, err := catalog.Single(p.Context, id)
					if errors.Is(err, services.ErrNotFound) {
						return nil, nil
					}
					return found, err
				},
			},
		},
	})
	return graphql.NewSchema(query)
}

func filter(all []models.Product, args map[string]interface{}) []models.Product {
	category, _ := args["category"].(string)
	sub, _ := args["subCategory"].(string)
	search, _ := args["search"].(string)
	search = strings.ToLower(strings.TrimSpace(search))
	best, hasBest := args["bestseller"].(bool)
	offset, _ := args["offset"].(int)
	limit, _ := args["limit"].(int)

	matched := collection.Filter(all, func(p models.Product) bool {
		switch {
		case category != "" && !strings.EqualFold(p.Category, category):
			return false
		case sub != "" && !strings.EqualFold(p.SubCategory, sub):
			return false
		case hasBest && p.Bestseller != best:
			return false
		case search != "" && !strings.Contains(strings.ToLower(p.Name), search):
			return false
		}
		return true
	})
	return collection.Take(collection.Skip(matched, offset), limit)
}

type categorySummary struct {
	Name          string   `json:"name"`
	Count         int      `json:"count"`
	SubCategories []string `json:"subCategories"`
}

func categories(all []models.Product) []categorySummary {
	groups := collection.GroupBy(all, func(p models.Product) string { return p.Category })
	out := make([]categorySummary, 0, len(groups))
	for _, name := range collection.SortedKeys(groups) {
		subs := collection.GroupBy(groups[name], func(p models.Product) string { return p.SubCategory })
		delete(subs, "")
		out = append(out, categorySummary{Name: name, Count: len(groups[name]), SubCategories: collection.SortedKeys(subs)})
	}
	return out
}
