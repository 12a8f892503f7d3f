package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pcprimedz/dashboard"
)

const keyCategories = "categories"

type categoryInput struct {
	Name        string `json:"Name" validate:"required,max=100"`
	Description string `json:"Description"`
}

type Categories struct {
	b *base
}

func (c *Categories) List(ctx context.Context) ([]Category, error) {
	return list[Category](ctx, c.b, keyCategories, "/categories/all", "Failed to fetch categories")
}

// Create sends the category as the "category" form part with an optional
// image.
func (c *Categories) Create(ctx context.Context, name, description string, image *dashboard.Upload) (Category, error) {
	in := categoryInput{Name: strings.TrimSpace(name), Description: strings.TrimSpace(description)}
	if err := c.b.check(in); err != nil {
		return Category{}, err
	}
	data, err := json.Marshal(in)
	if err != nil {
		return Category{}, fmt.Errorf("encode category: %w", err)
	}

	var uploads []dashboard.Upload
	if image != nil {
		up := *image
		if up.Field == "" {
			up.Field = "image"
		}
		uploads = append(uploads, up)
	}
	fields := map[string]string{"category": string(data)}
	return mutate[Category](ctx, c.b, keyCategories, "Failed to create category", func(ctx context.Context) (*dashboard.Response, error) {
		return c.b.doer.PostMultipart(ctx, "/categories/create", fields, uploads...)
	})
}

func (c *Categories) Delete(ctx context.Context, id int) error {
	return exec(ctx, c.b, keyCategories, "Failed to delete category", func(ctx context.Context) (*dashboard.Response, error) {
		return c.b.doer.Delete(ctx, "/categories/"+strconv.Itoa(id))
	})
}
