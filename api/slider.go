package api

import (
	"context"
	"net/url"

	"github.com/pcprimedz/dashboard"
)

const keySlider = "slider"

type SliderItem struct {
	ID        ID     `json:"id"`
	ProductID ID     `json:"product_id"`
	Order     int    `json:"order"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at,omitempty"`
}

type sliderAdd struct {
	ProductID ID  `json:"product_id" validate:"required"`
	Order     int `json:"order" validate:"gt=0"`
}

type sliderToggle struct {
	IsActive bool `json:"is_active"`
}

// Slider manages the products featured on the shop's home page.
type Slider struct {
	b *base
}

func (s *Slider) List(ctx context.Context) ([]SliderItem, error) {
	return list[SliderItem](ctx, s.b, keySlider, "/slider/all", "Failed to fetch slider items")
}

// Add appends productID at the end of the slider.
func (s *Slider) Add(ctx context.Context, productID ID) (SliderItem, error) {
	items, err := s.List(ctx)
	if err != nil {
		return SliderItem{}, err
	}
	in := sliderAdd{ProductID: productID, Order: len(items) + 1}
	if err := s.b.check(in); err != nil {
		return SliderItem{}, err
	}
	return mutate[SliderItem](ctx, s.b, keySlider, "Failed to add product to slider", func(ctx context.Context) (*dashboard.Response, error) {
		return s.b.doer.PostJSON(ctx, "/slider/add", in)
	})
}

// Toggle flips the visibility of item id and returns the new state.
func (s *Slider) Toggle(ctx context.Context, id ID) (bool, error) {
	items, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	var found *SliderItem
	for i := range items {
		if items[i].ID == id {
			found = &items[i]
			break
		}
	}
	if found == nil {
		return false, ErrNotFound
	}

	next := !found.IsActive
	err = exec(ctx, s.b, keySlider, "Failed to update slider item", func(ctx context.Context) (*dashboard.Response, error) {
		return s.b.doer.PutJSON(ctx, "/slider/"+url.PathEscape(id.String()), sliderToggle{IsActive: next})
	})
	return next, err
}

func (s *Slider) Remove(ctx context.Context, id ID) error {
	return exec(ctx, s.b, keySlider, "Failed to remove from slider", func(ctx context.Context) (*dashboard.Response, error) {
		return s.b.doer.Delete(ctx, "/slider/"+url.PathEscape(id.String()))
	})
}
