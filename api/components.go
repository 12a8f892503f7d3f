package api

import (
	"context"
	"net/url"

	"github.com/pcprimedz/dashboard"
)

type CPU struct {
	ID      ID      `json:"id,omitempty"`
	Name    string  `json:"name" validate:"required"`
	Socket  string  `json:"socket" validate:"required"`
	Cores   int     `json:"cores" validate:"gt=0"`
	Threads int     `json:"threads" validate:"gtefield=Cores"`
	Price   float64 `json:"price" validate:"gte=0"`
}

type RAM struct {
	ID       ID      `json:"id,omitempty"`
	Name     string  `json:"name" validate:"required"`
	Capacity int     `json:"capacity" validate:"gt=0"`
	Speed    int     `json:"speed" validate:"gt=0"`
	Type     string  `json:"type" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
}

type Storage struct {
	ID       ID      `json:"id,omitempty"`
	Name     string  `json:"name" validate:"required"`
	Capacity int     `json:"capacity" validate:"gt=0"`
	Type     string  `json:"type" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
}

type Motherboard struct {
	ID         ID      `json:"id,omitempty"`
	Name       string  `json:"name" validate:"required"`
	FormFactor string  `json:"formFactor" validate:"required"`
	Price      float64 `json:"price" validate:"gte=0"`
}

type Monitor struct {
	ID          ID      `json:"id,omitempty"`
	Name        string  `json:"name" validate:"required"`
	Size        float64 `json:"size" validate:"gt=0"`
	RefreshRate int     `json:"refresh_rate" validate:"gt=0"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// Component is the set of configurator parts.
type Component interface {
	CPU | RAM | Storage | Motherboard | Monitor
}

// Components manages one kind of configurator part under /components/{kind}.
type Components[T Component] struct {
	b     *base
	kind  string
	label string
}

func newComponents[T Component](b *base, kind, label string) *Components[T] {
	return &Components[T]{b: b, kind: kind, label: label}
}

// Kind is the path segment, e.g. "cpu".
func (c *Components[T]) Kind() string {
	return c.kind
}

func (c *Components[T]) key() string {
	return "components/" + c.kind
}

func (c *Components[T]) path() string {
	return "/components/" + c.kind
}

func (c *Components[T]) List(ctx context.Context) ([]T, error) {
	return list[T](ctx, c.b, c.key(), c.path(), "Failed to fetch "+c.label)
}

// Create validates in and posts it. Any ID set on in is ignored by the
// backend.
func (c *Components[T]) Create(ctx context.Context, in T) (T, error) {
	if err := c.b.check(in); err != nil {
		var zero T
		return zero, err
	}
	return mutate[T](ctx, c.b, c.key(), "Failed to create "+c.label, func(ctx context.Context) (*dashboard.Response, error) {
		return c.b.doer.PostJSON(ctx, c.path(), in)
	})
}

func (c *Components[T]) Update(ctx context.Context, id ID, in T) (T, error) {
	if err := c.b.check(in); err != nil {
		var zero T
		return zero, err
	}
	return mutate[T](ctx, c.b, c.key(), "Failed to update "+c.label, func(ctx context.Context) (*dashboard.Response, error) {
		return c.b.doer.PutJSON(ctx, c.path()+"/"+url.PathEscape(id.String()), in)
	})
}

func (c *Components[T]) Delete(ctx context.Context, id ID) error {
	return exec(ctx, c.b, c.key(), "Failed to delete "+c.label, func(ctx context.Context) (*dashboard.Response, error) {
		return c.b.doer.Delete(ctx, c.path()+"/"+url.PathEscape(id.String()))
	})
}
