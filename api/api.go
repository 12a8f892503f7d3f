package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pcprimedz/dashboard"
	"github.com/pcprimedz/dashboard/querycache"
	"go.uber.org/zap"
)

// ErrNotFound is returned when an operation needs an item that the current
// list does not contain.
var ErrNotFound = errors.New("item not found")

// Doer sends authorized requests. *dashboard.Client implements it.
type Doer interface {
	Get(ctx context.Context, path string) (*dashboard.Response, error)
	Delete(ctx context.Context, path string) (*dashboard.Response, error)
	PostJSON(ctx context.Context, path string, v any) (*dashboard.Response, error)
	PutJSON(ctx context.Context, path string, v any) (*dashboard.Response, error)
	PostMultipart(ctx context.Context, path string, fields map[string]string, uploads ...dashboard.Upload) (*dashboard.Response, error)
	PutMultipart(ctx context.Context, path string, fields map[string]string, uploads ...dashboard.Upload) (*dashboard.Response, error)
}

// API groups the resource clients over one Doer and one cache.
type API struct {
	Products      *Products
	Categories    *Categories
	Orders        *Orders
	CompanyOrders *CompanyOrders
	CPUs          *Components[CPU]
	RAM           *Components[RAM]
	Storage       *Components[Storage]
	Motherboards  *Components[Motherboard]
	Monitors      *Components[Monitor]
	Slider        *Slider
	Logs          *Logs

	cache *querycache.Cache
}

// New wires every resource to doer. A nil cache disables caching and a nil
// logger discards output.
func New(doer Doer, cache *querycache.Cache, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &base{
		doer:     doer,
		cache:    cache,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	return &API{
		Products:      &Products{b: b},
		Categories:    &Categories{b: b},
		Orders:        &Orders{b: b},
		CompanyOrders: &CompanyOrders{b: b},
		CPUs:          newComponents[CPU](b, "cpu", "CPU"),
		RAM:           newComponents[RAM](b, "ram", "RAM"),
		Storage:       newComponents[Storage](b, "storage", "Storage"),
		Motherboards:  newComponents[Motherboard](b, "motherboard", "Motherboard"),
		Monitors:      newComponents[Monitor](b, "monitor", "Monitor"),
		Slider:        &Slider{b: b},
		Logs:          &Logs{b: b},
		cache:         cache,
	}
}

// Refresh drops every cached list.
func (a *API) Refresh() {
	a.cache.Purge()
}

type base struct {
	doer     Doer
	cache    *querycache.Cache
	logger   *zap.Logger
	validate *validator.Validate
}

// expired purges the cache when err reports an ended session; cached lists
// belong to the session that fetched them.
func (b *base) expired(err error) {
	if errors.Is(err, dashboard.ErrAuthorizationExpired) {
		b.cache.Purge()
		b.logger.Debug("authorization expired, query cache purged")
	}
}

func (b *base) check(v any) error {
	if err := b.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", dashboard.ErrInvalidInput, err)
	}
	return nil
}

type sendFunc func(ctx context.Context) (*dashboard.Response, error)

// list fetches path through the cache under key.
func list[T any](ctx context.Context, b *base, key, path, fallback string) ([]T, error) {
	return querycache.Fetch(ctx, b.cache, key, func(ctx context.Context) ([]T, error) {
		resp, err := b.doer.Get(ctx, path)
		if err != nil {
			return nil, err
		}
		out, err := dashboard.DecodeJSON[[]T](resp, fallback)
		if err != nil {
			b.expired(err)
			return nil, err
		}
		return out, nil
	})
}

// mutate sends a change, decodes the response into T and invalidates key.
func mutate[T any](ctx context.Context, b *base, key, fallback string, send sendFunc) (T, error) {
	var zero T
	resp, err := send(ctx)
	if err != nil {
		return zero, err
	}
	out, err := dashboard.DecodeJSON[T](resp, fallback)
	if err != nil {
		b.expired(err)
		return zero, err
	}
	b.cache.Invalidate(key)
	return out, nil
}

// exec is mutate for calls whose response body is not needed.
func exec(ctx context.Context, b *base, key, fallback string, send sendFunc) error {
	resp, err := send(ctx)
	if err != nil {
		return err
	}
	if err := dashboard.Expect(resp, fallback); err != nil {
		b.expired(err)
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	b.cache.Invalidate(key)
	return nil
}

// ID accepts a JSON string or number. The backend is not consistent about
// which one it sends for orders and slider items.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

func contains(field, term string) bool {
	return strings.Contains(strings.ToLower(field), term)
}
