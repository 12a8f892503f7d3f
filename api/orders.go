package api

import (
	"context"
	"net/url"

	"github.com/pcprimedz/dashboard"
)

const (
	keyOrders        = "orders"
	keyCompanyOrders = "company-orders"
)

type OrderItem struct {
	ID        ID      `json:"id"`
	ProductID ID      `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type Customer struct {
	ID         ID      `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone,omitempty"`
	Address    string  `json:"address,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
	OrderCount int     `json:"order_count,omitempty"`
	TotalSpent float64 `json:"total_spent,omitempty"`
}

// Order is a customer order. Number is the human-facing reference when the
// backend assigns one.
type Order struct {
	ID            ID          `json:"id"`
	Number        string      `json:"number,omitempty"`
	FullName      string      `json:"full_name,omitempty"`
	PhoneNumber   string      `json:"phone_number,omitempty"`
	Email         string      `json:"email,omitempty"`
	Wilaya        string      `json:"willaya,omitempty"`
	Commune       string      `json:"commune,omitempty"`
	Confirmed     bool        `json:"confirmed,omitempty"`
	Items         []OrderItem `json:"order_items,omitempty"`
	Total         float64     `json:"total"`
	CreatedAt     string      `json:"created_at,omitempty"`
	ShippingPrice float64     `json:"shipping_price,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	Customer      *Customer   `json:"customer,omitempty"`
}

// Reference is Number when set, otherwise ID.
func (o Order) Reference() string {
	if o.Number != "" {
		return o.Number
	}
	return o.ID.String()
}

// CompanyOrder is a business purchase with its registration details.
type CompanyOrder struct {
	ID                 ID          `json:"id"`
	CompanyName        string      `json:"company_name"`
	ContactPerson      string      `json:"contact_person,omitempty"`
	ContactTitle       string      `json:"contact_title,omitempty"`
	PersonName         string      `json:"person_name,omitempty"`
	Email              string      `json:"email,omitempty"`
	Phone              string      `json:"phone,omitempty"`
	Website            string      `json:"website,omitempty"`
	Industry           string      `json:"industry,omitempty"`
	Address            string      `json:"address,omitempty"`
	City               string      `json:"city,omitempty"`
	PostalCode         string      `json:"postal_code,omitempty"`
	Country            string      `json:"country,omitempty"`
	RegistrationNumber string      `json:"registration_number,omitempty"`
	TaxID              string      `json:"tax_id,omitempty"`
	RC                 string      `json:"rc,omitempty"`
	NIF                string      `json:"nif,omitempty"`
	NIC                string      `json:"nic,omitempty"`
	ART                string      `json:"art,omitempty"`
	Confirmed          bool        `json:"confirmed,omitempty"`
	Items              []OrderItem `json:"order_items,omitempty"`
	CreatedAt          string      `json:"created_at,omitempty"`
}

type Orders struct {
	b *base
}

func (o *Orders) List(ctx context.Context) ([]Order, error) {
	return list[Order](ctx, o.b, keyOrders, "/orders/all", "Failed to fetch orders")
}

func (o *Orders) Confirm(ctx context.Context, id ID) error {
	return exec(ctx, o.b, keyOrders, "Failed to confirm order", func(ctx context.Context) (*dashboard.Response, error) {
		return o.b.doer.PutJSON(ctx, "/orders/"+url.PathEscape(id.String())+"/confirm", nil)
	})
}

func (o *Orders) Delete(ctx context.Context, id ID) error {
	return exec(ctx, o.b, keyOrders, "Failed to delete order", func(ctx context.Context) (*dashboard.Response, error) {
		return o.b.doer.Delete(ctx, "/orders/"+url.PathEscape(id.String()))
	})
}

type CompanyOrders struct {
	b *base
}

func (o *CompanyOrders) List(ctx context.Context) ([]CompanyOrder, error) {
	return list[CompanyOrder](ctx, o.b, keyCompanyOrders, "/company-orders/all", "Failed to fetch company orders")
}

func (o *CompanyOrders) Confirm(ctx context.Context, id ID) error {
	return exec(ctx, o.b, keyCompanyOrders, "Failed to confirm company order", func(ctx context.Context) (*dashboard.Response, error) {
		return o.b.doer.PutJSON(ctx, "/company-orders/"+url.PathEscape(id.String())+"/confirm", nil)
	})
}

func (o *CompanyOrders) Delete(ctx context.Context, id ID) error {
	return exec(ctx, o.b, keyCompanyOrders, "Failed to delete company order", func(ctx context.Context) (*dashboard.Response, error) {
		return o.b.doer.Delete(ctx, "/company-orders/"+url.PathEscape(id.String()))
	})
}
