package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pcprimedz/dashboard"
)

const keyProducts = "products"

// Conditions a product may be listed in. Anything else is sent as
// ConditionNew.
const (
	ConditionNew        = "Neuf"
	ConditionExcellent  = "Excellent"
	ConditionVeryGood   = "Tres Bon"
	ConditionGood       = "Bon"
	ConditionAcceptable = "Acceptable"
)

var conditions = []string{ConditionNew, ConditionExcellent, ConditionVeryGood, ConditionGood, ConditionAcceptable}

type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProductInput is the editable part of a product.
type ProductInput struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Description    string  `json:"description,omitempty"`
	Quantity       int     `json:"quantity" validate:"gte=0"`
	Barcode        string  `json:"barcode"`
	Brand          string  `json:"brand"`
	Price          float64 `json:"price" validate:"gte=0"`
	Discount       float64 `json:"discount,omitempty" validate:"gte=0"`
	WarrantyMonths int     `json:"warranty_months" validate:"gte=0"`
	OriginalPrice  float64 `json:"original_price,omitempty" validate:"gte=0"`
	OldPrice       float64 `json:"old_price,omitempty" validate:"gte=0"`
	CategoryID     int     `json:"category_id" validate:"gt=0"`
	ImageURL       string  `json:"image_url,omitempty"`
	IsPromo        bool    `json:"is_promo,omitempty"`
	Condition      string  `json:"etat"`
	Guarantee      string  `json:"garantie,omitempty"`
	Returns        string  `json:"retour,omitempty"`

	CPU       string `json:"cpu,omitempty"`
	RAM       string `json:"ram,omitempty"`
	Storage   string `json:"storage,omitempty"`
	Screen    string `json:"screen,omitempty"`
	Battery   string `json:"battery,omitempty"`
	Camera    string `json:"camera,omitempty"`
	Cooling   string `json:"refroidissement,omitempty"`
	System    string `json:"système,omitempty"`
	GPU       string `json:"gpu,omitempty"`
	PowerUnit string `json:"alimentation,omitempty"`
	Case      string `json:"boîtier,omitempty"`
}

type Product struct {
	ID int `json:"id"`
	ProductInput
	Category   *Category `json:"category,omitempty"`
	CreatedAt  string    `json:"created_at,omitempty"`
	UpdatedAt  string    `json:"updated_at,omitempty"`
	NumberSold int       `json:"number_sold,omitempty"`
}

// Products manages the product catalogue.
type Products struct {
	b *base
}

func (p *Products) List(ctx context.Context) ([]Product, error) {
	return list[Product](ctx, p.b, keyProducts, "/products/all", "Failed to fetch products")
}

// Create uploads in as the "product" form part with an optional image.
func (p *Products) Create(ctx context.Context, in ProductInput, image *dashboard.Upload) (Product, error) {
	fields, uploads, err := p.form(in, image)
	if err != nil {
		return Product{}, err
	}
	return mutate[Product](ctx, p.b, keyProducts, "Failed to create product", func(ctx context.Context) (*dashboard.Response, error) {
		return p.b.doer.PostMultipart(ctx, "/products/create", fields, uploads...)
	})
}

func (p *Products) Update(ctx context.Context, id int, in ProductInput, image *dashboard.Upload) (Product, error) {
	fields, uploads, err := p.form(in, image)
	if err != nil {
		return Product{}, err
	}
	return mutate[Product](ctx, p.b, keyProducts, "Failed to update product", func(ctx context.Context) (*dashboard.Response, error) {
		return p.b.doer.PutMultipart(ctx, "/products/"+strconv.Itoa(id), fields, uploads...)
	})
}

func (p *Products) Delete(ctx context.Context, id int) error {
	return exec(ctx, p.b, keyProducts, "Failed to delete product", func(ctx context.Context) (*dashboard.Response, error) {
		return p.b.doer.Delete(ctx, "/products/"+strconv.Itoa(id))
	})
}

func (p *Products) form(in ProductInput, image *dashboard.Upload) (map[string]string, []dashboard.Upload, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Condition = NormalizeCondition(in.Condition)
	if err := p.b.check(in); err != nil {
		return nil, nil, err
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil, nil, fmt.Errorf("encode product: %w", err)
	}
	var uploads []dashboard.Upload
	if image != nil {
		up := *image
		if up.Field == "" {
			up.Field = "image"
		}
		uploads = append(uploads, up)
	}
	return map[string]string{"product": string(data)}, uploads, nil
}

// NormalizeCondition maps c to a known condition, defaulting to ConditionNew.
func NormalizeCondition(c string) string {
	c = strings.TrimSpace(c)
	for _, known := range conditions {
		if strings.EqualFold(c, known) {
			return known
		}
	}
	return ConditionNew
}

// Search returns the products whose name, barcode, brand, CPU, GPU or
// category name contains term, ignoring case. An empty term matches all.
func Search(products []Product, term string) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return products
	}
	var out []Product
	for _, p := range products {
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		if contains(p.Name, term) || contains(p.Barcode, term) || contains(p.Brand, term) ||
			contains(p.CPU, term) || contains(p.GPU, term) || contains(category, term) {
			out = append(out, p)
		}
	}
	return out
}

// ExportCSV writes products with a header row.
func ExportCSV(w io.Writer, products []Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ID", "Name", "Barcode", "Brand", "Category", "Price", "Quantity", "Etat", "Promo"}); err != nil {
		return err
	}
	for _, p := range products {
		promo := "No"
		if p.IsPromo {
			promo = "Yes"
		}
		row := []string{
			strconv.Itoa(p.ID),
			p.Name,
			p.Barcode,
			p.Brand,
			strconv.Itoa(p.CategoryID),
			strconv.FormatFloat(p.Price, 'f', -1, 64),
			strconv.Itoa(p.Quantity),
			p.Condition,
			promo,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
