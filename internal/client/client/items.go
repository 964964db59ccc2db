package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/foodkeeper/internal/client/models"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

func (c *HTTPClient) ListItems(ctx context.Context, opts ListOptions) ([]models.FoodItem, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var items []models.FoodItem
	err := c.do(ctx, http.MethodGet, pathItems, &items, func(r *resty.Request) {
		r.SetQueryParam("skip", strconv.Itoa(opts.Skip))
		r.SetQueryParam("limit", strconv.Itoa(limit))
		if opts.Category != "" {
			r.SetQueryParam("category", opts.Category)
		}
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (c *HTTPClient) GetItem(ctx context.Context, id uuid.UUID) (*models.FoodItem, error) {
	return c.itemCall(ctx, http.MethodGet, id, nil)
}

func (c *HTTPClient) CreateItem(ctx context.Context, item models.FoodItemCreate) (*models.FoodItem, error) {
	var out models.FoodItem
	err := c.do(ctx, http.MethodPost, pathItems, &out, func(r *resty.Request) {
		r.SetBody(item)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateItem(ctx context.Context, id uuid.UUID, upd models.FoodItemUpdate) (*models.FoodItem, error) {
	return c.itemCall(ctx, http.MethodPut, id, upd)
}

func (c *HTTPClient) DeleteItem(ctx context.Context, id uuid.UUID) (*models.FoodItem, error) {
	return c.itemCall(ctx, http.MethodDelete, id, nil)
}

func (c *HTTPClient) itemCall(ctx context.Context, method string, id uuid.UUID, body any) (*models.FoodItem, error) {
	var out models.FoodItem
	err := c.do(ctx, method, pathItem, &out, func(r *resty.Request) {
		r.SetPathParam("id", id.String())
		if body != nil {
			r.SetBody(body)
		}
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ExpiringSoon(ctx context.Context, days int) ([]models.FoodItem, error) {
	if days <= 0 {
		days = DefaultExpiringDays
	}

	var items []models.FoodItem
	err := c.do(ctx, http.MethodGet, pathExpiring, &items, func(r *resty.Request) {
		r.SetQueryParam("days", strconv.Itoa(days))
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// LookupBarcode returns a creation payload prefilled from the product database.
func (c *HTTPClient) LookupBarcode(ctx context.Context, code string) (*models.FoodItemCreate, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: empty barcode", ErrValidation)
	}

	var out models.FoodItemCreate
	err := c.do(ctx, http.MethodGet, pathBarcode, &out, func(r *resty.Request) {
		r.SetPathParam("code", code)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeImage uploads the image as multipart field "file" and returns the
// creation payload the backend derived from it.
func (c *HTTPClient) AnalyzeImage(ctx context.Context, fileName string, image io.Reader) (*models.FoodItemCreate, error) {
	var out models.FoodItemCreate
	err := c.do(ctx, http.MethodPost, pathImageAnalysis, &out, func(r *resty.Request) {
		r.SetFileReader("file", fileName, image)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
