package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/foodkeeper/internal/client/models"
	"github.com/google/uuid"
)

// AuthAPI covers the authentication endpoints.
type AuthAPI interface {
	// Login exchanges email and password for a bearer token.
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, req models.RegisterRequest) error
	// CurrentUser fetches the profile of whoever the current credential belongs to.
	CurrentUser(ctx context.Context) (*models.User, error)
}

// InventoryAPI covers food items, barcode lookup and image analysis.
type InventoryAPI interface {
	ListItems(ctx context.Context, opts ListOptions) ([]models.FoodItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.FoodItem, error)
	CreateItem(ctx context.Context, item models.FoodItemCreate) (*models.FoodItem, error)
	UpdateItem(ctx context.Context, id uuid.UUID, upd models.FoodItemUpdate) (*models.FoodItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) (*models.FoodItem, error)
	ExpiringSoon(ctx context.Context, days int) ([]models.FoodItem, error)
	LookupBarcode(ctx context.Context, code string) (*models.FoodItemCreate, error)
	AnalyzeImage(ctx context.Context, fileName string, image io.Reader) (*models.FoodItemCreate, error)
}

type Client interface {
	AuthAPI
	InventoryAPI
}

// TokenSource yields the current credential; "" means none.
type TokenSource interface {
	Get(ctx context.Context) (string, error)
}

// ListOptions pages through food items. Zero Limit means DefaultLimit.
type ListOptions struct {
	Skip     int
	Limit    int
	Category string
}

const (
	DefaultLimit        = 100
	DefaultExpiringDays = 7
)
