package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/foodkeeper/internal/client/client"
	"github.com/dmitrijs2005/foodkeeper/internal/client/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Expirer ends the session when the backend rejects the credential.
type Expirer interface {
	Expire(ctx context.Context)
}

// ItemService is the inventory API as seen by the CLI. A request rejected
// with ErrUnauthorized expires the session before the error is returned.
type ItemService struct {
	api     client.InventoryAPI
	session Expirer
}

func NewItemService(api client.InventoryAPI, session Expirer) *ItemService {
	return &ItemService{api: api, session: session}
}

// Overview is the inventory page plus the items about to expire.
type Overview struct {
	Items    []models.FoodItem
	Expiring []models.FoodItem
}

func call[T any](ctx context.Context, s *ItemService, fn func() (T, error)) (T, error) {
	v, err := fn()
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			s.session.Expire(ctx)
		}
		var zero T
		return zero, err
	}
	return v, nil
}

func (s *ItemService) List(ctx context.Context, opts client.ListOptions) ([]models.FoodItem, error) {
	return call(ctx, s, func() ([]models.FoodItem, error) { return s.api.ListItems(ctx, opts) })
}

func (s *ItemService) Get(ctx context.Context, id uuid.UUID) (*models.FoodItem, error) {
	return call(ctx, s, func() (*models.FoodItem, error) { return s.api.GetItem(ctx, id) })
}

func (s *ItemService) Create(ctx context.Context, item models.FoodItemCreate) (*models.FoodItem, error) {
	if item.Name == "" {
		return nil, fmt.Errorf("%w: name is required", client.ErrValidation)
	}
	return call(ctx, s, func() (*models.FoodItem, error) { return s.api.CreateItem(ctx, item) })
}

func (s *ItemService) Update(ctx context.Context, id uuid.UUID, upd models.FoodItemUpdate) (*models.FoodItem, error) {
	if upd.IsEmpty() {
		return nil, models.ErrEmptyUpdate
	}
	return call(ctx, s, func() (*models.FoodItem, error) { return s.api.UpdateItem(ctx, id, upd) })
}

func (s *ItemService) Delete(ctx context.Context, id uuid.UUID) (*models.FoodItem, error) {
	return call(ctx, s, func() (*models.FoodItem, error) { return s.api.DeleteItem(ctx, id) })
}

func (s *ItemService) ExpiringSoon(ctx context.Context, days int) ([]models.FoodItem, error) {
	return call(ctx, s, func() ([]models.FoodItem, error) { return s.api.ExpiringSoon(ctx, days) })
}

func (s *ItemService) LookupBarcode(ctx context.Context, code string) (*models.FoodItemCreate, error) {
	return call(ctx, s, func() (*models.FoodItemCreate, error) { return s.api.LookupBarcode(ctx, code) })
}

func (s *ItemService) AnalyzeImage(ctx context.Context, fileName string, image io.Reader) (*models.FoodItemCreate, error) {
	return call(ctx, s, func() (*models.FoodItemCreate, error) { return s.api.AnalyzeImage(ctx, fileName, image) })
}

// SaveBarcode looks code up and stores the result as a new item.
func (s *ItemService) SaveBarcode(ctx context.Context, code string) (*models.FoodItem, error) {
	draft, err := s.LookupBarcode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("lookup barcode: %w", err)
	}
	if draft.Source == "" {
		draft.Source = models.SourceBarcode
	}
	return s.Create(ctx, *draft)
}

// SaveImage analyzes an image and stores the result as a new item.
func (s *ItemService) SaveImage(ctx context.Context, fileName string, image io.Reader) (*models.FoodItem, error) {
	draft, err := s.AnalyzeImage(ctx, fileName, image)
	if err != nil {
		return nil, fmt.Errorf("analyze image: %w", err)
	}
	if draft.Source == "" {
		draft.Source = models.SourceVision
	}
	return s.Create(ctx, *draft)
}

// Overview fetches the first inventory page and the expiring items
// concurrently.
func (s *ItemService) Overview(ctx context.Context, days int) (Overview, error) {
	var ov Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, err := s.List(gctx, client.ListOptions{})
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		ov.Items = items
		return nil
	})
	g.Go(func() error {
		items, err := s.ExpiringSoon(gctx, days)
		if err != nil {
			return fmt.Errorf("expiring items: %w", err)
		}
		ov.Expiring = items
		return nil
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return ov, nil
}
