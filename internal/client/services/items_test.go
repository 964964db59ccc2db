package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/foodkeeper/internal/client/client"
	"github.com/dmitrijs2005/foodkeeper/internal/client/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeInventory returns Err from every call when set.
type fakeInventory struct {
	mu sync.Mutex

	Err         error
	ExpiringErr error

	Items    []models.FoodItem
	Expiring []models.FoodItem
	Draft    *models.FoodItemCreate

	Created  []models.FoodItemCreate
	LastOpts client.ListOptions
	LastDays int
	LastFile string
	LastBody string
}

func (f *fakeInventory) ListItems(ctx context.Context, opts client.ListOptions) ([]models.FoodItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastOpts = opts
	return f.Items, f.Err
}

func (f *fakeInventory) GetItem(ctx context.Context, id uuid.UUID) (*models.FoodItem, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return &models.FoodItem{ID: id, Name: "milk"}, nil
}

func (f *fakeInventory) CreateItem(ctx context.Context, item models.FoodItemCreate) (*models.FoodItem, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.Created = append(f.Created, item)
	return &models.FoodItem{ID: uuid.New(), Name: item.Name, Source: item.Source}, nil
}

func (f *fakeInventory) UpdateItem(ctx context.Context, id uuid.UUID, upd models.FoodItemUpdate) (*models.FoodItem, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return &models.FoodItem{ID: id, Name: models.Deref(upd.Name)}, nil
}

func (f *fakeInventory) DeleteItem(ctx context.Context, id uuid.UUID) (*models.FoodItem, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return &models.FoodItem{ID: id}, nil
}

func (f *fakeInventory) ExpiringSoon(ctx context.Context, days int) ([]models.FoodItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastDays = days
	if f.ExpiringErr != nil {
		return nil, f.ExpiringErr
	}
	return f.Expiring, f.Err
}

func (f *fakeInventory) LookupBarcode(ctx context.Context, code string) (*models.FoodItemCreate, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	d := *f.Draft
	return &d, nil
}

func (f *fakeInventory) AnalyzeImage(ctx context.Context, fileName string, image io.Reader) (*models.FoodItemCreate, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	body, _ := io.ReadAll(image)
	f.LastFile = fileName
	f.LastBody = string(body)
	d := *f.Draft
	return &d, nil
}

type fakeExpirer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeExpirer) Expire(context.Context) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeExpirer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestItemService_UnauthorizedExpiresSession(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	calls := map[string]func(s *ItemService) error{
		"list": func(s *ItemService) error { _, err := s.List(ctx, client.ListOptions{}); return err },
		"get":  func(s *ItemService) error { _, err := s.Get(ctx, id); return err },
		"create": func(s *ItemService) error {
			_, err := s.Create(ctx, models.FoodItemCreate{Name: "milk"})
			return err
		},
		"update": func(s *ItemService) error {
			name := "oat milk"
			_, err := s.Update(ctx, id, models.FoodItemUpdate{Name: &name})
			return err
		},
		"delete":   func(s *ItemService) error { _, err := s.Delete(ctx, id); return err },
		"expiring": func(s *ItemService) error { _, err := s.ExpiringSoon(ctx, 3); return err },
		"barcode":  func(s *ItemService) error { _, err := s.LookupBarcode(ctx, "123"); return err },
		"image": func(s *ItemService) error {
			_, err := s.AnalyzeImage(ctx, "a.jpg", nil)
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			api := &fakeInventory{Err: &client.APIError{StatusCode: 401}}
			exp := &fakeExpirer{}

			err := call(NewItemService(api, exp))

			require.ErrorIs(t, err, client.ErrUnauthorized)
			require.Equal(t, 1, exp.Calls())
		})
	}
}

func TestItemService_OtherErrorsKeepSession(t *testing.T) {
	for _, apiErr := range []error{
		&client.APIError{StatusCode: 404},
		&client.APIError{StatusCode: 422},
		client.ErrUnavailable,
		errors.New("boom"),
	} {
		api := &fakeInventory{Err: apiErr}
		exp := &fakeExpirer{}

		_, err := NewItemService(api, exp).List(context.Background(), client.ListOptions{})

		require.ErrorIs(t, err, apiErr)
		require.Zero(t, exp.Calls())
	}
}

func TestItemService_LocalValidation(t *testing.T) {
	api := &fakeInventory{}
	s := NewItemService(api, &fakeExpirer{})
	ctx := context.Background()

	_, err := s.Create(ctx, models.FoodItemCreate{})
	require.ErrorIs(t, err, client.ErrValidation)

	_, err = s.Update(ctx, uuid.New(), models.FoodItemUpdate{})
	require.ErrorIs(t, err, models.ErrEmptyUpdate)

	require.Empty(t, api.Created)
}

func TestItemService_SaveBarcode(t *testing.T) {
	api := &fakeInventory{Draft: &models.FoodItemCreate{Name: "pasta"}}
	s := NewItemService(api, &fakeExpirer{})

	item, err := s.SaveBarcode(context.Background(), "800")
	require.NoError(t, err)
	require.Equal(t, "pasta", item.Name)
	require.Equal(t, []models.FoodItemCreate{{Name: "pasta", Source: models.SourceBarcode}}, api.Created)
}

func TestItemService_SaveImage(t *testing.T) {
	api := &fakeInventory{Draft: &models.FoodItemCreate{Name: "apple", Source: models.SourceVision}}
	s := NewItemService(api, &fakeExpirer{})

	item, err := s.SaveImage(context.Background(), "fruit.png", strings.NewReader("png"))
	require.NoError(t, err)
	require.Equal(t, "apple", item.Name)
	require.Equal(t, "fruit.png", api.LastFile)
	require.Equal(t, "png", api.LastBody)
	require.Len(t, api.Created, 1)
}

func TestItemService_SaveBarcode_LookupFails(t *testing.T) {
	api := &fakeInventory{Err: &client.APIError{StatusCode: 404}}
	s := NewItemService(api, &fakeExpirer{})

	_, err := s.SaveBarcode(context.Background(), "000")
	require.ErrorIs(t, err, client.ErrNotFound)
	require.Empty(t, api.Created)
}

func TestItemService_Overview(t *testing.T) {
	api := &fakeInventory{
		Items:    []models.FoodItem{{Name: "milk"}, {Name: "bread"}},
		Expiring: []models.FoodItem{{Name: "milk"}},
	}
	s := NewItemService(api, &fakeExpirer{})

	ov, err := s.Overview(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, ov.Items, 2)
	require.Len(t, ov.Expiring, 1)
	require.Equal(t, 5, api.LastDays)
	require.Equal(t, client.ListOptions{}, api.LastOpts)
}

func TestItemService_OverviewFails(t *testing.T) {
	api := &fakeInventory{ExpiringErr: &client.APIError{StatusCode: 401}}
	exp := &fakeExpirer{}
	s := NewItemService(api, exp)

	_, err := s.Overview(context.Background(), 7)
	require.ErrorIs(t, err, client.ErrUnauthorized)
	require.Contains(t, err.Error(), "expiring items")
	require.Equal(t, 1, exp.Calls())
}
