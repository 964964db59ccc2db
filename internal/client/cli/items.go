package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dmitrijs2005/foodkeeper/internal/client/client"
	"github.com/dmitrijs2005/foodkeeper/internal/client/models"
	"github.com/dmitrijs2005/foodkeeper/internal/client/services"
	"github.com/google/uuid"
)

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid item id %q: %w", s, err)
	}
	return id, nil
}

// ListItems prints one page of the inventory.
func (a *App) ListItems(ctx context.Context, opts client.ListOptions) error {
	return a.gate.Render(ctx, func(ctx context.Context) error {
		items, err := a.items.List(ctx, opts)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		fmt.Fprintln(a.out, renderItems(items, a.now()))
		return nil
	})
}

func (a *App) GetItem(ctx context.Context, rawID string) error {
	return a.gate.Render(ctx, func(ctx context.Context) error {
		id, err := parseID(rawID)
		if err != nil {
			return err
		}
		item, err := a.items.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}
		fmt.Fprintln(a.out, renderItem(item, a.now()))
		return nil
	})
}

func (a *App) AddItem(ctx context.Context, draft models.FoodItemCreate) error {
	return a.gate.Render(ctx, func(ctx context.Context) error {
		return a.create(ctx, draft)
	})
}

func (a *App) create(ctx context.Context, draft models.FoodItemCreate) error {
	if draft.Source == "" {
		draft.Source = models.SourceManual
	}
	item, err := a.items.Create(ctx, draft)
	if err != nil {
		return fmt.Errorf("add item: %w", err)
	}
	a.printSuccess("Added %s (%s)", item.Name, item.ID)
	return nil
}

// AddItemInteractive prompts for the item fields one by one.
func (a *App) AddItemInteractive(ctx context.Context) error {
	return a.gate.Render(ctx, func(ctx context.Context) error {
		draft, err := a.promptDraft()
		if err != nil {
			return err
		}
		return a.create(ctx, draft)
	})
}

func (a *App) promptDraft() (models.FoodItemCreate, error) {
	var draft models.FoodItemCreate

	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return draft, err
	}
	draft.Name = name

	category, err := getSimpleText(a.reader, "Enter category (optional)", a.out)
	if err != nil {
		return draft, err
	}
	if category != "" {
		draft.Category = &category
	}

	qty, err := getSimpleText(a.reader, "Enter quantity (default 1)", a.out)
	if err != nil {
		return draft, err
	}
	if qty != "" {
		n, err := strconv.Atoi(qty)
		if err != nil || n < 1 {
			return draft, fmt.Errorf("quantity must be a positive number, got %q", qty)
		}
		draft.Quantity = n
	}

	exp, err := getSimpleText(a.reader, "Enter expiration date YYYY-MM-DD (optional)", a.out)
	if err != nil {
		return draft, err
	}
	if exp != "" {
		d, err := models.ParseDate(exp)
		if err != nil {
			return draft, err
		}
		draft.ExpirationDate = &d
	}
	return draft, nil
}

// UpdateItem applies "name=value" pairs to an item. Without pairs it asks
// for them.
func (a *App) UpdateItem(ctx context.Context, rawID string, pairs []string) error {
	return a.gate.Render(ctx, func(ctx context.Context) error {
		id, err := parseID(rawID)
		if err != nil {
			return err
		}
		if len(pairs) == 0 {
			pairs, err = GetPairs(a.reader, "Enter fields to change", a.out)
			if err != nil {
				return err
			}
		}
		upd, err := models.UpdateFromPairs(pairs)
		if err != nil {
			return err
		}

		item, err := a.items.Update(ctx, id, upd)
		if err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		a.printSuccess("Updated %s", item.Name)
		return nil
	})
}

func (a *App) DeleteItem(ctx context.Context, rawID string) error {
	return a.gate.Render(ctx, func(ctx context.Context) error {
		id, err := parseID(rawID)
		if err != nil {
			return err
		}
		item, err := a.items.Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		a.printSuccess("Deleted %s", item.Name)
		return nil
	})
}

func (a *App) Expiring(ctx context.Context, days int) error {
	return a.gate.Render(ctx, func(ctx context.Context) error {
		items, err := a.items.ExpiringSoon(ctx, days)
		if err != nil {
			return fmt.Errorf("expiring items: %w", err)
		}
		fmt.Fprintln(a.out, renderItems(items, a.now()))
		return nil
	})
}

// Barcode looks a product up and, with save, adds it to the inventory.
func (a *App) Barcode(ctx context.Context, code string, save bool) error {
	return a.gate.Render(ctx, func(ctx context.Context) error {
		if save {
			item, err := a.items.SaveBarcode(ctx, code)
			if err != nil {
				return err
			}
			a.printSuccess("Added %s (%s)", item.Name, item.ID)
			return nil
		}

		draft, err := a.items.LookupBarcode(ctx, code)
		if err != nil {
			if errors.Is(err, client.ErrNotFound) {
				return fmt.Errorf("no product found for barcode %s", code)
			}
			return fmt.Errorf("lookup barcode: %w", err)
		}
		fmt.Fprintln(a.out, renderDraft(draft, a.now()))
		return nil
	})
}

// Analyze uploads an image for recognition and, with save, adds the result
// to the inventory.
func (a *App) Analyze(ctx context.Context, path string, save bool) error {
	return a.gate.Render(ctx, func(ctx context.Context) error {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open image: %w", err)
		}
		defer f.Close()
		name := filepath.Base(path)

		if save {
			item, err := a.items.SaveImage(ctx, name, f)
			if err != nil {
				return err
			}
			a.printSuccess("Added %s (%s)", item.Name, item.ID)
			return nil
		}

		draft, err := a.items.AnalyzeImage(ctx, name, f)
		if err != nil {
			return fmt.Errorf("analyze image: %w", err)
		}
		fmt.Fprintln(a.out, renderDraft(draft, a.now()))
		return nil
	})
}

// Dashboard prints the inventory and the items expiring within days.
func (a *App) Dashboard(ctx context.Context, days int) error {
	return a.gate.Render(ctx, func(ctx context.Context) error {
		ov, err := a.items.Overview(ctx, days)
		if err != nil {
			return err
		}
		now := a.now()

		a.printTitle(fmt.Sprintf("Inventory (%d)", len(ov.Items)))
		fmt.Fprintln(a.out, renderItems(ov.Items, now))
		a.printTitle(fmt.Sprintf("Expiring soon (%d)", len(ov.Expiring)))
		fmt.Fprintln(a.out, renderItems(ov.Expiring, now))
		return nil
	})
}

// Watch prints the expiring items every interval until ctx is cancelled or
// the session ends.
func (a *App) Watch(ctx context.Context, days int, interval time.Duration) error {
	err := a.gate.Watch(ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			items, err := a.items.ExpiringSoon(ctx, days)
			switch {
			case err == nil:
				a.printTitle(fmt.Sprintf("Expiring soon, %s", a.now().Format(time.TimeOnly)))
				fmt.Fprintln(a.out, renderItems(items, a.now()))
			case ctx.Err() != nil:
				return ctx.Err()
			case errors.Is(err, client.ErrUnauthorized):
				return err
			default:
				a.printError(err)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	})
	if errors.Is(err, services.ErrSessionTerminated) {
		a.printWarning("Session ended, stopped watching")
		return err
	}
	if ctx.Err() != nil {
		return nil
	}
	return err
}
