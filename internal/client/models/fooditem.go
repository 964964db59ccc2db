package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Source tells how an item was captured.
type Source string

const (
	SourceManual  Source = "manual"
	SourceBarcode Source = "barcode"
	SourceVision  Source = "vision"
)

// FoodItem is an inventory record as stored by the backend.
type FoodItem struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Barcode        *string   `json:"barcode,omitempty"`
	Category       *string   `json:"category,omitempty"`
	Quantity       int       `json:"quantity"`
	ExpirationDate *Date     `json:"expiration_date,omitempty"`
	ImageURL       *string   `json:"image_url,omitempty"`
	Source         Source    `json:"source"`
	AddedAt        Timestamp `json:"added_at"`
}

// FoodItemCreate is the payload for creating an item. Barcode lookup and
// image analysis return it prefilled.
type FoodItemCreate struct {
	Name           string  `json:"name"`
	Barcode        *string `json:"barcode,omitempty"`
	Category       *string `json:"category,omitempty"`
	Quantity       int     `json:"quantity,omitempty"`
	ExpirationDate *Date   `json:"expiration_date,omitempty"`
	ImageURL       *string `json:"image_url,omitempty"`
	Source         Source  `json:"source,omitempty"`
}

// FoodItemUpdate carries only the fields to change.
type FoodItemUpdate struct {
	Name           *string `json:"name,omitempty"`
	Barcode        *string `json:"barcode,omitempty"`
	Category       *string `json:"category,omitempty"`
	Quantity       *int    `json:"quantity,omitempty"`
	ExpirationDate *Date   `json:"expiration_date,omitempty"`
	ImageURL       *string `json:"image_url,omitempty"`
}

var (
	ErrIncorrectField = errors.New("field must be name=value")
	ErrUnknownField   = errors.New("unknown field")
	ErrEmptyUpdate    = errors.New("nothing to update")
)

// IsEmpty reports whether u changes nothing.
func (u FoodItemUpdate) IsEmpty() bool {
	return u == FoodItemUpdate{}
}

// UpdateFromPairs builds an update from "name=value" strings such as
// "quantity=3" or "expiration_date=2026-10-20".
func UpdateFromPairs(pairs []string) (FoodItemUpdate, error) {
	var u FoodItemUpdate
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok {
			return FoodItemUpdate{}, fmt.Errorf("%w: %q", ErrIncorrectField, p)
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)

		switch name {
		case "name":
			u.Name = &value
		case "barcode":
			u.Barcode = &value
		case "category":
			u.Category = &value
		case "image_url":
			u.ImageURL = &value
		case "quantity":
			q, err := strconv.Atoi(value)
			if err != nil {
				return FoodItemUpdate{}, fmt.Errorf("quantity: %w", err)
			}
			u.Quantity = &q
		case "expiration_date":
			d, err := ParseDate(value)
			if err != nil {
				return FoodItemUpdate{}, err
			}
			u.ExpirationDate = &d
		default:
			return FoodItemUpdate{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
	}
	if u.IsEmpty() {
		return FoodItemUpdate{}, ErrEmptyUpdate
	}
	return u, nil
}

// Deref returns the value of p or "" when p is nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
