package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUpdateFromPairs_OK(t *testing.T) {
	u, err := UpdateFromPairs([]string{"name = Milk", "quantity=2", "expiration_date=2026-10-20", "category=dairy"})
	require.NoError(t, err)
	require.Equal(t, "Milk", *u.Name)
	require.Equal(t, 2, *u.Quantity)
	require.Equal(t, "2026-10-20", u.ExpirationDate.String())
	require.Equal(t, "dairy", *u.Category)
	require.Nil(t, u.Barcode)
}

func TestUpdateFromPairs_Errors(t *testing.T) {
	_, err := UpdateFromPairs([]string{"justname"})
	require.ErrorIs(t, err, ErrIncorrectField)

	_, err = UpdateFromPairs([]string{"colour=red"})
	require.ErrorIs(t, err, ErrUnknownField)

	_, err = UpdateFromPairs([]string{"quantity=lots"})
	require.ErrorContains(t, err, "quantity")

	_, err = UpdateFromPairs([]string{"expiration_date=20/10/2026"})
	require.ErrorContains(t, err, "YYYY-MM-DD")

	_, err = UpdateFromPairs(nil)
	require.ErrorIs(t, err, ErrEmptyUpdate)
}

func TestFoodItemUpdate_OnlyChangedFieldsOnTheWire(t *testing.T) {
	q := 3
	b, err := json.Marshal(FoodItemUpdate{Quantity: &q})
	require.NoError(t, err)
	require.JSONEq(t, `{"quantity":3}`, string(b))
}

func TestFoodItem_DecodesBackendPayload(t *testing.T) {
	payload := `{
		"id": "7f9c24e5-2f52-4b5e-9a57-3c1b2d3e4f50",
		"name": "Yogurt",
		"barcode": null,
		"category": "dairy",
		"quantity": 1,
		"expiration_date": "2026-10-19",
		"image_url": null,
		"source": "manual",
		"added_at": "2026-10-17T08:00:00"
	}`
	var item FoodItem
	require.NoError(t, json.Unmarshal([]byte(payload), &item))

	require.Equal(t, uuid.MustParse("7f9c24e5-2f52-4b5e-9a57-3c1b2d3e4f50"), item.ID)
	require.Equal(t, "Yogurt", item.Name)
	require.Nil(t, item.Barcode)
	require.Equal(t, "dairy", Deref(item.Category))
	require.Equal(t, SourceManual, item.Source)
	require.Equal(t, NewDate(2026, time.October, 19), *item.ExpirationDate)
	require.Equal(t, time.Date(2026, time.October, 17, 8, 0, 0, 0, time.UTC), item.AddedAt.Time)
}

func TestDate_DaysUntil(t *testing.T) {
	d := NewDate(2026, time.October, 20)
	now := time.Date(2026, time.October, 17, 23, 59, 0, 0, time.UTC)
	require.Equal(t, 3, d.DaysUntil(now))
	require.Equal(t, -1, NewDate(2026, time.October, 16).DaysUntil(now))
}

func TestDate_JSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2026-01-02"`), &d))
	require.Equal(t, "2026-01-02", d.String())

	b, err := json.Marshal(d)
	require.NoError(t, err)
	require.Equal(t, `"2026-01-02"`, string(b))

	require.Error(t, json.Unmarshal([]byte(`"tomorrow"`), &d))
}

func TestTimestamp_JSON(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2026-10-17T08:00:00Z"`, time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)},
		{`"2026-10-17T10:00:00+02:00"`, time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)},
		{`"2026-10-17T08:00:00.123456"`, time.Date(2026, 10, 17, 8, 0, 0, 123456000, time.UTC)},
	}
	for _, tt := range tests {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(tt.in), &ts), tt.in)
		require.True(t, tt.want.Equal(ts.Time), tt.in)
	}

	var ts Timestamp
	require.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}
