package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalNumberAndString(t *testing.T) {
	var got struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	err := json.Unmarshal([]byte(`{"a": 12, "b": "12", "c": null}`), &got)
	require.NoError(t, err)

	assert.Equal(t, ID("12"), got.A)
	assert.Equal(t, got.A, got.B)
	assert.Equal(t, ID(""), got.C)
}

func TestID_UnmarshalRejectsObjects(t *testing.T) {
	var id ID
	err := json.Unmarshal([]byte(`{"x":1}`), &id)
	assert.Error(t, err)
}

func TestNumber_Unmarshal(t *testing.T) {
	var got struct {
		Rating Number `json:"calificacion"`
		Lat    Number `json:"latitude"`
		Empty  Number `json:"empty"`
	}
	err := json.Unmarshal([]byte(`{"calificacion":"4.5","latitude":19.70,"empty":""}`), &got)
	require.NoError(t, err)

	assert.InDelta(t, 4.5, got.Rating.Float64(), 1e-9)
	assert.InDelta(t, 19.70, got.Lat.Float64(), 1e-9)
	assert.Zero(t, got.Empty.Float64())

	var bad Number
	assert.Error(t, json.Unmarshal([]byte(`"four"`), &bad))
}

func TestVendor_Stars(t *testing.T) {
	tests := []struct {
		rating            Number
		full, half, empty int
	}{
		{0, 0, 0, 5},
		{3.2, 3, 0, 2},
		{3.5, 3, 1, 1},
		{4.9, 4, 1, 0},
		{5, 5, 0, 0},
		{7, 5, 0, 0},
		{-1, 0, 0, 5},
	}
	for _, tt := range tests {
		full, half, empty := Vendor{Rating: tt.rating}.Stars()
		assert.Equal(t, tt.full, full, "full for %v", tt.rating)
		assert.Equal(t, tt.half, half, "half for %v", tt.rating)
		assert.Equal(t, tt.empty, empty, "empty for %v", tt.rating)
	}
}

func TestProduct_Summary(t *testing.T) {
	p := Product{Description: "Aceite de CBD de espectro completo para uso diario y relajación"}
	assert.Equal(t, "Aceite de CBD de espectro completo para uso diario...", p.Summary(50))

	short := Product{Description: "Bálsamo"}
	assert.Equal(t, "Bálsamo", short.Summary(50))
}

func TestProduct_DecodeRemotePayload(t *testing.T) {
	raw := `{"id":"7","categoria_id":2,"nombre":"Gomitas","descripcion":"x","precio":"24.99","imagen":"g.png"}`
	var p Product
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, ID("7"), p.ID)
	assert.Equal(t, ID("2"), p.CategoryID)
	assert.True(t, decimal.RequireFromString("24.99").Equal(p.Price))
}

func TestPromotion_Savings(t *testing.T) {
	ok := Promotion{OriginalPrice: decimal.NewFromInt(50), DiscountedPrice: decimal.NewFromInt(35)}
	assert.True(t, ok.Valid())
	assert.True(t, decimal.NewFromInt(15).Equal(ok.Savings()))

	inverted := Promotion{OriginalPrice: decimal.NewFromInt(10), DiscountedPrice: decimal.NewFromInt(12)}
	assert.False(t, inverted.Valid())
	assert.True(t, inverted.Savings().IsZero())
}

func TestLineItem_LineTotal(t *testing.T) {
	li := LineItem{UnitPrice: decimal.RequireFromString("45.99"), Quantity: 2}
	assert.Equal(t, "91.98", li.LineTotal().StringFixed(2))
}

func TestErrors_Classification(t *testing.T) {
	var err error = &ApplicationError{Op: "list vendors", Message: "sin datos"}
	assert.True(t, IsApplication(err))
	assert.False(t, IsTransport(err))
	assert.Equal(t, "sin datos", err.Error())

	err = &TransportError{Op: "list vendors", Err: ErrMalformedPayload}
	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}
