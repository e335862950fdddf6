package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// wireItem is the persisted shape of a line item. Older snapshots spelled the
// image field image_url; both spellings are accepted on decode.
type wireItem struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	ImageURL       string          `json:"imageUrl"`
	LegacyImageURL string          `json:"image_url,omitempty"`
	Price          json.RawMessage `json:"price"`
	Quantity       int             `json:"quantity"`
}

// Marshal encodes the cart as a JSON array of line items in cart order.
// Prices are written as JSON numbers.
func Marshal(c Cart) ([]byte, error) {
	wire := make([]wireItem, len(c.items))
	for i, it := range c.items {
		wire[i] = wireItem{
			ID:       it.ID,
			Title:    it.Title,
			ImageURL: it.ImageURL,
			Price:    json.RawMessage(it.Price.String()),
			Quantity: it.Quantity,
		}
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("marshal cart: %w", err)
	}
	return data, nil
}

// Unmarshal decodes data produced by Marshal. Empty input, null and [] all
// decode to the empty cart. Anything else that is not a valid cart fails with
// an error wrapping ErrCorruptCart.
func Unmarshal(data []byte) (Cart, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Cart{}, nil
	}

	var wire []wireItem
	if err := json.Unmarshal(data, &wire); err != nil {
		return Cart{}, fmt.Errorf("%w: %v", ErrCorruptCart, err)
	}

	items := make([]LineItem, len(wire))
	for i, w := range wire {
		price, err := decodePrice(w.Price)
		if err != nil {
			return Cart{}, fmt.Errorf("%w: item %q: %v", ErrCorruptCart, w.ID, err)
		}
		image := w.ImageURL
		if image == "" {
			image = w.LegacyImageURL
		}
		items[i] = LineItem{
			ID:       w.ID,
			Title:    w.Title,
			ImageURL: image,
			Price:    price,
			Quantity: w.Quantity,
		}
	}

	return NewCart(items)
}

func decodePrice(raw json.RawMessage) (decimal.Decimal, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Decimal{}, fmt.Errorf("missing price")
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid price %s: %w", raw, err)
	}
	return d, nil
}
