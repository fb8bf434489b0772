package domain

import "maps"

// LineItem is one product line captured on the quote.
type LineItem struct {
	ProductID      int64          `json:"product_id"`
	ProductName    string         `json:"product_name"`
	SKU            string         `json:"sku,omitempty"`
	Quantity       int            `json:"quantity"`
	Specifications map[string]any `json:"specifications,omitempty"`
	Notes          string         `json:"notes,omitempty"`
}

// Details is the structured payload stored in quote_details.
type Details struct {
	Items                 []LineItem     `json:"items"`
	EstimatedDeliveryDays *int           `json:"estimated_delivery_days,omitempty"`
	Extra                 map[string]any `json:"extra,omitempty"`
}

// DetailsPatch holds the fields a caller wants to merge into Details.
// Nil fields leave the current value untouched.
type DetailsPatch struct {
	Items                 []LineItem
	EstimatedDeliveryDays *int
	Extra                 map[string]any
}

// IsEmpty reports whether applying p would change nothing.
func (p DetailsPatch) IsEmpty() bool {
	return p.Items == nil && p.EstimatedDeliveryDays == nil && len(p.Extra) == 0
}

// Merge returns a copy of d with p applied. Extra keys are merged one by one.
func (d Details) Merge(p DetailsPatch) Details {
	out := d.clone()
	if p.Items != nil {
		out.Items = cloneItems(p.Items)
	}
	if p.EstimatedDeliveryDays != nil {
		days := *p.EstimatedDeliveryDays
		out.EstimatedDeliveryDays = &days
	}
	if len(p.Extra) > 0 {
		if out.Extra == nil {
			out.Extra = make(map[string]any, len(p.Extra))
		}
		maps.Copy(out.Extra, p.Extra)
	}
	return out
}

func (d Details) clone() Details {
	out := Details{
		Items: cloneItems(d.Items),
		Extra: maps.Clone(d.Extra),
	}
	if d.EstimatedDeliveryDays != nil {
		days := *d.EstimatedDeliveryDays
		out.EstimatedDeliveryDays = &days
	}
	return out
}

func cloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	for i, item := range items {
		item.Specifications = maps.Clone(item.Specifications)
		out[i] = item
	}
	return out
}
