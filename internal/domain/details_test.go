package domain_test

import (
	"testing"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

func TestDetails_MergeKeepsUntouchedFields(t *testing.T) {
	days := 10
	d := domain.Details{
		Items:                 []domain.LineItem{{ProductID: 1, ProductName: "Bolt", Quantity: 100}},
		EstimatedDeliveryDays: &days,
		Extra:                 map[string]any{"color": "black"},
	}

	got := d.Merge(domain.DetailsPatch{Extra: map[string]any{"finish": "matte"}})

	if len(got.Items) != 1 || got.Items[0].ProductName != "Bolt" {
		t.Errorf("Items = %+v, want original item", got.Items)
	}
	if got.EstimatedDeliveryDays == nil || *got.EstimatedDeliveryDays != 10 {
		t.Errorf("EstimatedDeliveryDays = %v, want 10", got.EstimatedDeliveryDays)
	}
	if got.Extra["color"] != "black" || got.Extra["finish"] != "matte" {
		t.Errorf("Extra = %v, want both keys", got.Extra)
	}
	if _, ok := d.Extra["finish"]; ok {
		t.Error("Merge modified the receiver's Extra map")
	}
}

func TestDetails_MergeReplacesItems(t *testing.T) {
	d := domain.Details{Items: []domain.LineItem{{ProductID: 1}}}

	got := d.Merge(domain.DetailsPatch{Items: []domain.LineItem{{ProductID: 2}, {ProductID: 3}}})

	if len(got.Items) != 2 || got.Items[0].ProductID != 2 {
		t.Errorf("Items = %+v, want replaced list", got.Items)
	}
}

func TestDetailsPatch_IsEmpty(t *testing.T) {
	days := 1
	tests := []struct {
		name  string
		patch domain.DetailsPatch
		want  bool
	}{
		{"zero", domain.DetailsPatch{}, true},
		{"empty extra", domain.DetailsPatch{Extra: map[string]any{}}, true},
		{"days", domain.DetailsPatch{EstimatedDeliveryDays: &days}, false},
		{"items", domain.DetailsPatch{Items: []domain.LineItem{}}, false},
	}
	for _, tt := range tests {
		if got := tt.patch.IsEmpty(); got != tt.want {
			t.Errorf("%s: IsEmpty() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
