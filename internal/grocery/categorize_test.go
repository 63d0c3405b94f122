package grocery

import "testing"

func TestCategorize(t *testing.T) {
	tests := []struct {
		name   string
		item   string
		want   string
		wantOK bool
	}{
		{"exact", "milk", "Dairy", true},
		{"case and spaces", "  Whole MILK ", "Dairy", true},
		{"specific before broad", "vanilla ice cream", "Frozen", true},
		{"meat", "chicken thighs", "Meat & Seafood", true},
		{"produce plural", "bananas", "Produce", true},
		{"household phrase", "paper towels", "Household", true},
		{"word start only", "shampoo", "Personal Care", true},
		{"override", "eggplant", "Produce", true},
		{"no match", "batteries", "", false},
		{"blank", "   ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Categorize(tt.item)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Categorize(%q) = (%q, %v), want (%q, %v)", tt.item, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
