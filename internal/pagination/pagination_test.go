package pagination

import "testing"

func TestDefaults(t *testing.T) {
	tests := []struct {
		name         string
		in           PageRequest
		wantPage     int
		wantPageSize int
	}{
		{"empty", PageRequest{}, 1, DefaultPageSize},
		{"kept", PageRequest{Page: 3, PageSize: 50}, 3, 50},
		{"clamped", PageRequest{Page: -1, PageSize: 500}, 1, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Defaults()
			if p.Page != tt.wantPage || p.PageSize != tt.wantPageSize {
				t.Errorf("got page=%d size=%d, want page=%d size=%d", p.Page, p.PageSize, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	p := PageRequest{Page: 3, PageSize: 20}
	if got := p.Offset(); got != 40 {
		t.Errorf("expected offset 40, got %d", got)
	}
}

func TestOrdersResolve(t *testing.T) {
	orders := Orders{"date_desc": "date DESC", "amount_asc": "amount ASC"}

	if clause, ok := orders.Resolve("", "date_desc"); !ok || clause != "date DESC" {
		t.Errorf("expected fallback clause, got %q %v", clause, ok)
	}
	if clause, ok := orders.Resolve("amount_asc", "date_desc"); !ok || clause != "amount ASC" {
		t.Errorf("expected amount clause, got %q %v", clause, ok)
	}
	if _, ok := orders.Resolve("amount; DROP TABLE movements", "date_desc"); ok {
		t.Error("expected unknown key to be rejected")
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse[int](nil, 2, 20, 41)
	if resp.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", resp.TotalPages)
	}
	if resp.Data == nil {
		t.Error("expected empty slice, not nil")
	}

	empty := NewPageResponse([]int{}, 1, 20, 0)
	if empty.TotalPages != 0 {
		t.Errorf("expected 0 pages, got %d", empty.TotalPages)
	}
}
