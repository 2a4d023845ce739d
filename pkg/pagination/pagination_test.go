package pagination

import "testing"

func TestParamsNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		in       Params
		wantPage int
		wantSize int
	}{
		{"zero values", Params{}, 1, DefaultPageSize},
		{"negative page", Params{Page: -3, PageSize: 10}, 1, 10},
		{"oversized page size", Params{Page: 2, PageSize: 500}, 2, MaxPageSize},
		{"passthrough", Params{Page: 4, PageSize: 25}, 4, 25},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := tc.in.Normalize()
			if got.Page != tc.wantPage || got.PageSize != tc.wantSize {
				t.Fatalf("got %+v, want page=%d size=%d", got, tc.wantPage, tc.wantSize)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	t.Parallel()

	p := Params{Page: 3, PageSize: 20}
	if got := p.Offset(); got != 40 {
		t.Fatalf("offset = %d, want 40", got)
	}
}

func TestNewPage(t *testing.T) {
	t.Parallel()

	page := NewPage([]int{1, 2, 3}, Params{Page: 1, PageSize: 3}, 7)
	if page.TotalPages != 3 {
		t.Fatalf("total pages = %d, want 3", page.TotalPages)
	}
	if page.TotalCount != 7 {
		t.Fatalf("total count = %d, want 7", page.TotalCount)
	}

	empty := NewPage[int](nil, Params{}, 0)
	if empty.Items == nil {
		t.Fatal("items should be an empty slice, not nil")
	}
}
