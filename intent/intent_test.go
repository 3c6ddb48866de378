package intent

import (
	"reflect"
	"testing"
)

func TestParse_CategoryAndSort(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantCategory string
		wantSort     string
		wantClean    string
	}{
		{
			name:         "category keyword wins by table order",
			query:        "cheap gaming headphones",
			wantCategory: "Audio",
			wantSort:     SortPriceAsc,
			wantClean:    "gaming headphones",
		},
		{
			name:         "brand keyword as category fallback",
			query:        "jbl flagship",
			wantCategory: "Audio",
			wantSort:     SortPriceDesc,
			wantClean:    "jbl",
		},
		{
			name:         "quality maps to rating when no price sort",
			query:        "best laptop",
			wantCategory: "Computers",
			wantSort:     SortRating,
			wantClean:    "laptop",
		},
		{
			name:         "quality ignored when budget present",
			query:        "best cheap laptop",
			wantCategory: "Computers",
			wantSort:     SortPriceAsc,
			wantClean:    "laptop",
		},
		{
			name:         "premium beats budget when both present",
			query:        "cheap premium speaker",
			wantCategory: "Audio",
			wantSort:     SortPriceDesc,
			wantClean:    "speaker",
		},
		{
			name:         "whole word only, pro does not hit protector",
			query:        "screen protector",
			wantCategory: "",
			wantSort:     "",
			wantClean:    "screen protector",
		},
		{
			name:         "no modifiers at all",
			query:        "wireless keyboard",
			wantCategory: "Accessories",
			wantSort:     "",
			wantClean:    "wireless keyboard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.query)
			if got.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", got.Category, tt.wantCategory)
			}
			if got.Sort != tt.wantSort {
				t.Errorf("Sort = %q, want %q", got.Sort, tt.wantSort)
			}
			if got.CleanQuery != tt.wantClean {
				t.Errorf("CleanQuery = %q, want %q", got.CleanQuery, tt.wantClean)
			}
		})
	}
}

func TestParse_PricePatterns(t *testing.T) {
	fp := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		query   string
		wantMin *float64
		wantMax *float64
	}{
		{"under pattern", "headphones under 2000", nil, fp(2000)},
		{"below with dollar", "laptop below $1,500", nil, fp(1500)},
		{"over pattern", "camera over 300", fp(300), nil},
		{"range with to", "phone 100 to 500", fp(100), fp(500)},
		{"range with dash", "ssd 50-150", fp(50), fp(150)},
		{"range wins over single-sided", "between 100 and 500 under 50", fp(100), fp(500)},
		{"both single-sided", "router over 20 under 80", fp(20), fp(80)},
		{"no price", "gaming mouse", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.query)
			if !eqPrice(got.MinPrice, tt.wantMin) {
				t.Errorf("MinPrice = %v, want %v", deref(got.MinPrice), deref(tt.wantMin))
			}
			if !eqPrice(got.MaxPrice, tt.wantMax) {
				t.Errorf("MaxPrice = %v, want %v", deref(got.MaxPrice), deref(tt.wantMax))
			}
		})
	}
}

func TestParse_Deterministic(t *testing.T) {
	// 同一输入必须产出完全相同的结果，包括关键词优先级的平局
	query := "cheap premium best gaming headphones under 2000"
	first := Parse(query)
	for i := 0; i < 100; i++ {
		got := Parse(query)
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("Parse not deterministic: run %d = %+v, first = %+v", i, got, first)
		}
	}
	if first.Sort != SortPriceDesc {
		t.Errorf("Sort = %q, want premium to beat budget (%q)", first.Sort, SortPriceDesc)
	}
}

func TestParse_EmptyCleanFallsBack(t *testing.T) {
	// 全部文本都被剥离时回退为原始 query
	got := Parse("cheap")
	if got.CleanQuery != "cheap" {
		t.Errorf("CleanQuery = %q, want original query", got.CleanQuery)
	}
	if got.Sort != SortPriceAsc {
		t.Errorf("Sort = %q, want %q", got.Sort, SortPriceAsc)
	}
}

func eqPrice(got, want *float64) bool {
	if got == nil || want == nil {
		return got == want
	}
	return *got == *want
}

func deref(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
