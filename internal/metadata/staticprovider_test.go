package metadata

import (
	"context"
	"testing"
)

func TestStaticProvider_GetLayouts(t *testing.T) {
	layouts := map[string][]Layout{
		"s.orders": {{Version: 1, OrderedPath: "orders/"}},
	}
	p := NewStaticProvider("static", layouts)

	got, err := p.GetLayouts(context.Background(), "s", "orders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].OrderedPath != "orders/" {
		t.Fatalf("got %+v, want one layout with orderedPath orders/", got)
	}
}

func TestStaticProvider_GetLayouts_Unregistered(t *testing.T) {
	p := NewStaticProvider("static", nil)
	if _, err := p.GetLayouts(context.Background(), "s", "missing"); err == nil {
		t.Fatal("expected an error for a table with no registered layout")
	}
}

func TestStaticProvider_Name(t *testing.T) {
	p := NewStaticProvider("static", nil)
	if p.Name() != "static" {
		t.Fatalf("got name %q, want static", p.Name())
	}
}

func TestService_WithStaticProvider(t *testing.T) {
	svc := NewService()
	svc.Register(NewStaticProvider("static", map[string][]Layout{
		"s.orders": {{Version: 1, OrderedPath: "orders/"}},
	}))

	layouts, err := svc.GetLayouts(context.Background(), "s", "orders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(layouts) != 1 {
		t.Fatalf("got %d layouts, want 1", len(layouts))
	}

	if _, err := svc.GetLayouts(context.Background(), "s", "nope"); err == nil {
		t.Fatal("expected an error for an unregistered table")
	}
}
