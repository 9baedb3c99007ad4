package db

import (
	"strings"
	"testing"
)

func TestListCartItemsOrdersNewestFirst(t *testing.T) {
	if !strings.Contains(listCartItems, "ORDER BY ci.created_at DESC") {
		t.Fatal("cart listing must return the most recently added lines first")
	}
}

func TestCountCartItemsCountsLines(t *testing.T) {
	if !strings.Contains(countCartItems, "COUNT(*)") {
		t.Fatal("cart count must count lines, not sum quantities")
	}
	if strings.Contains(strings.ToUpper(countCartItems), "SUM(") {
		t.Fatal("cart count must not aggregate quantities")
	}
}
