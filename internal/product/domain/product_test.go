package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStockStatus(t *testing.T) {
	tests := []struct {
		name   string
		stock  int
		thresh int
		want   string
	}{
		{"below threshold", 5, 10, StockStatusLow},
		{"above threshold", 20, 10, StockStatusOK},
		{"at threshold", 10, 10, StockStatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{StockLevel: tt.stock, ReorderThreshold: tt.thresh}
			assert.Equal(t, tt.want, p.StockStatus())
			assert.Equal(t, tt.want == StockStatusLow, p.IsLowStock())
		})
	}
}

func TestFilter(t *testing.T) {
	products := []Product{
		{ProductID: "p1", ProductName: "Steel Bolt", Category: "Hardware", Supplier: "Acme"},
		{ProductID: "p2", ProductName: "Copper Wire", Category: "Electrical", Supplier: "Wireco"},
		{ProductID: "p3", ProductName: "Paint", Category: "Finishing", Supplier: "ACME Paints"},
	}

	ids := func(ps []Product) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.ProductID)
		}
		return out
	}

	assert.Equal(t, []string{"p1", "p3"}, ids(Filter(products, "acme")))
	assert.Equal(t, []string{"p2"}, ids(Filter(products, "ELECTRICAL")))
	assert.Equal(t, []string{"p2"}, ids(Filter(products, "wire")))
	assert.Len(t, Filter(products, "  "), 3)
	assert.Empty(t, Filter(products, "nothing"))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "p1_w1", Key("p1", "w1"))
	assert.Equal(t, "p1_w1", Product{ProductID: "p1", WarehouseID: "w1"}.Key())
}
