package cart

import (
	cartdto "github.com/angelmondragon/forrajeria-backend/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/forrajeria-backend/internal/cart"
)

func newCartView(items []cartsvc.Item) cartdto.CartView {
	lines := make([]cartdto.CartLine, 0, len(items))
	for i, item := range items {
		lines = append(lines, cartdto.CartLine{
			Index:        i,
			ProductID:    item.ProductID,
			Name:         item.Name,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			StockCeiling: item.StockCeiling,
			Subtotal:     item.Subtotal(),
			ImageURL:     item.ImageURL,
		})
	}

	totals := cartsvc.ComputeTotals(items)
	return cartdto.CartView{
		Items: lines,
		Totals: cartdto.CartTotals{
			Subtotal:  totals.Subtotal,
			Total:     totals.Total,
			ItemCount: totals.ItemCount,
		},
	}
}

func newMutationResult(count int, engine *cartsvc.Engine) cartdto.MutationResult {
	return cartdto.MutationResult{ItemCount: count, Cart: newCartView(engine.Items())}
}
