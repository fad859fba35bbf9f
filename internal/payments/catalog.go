package payments

// Package is one purchasable chip bundle. The catalog must match the products
// configured at the payment processor.
type Package struct {
	ID         string `json:"id"`
	PriceCents int64  `json:"priceCents"`
	Chips      int64  `json:"chips"`
}

var catalog = []Package{
	{ID: "starter_pack", PriceCents: 499, Chips: 5000},
	{ID: "value_pack", PriceCents: 999, Chips: 12000},
	{ID: "premium_pack", PriceCents: 1999, Chips: 30000},
	{ID: "high_roller_pack", PriceCents: 4999, Chips: 85000},
	{ID: "whale_pack", PriceCents: 9999, Chips: 200000},
}

var (
	byItem   = map[string]Package{}
	byAmount = map[int64]Package{}
)

func init() {
	for _, p := range catalog {
		byItem[p.ID] = p
		byAmount[p.PriceCents] = p
	}
}

func Packages() []Package {
	out := make([]Package, len(catalog))
	copy(out, catalog)
	return out
}

// PackageByItem resolves a catalog item id.
func PackageByItem(itemID string) (Package, bool) {
	p, ok := byItem[itemID]
	return p, ok
}

// PackageByAmount resolves a charged amount in minor units.
func PackageByAmount(cents int64) (Package, bool) {
	p, ok := byAmount[cents]
	return p, ok
}
