package catalog

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

const (
	BuilderCatalog = "builder"
	LegacyCatalog  = "legacy"
)

var builtins = map[string]func() *Catalog{
	BuilderCatalog: Builder,
	LegacyCatalog:  Legacy,
}

// Builder returns the current catalog: free, builder and enterprise tiers
func Builder() *Catalog {
	return &Catalog{
		Name: BuilderCatalog,
		Plans: []Plan{
			{ID: "free", Name: "Free", BasePrice: decimal.Zero, Free: true, BaseDocuments: 3},
			{ID: "builder", Name: "Builder", BasePrice: decimal.NewFromInt(5), Includes: []AddOnID{AddOnCoder}, BaseDocuments: 10},
			{ID: "enterprise", Name: "Enterprise", BasePrice: decimal.NewFromInt(15), IncludesAllAddOns: true, UnlimitedDocuments: true},
		},
		AddOns: defaultAddOns(),
		Packs:  defaultPacks(),
	}
}

// Legacy returns the first-generation free, pro and enterprise catalog
func Legacy() *Catalog {
	return &Catalog{
		Name: LegacyCatalog,
		Plans: []Plan{
			{ID: "free", Name: "Free", BasePrice: decimal.Zero, Free: true, BaseDocuments: 3},
			{ID: "pro", Name: "Pro", BasePrice: decimal.NewFromInt(29), Includes: []AddOnID{AddOnCoder}, BaseDocuments: 10},
			{ID: "enterprise", Name: "Enterprise", BasePrice: decimal.NewFromInt(99), IncludesAllAddOns: true, UnlimitedDocuments: true},
		},
		AddOns: defaultAddOns(),
		Packs:  defaultPacks(),
	}
}

func defaultAddOns() []AddOn {
	return []AddOn{
		{ID: AddOnCoder, Name: "Coder Package", Price: decimal.NewFromInt(3)},
		{ID: AddOnDatabase, Name: "Database Package", Price: decimal.NewFromInt(2)},
	}
}

func defaultPacks() []CreditPack {
	return []CreditPack{
		{ID: "image_pack", Pool: PoolImage, Size: 10, UnitPrice: decimal.RequireFromString("0.50")},
		{ID: "document_pack", Pool: PoolDocument, Size: 5, UnitPrice: decimal.RequireFromString("2.00")},
	}
}

// ByName returns a fresh copy of a built-in catalog
func ByName(name string) (*Catalog, error) {
	build, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown built-in catalog %q (available: %v)", name, Names())
	}
	return build(), nil
}

// Names lists the built-in catalogs
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
