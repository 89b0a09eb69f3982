package catalog

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk YAML layout. Prices are strings so they survive
// the round trip without float conversion.
type catalogFile struct {
	Name   string      `yaml:"name"`
	Plans  []planFile  `yaml:"plans"`
	AddOns []addOnFile `yaml:"add_ons"`
	Packs  []packFile  `yaml:"packs"`
}

type planFile struct {
	ID                 string   `yaml:"id"`
	Name               string   `yaml:"name"`
	BasePrice          string   `yaml:"base_price"`
	Free               bool     `yaml:"free,omitempty"`
	Includes           []string `yaml:"includes,omitempty"`
	IncludesAllAddOns  bool     `yaml:"includes_all_add_ons,omitempty"`
	UnlimitedDocuments bool     `yaml:"unlimited_documents,omitempty"`
	BaseDocuments      int      `yaml:"base_documents,omitempty"`
}

type addOnFile struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
}

type packFile struct {
	ID        string `yaml:"id"`
	Pool      string `yaml:"pool"`
	Size      int    `yaml:"size"`
	UnitPrice string `yaml:"unit_price"`
}

// LoadFile reads and validates a YAML catalog
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{Name: f.Name}
	for _, p := range f.Plans {
		price, err := parsePrice(p.BasePrice)
		if err != nil {
			return nil, fmt.Errorf("plan %q: %w", p.ID, err)
		}
		includes := make([]AddOnID, 0, len(p.Includes))
		for _, id := range p.Includes {
			includes = append(includes, AddOnID(id))
		}
		c.Plans = append(c.Plans, Plan{
			ID:                 PlanID(p.ID),
			Name:               p.Name,
			BasePrice:          price,
			Free:               p.Free,
			Includes:           includes,
			IncludesAllAddOns:  p.IncludesAllAddOns,
			UnlimitedDocuments: p.UnlimitedDocuments,
			BaseDocuments:      p.BaseDocuments,
		})
	}
	for _, a := range f.AddOns {
		price, err := parsePrice(a.Price)
		if err != nil {
			return nil, fmt.Errorf("add-on %q: %w", a.ID, err)
		}
		c.AddOns = append(c.AddOns, AddOn{ID: AddOnID(a.ID), Name: a.Name, Price: price})
	}
	for _, p := range f.Packs {
		pool, err := ParsePool(p.Pool)
		if err != nil {
			return nil, fmt.Errorf("pack %q: %w", p.ID, err)
		}
		price, err := parsePrice(p.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("pack %q: %w", p.ID, err)
		}
		c.Packs = append(c.Packs, CreditPack{ID: p.ID, Pool: pool, Size: p.Size, UnitPrice: price})
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}

// Encode renders a catalog in the YAML file layout
func Encode(c *Catalog) ([]byte, error) {
	f := catalogFile{Name: c.Name}
	for _, p := range c.Plans {
		includes := make([]string, 0, len(p.Includes))
		for _, id := range p.Includes {
			includes = append(includes, string(id))
		}
		f.Plans = append(f.Plans, planFile{
			ID:                 string(p.ID),
			Name:               p.Name,
			BasePrice:          p.BasePrice.String(),
			Free:               p.Free,
			Includes:           includes,
			IncludesAllAddOns:  p.IncludesAllAddOns,
			UnlimitedDocuments: p.UnlimitedDocuments,
			BaseDocuments:      p.BaseDocuments,
		})
	}
	for _, a := range c.AddOns {
		f.AddOns = append(f.AddOns, addOnFile{ID: string(a.ID), Name: a.Name, Price: a.Price.String()})
	}
	for _, p := range c.Packs {
		f.Packs = append(f.Packs, packFile{ID: p.ID, Pool: string(p.Pool), Size: p.Size, UnitPrice: p.UnitPrice.StringFixed(2)})
	}
	return yaml.Marshal(&f)
}

func parsePrice(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return d, nil
}
