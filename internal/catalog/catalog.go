package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Product is one sellable bundle tier in the catalog file. Bundle
// sizes vary per order item; the catalog only names the tiers.
type Product struct {
	Name    string `yaml:"name"`
	Network string `yaml:"network"`
}

// Catalog is the product list the admin console filters against.
type Catalog struct {
	Products []Product `yaml:"products"`
}

// Load reads and validates a products.yaml file. Relative paths are
// resolved against the working directory.
func Load(productsFile string) (*Catalog, error) {
	var productsPath string
	if filepath.IsAbs(productsFile) {
		productsPath = productsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		productsPath = filepath.Join(wd, productsFile)
	}

	data, err := os.ReadFile(productsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", productsFile, err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", productsFile, err)
	}

	for i, product := range c.Products {
		if product.Name == "" {
			return nil, fmt.Errorf("product at index %d missing name", i)
		}
		if product.Network == "" {
			return nil, fmt.Errorf("product at index %d missing network", i)
		}
	}

	return &c, nil
}

// Has reports whether name is a known product.
func (c *Catalog) Has(name string) bool {
	for _, p := range c.Products {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Names returns every product name in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Products))
	for i, p := range c.Products {
		names[i] = p.Name
	}
	return names
}

// NetworkOf infers the carrier from a product name. Order matters:
// "AIRTEL TIGO" must be checked before the bare carrier names.
func NetworkOf(productName string) string {
	name := strings.ToUpper(productName)
	switch {
	case strings.Contains(name, "AIRTEL TIGO"):
		return "AIRTEL TIGO"
	case strings.Contains(name, "MTN"):
		return "MTN"
	case strings.Contains(name, "TELECEL"):
		return "TELECEL"
	}
	return ""
}
