package config

import (
	_ "embed"
	"fmt"

	"github.com/aluiziolira/ebook-search/models"
	"gopkg.in/yaml.v3"
)

//go:embed bookstores.yaml
var defaultBookstores []byte

// DefaultBookstores returns the built-in bookstore registry.
func DefaultBookstores() []models.Bookstore {
	stores, err := ParseBookstores(defaultBookstores)
	if err != nil {
		panic(fmt.Sprintf("config: embedded bookstores: %v", err))
	}
	return stores
}

// ParseBookstores decodes a YAML list of bookstores.
func ParseBookstores(data []byte) ([]models.Bookstore, error) {
	var stores []models.Bookstore
	if err := yaml.Unmarshal(data, &stores); err != nil {
		return nil, fmt.Errorf("decode bookstores: %w", err)
	}
	return stores, nil
}
