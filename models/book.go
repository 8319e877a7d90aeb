// Package models defines the records shared by the store adapters, the
// aggregator and the HTTP layer.
package models

// Book is one product listing extracted from a store's result page.
//
// Optional name collections are nil when nothing was extracted, so they are
// omitted from JSON instead of being rendered as empty arrays.
type Book struct {
	ID            string   `json:"id,omitempty"`
	Title         string   `json:"title"`
	Link          string   `json:"link"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
	PriceCurrency string   `json:"priceCurrency,omitempty"`
	Price         float64  `json:"price"`
	NonDrmPrice   *float64 `json:"nonDrmPrice,omitempty"`
	About         string   `json:"about,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishDate   string   `json:"publishDate,omitempty"`
	Authors       []string `json:"authors,omitempty"`
	Translators   []string `json:"translators,omitempty"`
	Painters      []string `json:"painters,omitempty"`
}

// Bookstore is a configured search target.
type Bookstore struct {
	ID          string `json:"id" yaml:"id" mapstructure:"id"`
	DisplayName string `json:"displayName" yaml:"displayName" mapstructure:"displayName"`
	Website     string `json:"website,omitempty" yaml:"website" mapstructure:"website"`
	IsOnline    bool   `json:"isOnline" yaml:"isOnline" mapstructure:"isOnline"`
	ProxyURL    string `json:"-" yaml:"proxyUrl" mapstructure:"proxyUrl"`
}
