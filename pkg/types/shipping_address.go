package types

import "strings"

// ShippingAddress is the normalized delivery address stored on an order.
// Persisted as jsonb.
type ShippingAddress struct {
	Street     string  `json:"street"`
	Number     string  `json:"number"`
	City       string  `json:"city"`
	Province   string  `json:"province"`
	PostalCode string  `json:"postal_code"`
	Notes      *string `json:"notes,omitempty"`
}

// DisplayText renders the single-line form shown on invoices and emails.
func (a ShippingAddress) DisplayText() string {
	parts := make([]string, 0, 4)
	street := strings.TrimSpace(strings.Join([]string{a.Street, a.Number}, " "))
	if street != "" {
		parts = append(parts, street)
	}
	if city := strings.TrimSpace(a.City); city != "" {
		parts = append(parts, city)
	}
	if prov := strings.TrimSpace(a.Province); prov != "" {
		parts = append(parts, prov)
	}
	if cp := strings.TrimSpace(a.PostalCode); cp != "" {
		parts = append(parts, "CP "+cp)
	}
	return strings.Join(parts, ", ")
}
