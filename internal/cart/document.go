package cart

import (
	"encoding/json"
	"strings"
	"time"
)

// CurrentVersion is the cart document schema written on every save.
const CurrentVersion = 2

// Item is a cart line as persisted: a product reference plus quantity.
// Prices are never stored; they are resolved against the catalog on read.
type Item struct {
	Slug string `json:"slug"`
	Qty  int    `json:"qty"`
}

// Document is the versioned cart payload stored in Redis.
type Document struct {
	Version   int       `json:"version"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

type legacyItemV1 struct {
	Slug     string `json:"slug"`
	Quantity int    `json:"quantity"`
}

type legacyDocumentV1 struct {
	Items []legacyItemV1 `json:"items"`
}

// DecodeDocument parses a stored cart payload, migrating older schemas
// forward. Payloads from an unknown newer version are discarded and replaced
// with an empty cart rather than guessed at.
func DecodeDocument(raw []byte) *Document {
	if len(raw) == 0 {
		return emptyDocument()
	}

	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return emptyDocument()
	}

	switch {
	case probe.Version == CurrentVersion:
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return emptyDocument()
		}
		doc.Items = sanitizeItems(doc.Items)
		return &doc

	case probe.Version == 0:
		// Version predates the field: the v1 schema used "quantity".
		var legacy legacyDocumentV1
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return emptyDocument()
		}
		doc := emptyDocument()
		for _, item := range legacy.Items {
			doc.Items = append(doc.Items, Item{Slug: item.Slug, Qty: item.Quantity})
		}
		doc.Items = sanitizeItems(doc.Items)
		return doc

	default:
		return emptyDocument()
	}
}

// Encode serializes the document at the current version.
func (d *Document) Encode() ([]byte, error) {
	d.Version = CurrentVersion
	return json.Marshal(d)
}

// Find returns the index of the item with the given slug, or -1.
func (d *Document) Find(slug string) int {
	for i, item := range d.Items {
		if item.Slug == slug {
			return i
		}
	}
	return -1
}

// Remove deletes the item with the given slug if present.
func (d *Document) Remove(slug string) {
	idx := d.Find(slug)
	if idx < 0 {
		return
	}
	d.Items = append(d.Items[:idx], d.Items[idx+1:]...)
}

func emptyDocument() *Document {
	return &Document{Version: CurrentVersion, Items: []Item{}}
}

func sanitizeItems(items []Item) []Item {
	clean := make([]Item, 0, len(items))
	seen := map[string]int{}
	for _, item := range items {
		slug := strings.TrimSpace(item.Slug)
		if slug == "" || item.Qty <= 0 {
			continue
		}
		// Duplicate slugs collapse into one line.
		if idx, ok := seen[slug]; ok {
			clean[idx].Qty += item.Qty
			continue
		}
		seen[slug] = len(clean)
		clean = append(clean, Item{Slug: slug, Qty: item.Qty})
	}
	return clean
}
