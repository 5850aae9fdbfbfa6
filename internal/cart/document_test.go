package cart

import (
	"encoding/json"
	"testing"
)

func TestDecodeDocumentCurrentVersion(t *testing.T) {
	raw := []byte(`{"version":2,"items":[{"slug":"mate","qty":2},{"slug":"bombilla","qty":1}]}`)
	doc := DecodeDocument(raw)
	if doc.Version != CurrentVersion {
		t.Fatalf("expected version %d, got %d", CurrentVersion, doc.Version)
	}
	if len(doc.Items) != 2 || doc.Items[0].Qty != 2 {
		t.Fatalf("unexpected items %v", doc.Items)
	}
}

func TestDecodeDocumentMigratesV1(t *testing.T) {
	raw := []byte(`{"items":[{"slug":"mate","quantity":3},{"slug":"termo","quantity":1}]}`)
	doc := DecodeDocument(raw)
	if doc.Version != CurrentVersion {
		t.Fatalf("expected migrated version, got %d", doc.Version)
	}
	if len(doc.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(doc.Items))
	}
	if doc.Items[0].Slug != "mate" || doc.Items[0].Qty != 3 {
		t.Fatalf("quantity not migrated: %v", doc.Items[0])
	}
}

func TestDecodeDocumentDiscardsUnknownVersion(t *testing.T) {
	raw := []byte(`{"version":99,"items":[{"slug":"mate","qty":1}]}`)
	doc := DecodeDocument(raw)
	if len(doc.Items) != 0 {
		t.Fatalf("unknown version must reset to empty cart, got %v", doc.Items)
	}
}

func TestDecodeDocumentHandlesGarbage(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte("not json"), []byte(`{"version":"x"}`)} {
		doc := DecodeDocument(raw)
		if doc == nil || len(doc.Items) != 0 {
			t.Fatalf("expected empty cart for %q", raw)
		}
	}
}

func TestDecodeDocumentSanitizesItems(t *testing.T) {
	raw := []byte(`{"version":2,"items":[{"slug":"mate","qty":1},{"slug":"","qty":5},{"slug":"mate","qty":2},{"slug":"termo","qty":0}]}`)
	doc := DecodeDocument(raw)
	if len(doc.Items) != 1 {
		t.Fatalf("expected collapsed items, got %v", doc.Items)
	}
	if doc.Items[0].Slug != "mate" || doc.Items[0].Qty != 3 {
		t.Fatalf("duplicates should merge: %v", doc.Items[0])
	}
}

func TestEncodeStampsCurrentVersion(t *testing.T) {
	doc := &Document{Version: 1, Items: []Item{{Slug: "mate", Qty: 1}}}
	payload, err := doc.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded Document
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Version != CurrentVersion {
		t.Fatalf("expected version %d, got %d", CurrentVersion, decoded.Version)
	}
}

func TestDocumentRemove(t *testing.T) {
	doc := &Document{Items: []Item{{Slug: "a", Qty: 1}, {Slug: "b", Qty: 2}}}
	doc.Remove("a")
	if len(doc.Items) != 1 || doc.Items[0].Slug != "b" {
		t.Fatalf("unexpected items after remove: %v", doc.Items)
	}
	doc.Remove("missing")
	if len(doc.Items) != 1 {
		t.Fatalf("removing absent slug must be a no-op")
	}
}
