//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func TestCreateProduct(t *testing.T) {
	sku := uniqueSKU("CREATE")
	created := createProduct(t, createProductPayload{
		SKU:   sku,
		Price: json.RawMessage(`29.99`),
		Translations: []translationPayload{
			{Language: "en", Name: "Wireless Mouse", Description: "A comfortable wireless mouse."},
			{Language: "de", Name: "Kabellose Maus", Description: "Eine bequeme kabellose Maus."},
		},
	})

	if created.ID == 0 {
		t.Error("id not assigned")
	}
	if created.SKU != sku {
		t.Errorf("sku: got %q, want %q", created.SKU, sku)
	}
	if created.Price != 29.99 {
		t.Errorf("price: got %v, want 29.99", created.Price)
	}
	if len(created.Translations) != 2 {
		t.Fatalf("expected 2 translations, got %d", len(created.Translations))
	}
	for _, tr := range created.Translations {
		if tr.ID == 0 {
			t.Errorf("translation %q: id not assigned", tr.Language)
		}
	}
}

func TestCreateProduct_DuplicateSKU(t *testing.T) {
	sku := uniqueSKU("DUP")
	payload := createProductPayload{
		SKU:   sku,
		Price: json.RawMessage(`10.00`),
		Translations: []translationPayload{
			{Language: "en", Name: "Widget", Description: "A widget."},
		},
	}
	createProduct(t, payload)

	resp := doPost(t, "/products", payload)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Code != 409 {
		t.Errorf("error code: got %d, want 409", errResp.Code)
	}
}

func TestCreateProduct_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty sku", body: `{"sku": "", "price": 10, "translations": []}`},
		{name: "negative price", body: `{"sku": "VALID-SKU", "price": -5, "translations": []}`},
		{name: "three decimal places", body: `{"sku": "VALID-SKU", "price": 9.999, "translations": []}`},
		{name: "bad language code", body: `{"sku": "VALID-SKU", "price": 10, "translations": [{"language": "eng", "name": "X", "description": "Y"}]}`},
		{name: "missing translations", body: `{"sku": "VALID-SKU", "price": 10}`},
		{name: "malformed json", body: `{"sku":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doPostRaw(t, "/products", []byte(tt.body))
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestGetProduct(t *testing.T) {
	sku := uniqueSKU("GET")
	created := createProduct(t, createProductPayload{
		SKU:   sku,
		Price: json.RawMessage(`15.50`),
		Translations: []translationPayload{
			{Language: "en", Name: "Gadget", Description: "A gadget."},
		},
	})

	resp := doGet(t, fmt.Sprintf("/products/%d", created.ID))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	got := decodeJSON[productResponse](t, resp)
	if got.ID != created.ID {
		t.Errorf("id: got %d, want %d", got.ID, created.ID)
	}
	if got.SKU != sku {
		t.Errorf("sku: got %q, want %q", got.SKU, sku)
	}
	if len(got.Translations) != 1 {
		t.Fatalf("expected 1 translation, got %d", len(got.Translations))
	}
	if got.Translations[0].Name != "Gadget" {
		t.Errorf("translation name: got %q, want %q", got.Translations[0].Name, "Gadget")
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/products/999999999")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Code != 404 {
		t.Errorf("error code: got %d, want 404", errResp.Code)
	}
}

func TestGetProduct_InvalidID(t *testing.T) {
	resp := doGet(t, "/products/abc")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListProducts_IncludesCreated(t *testing.T) {
	sku := uniqueSKU("LIST")
	created := createProduct(t, createProductPayload{
		SKU:   sku,
		Price: json.RawMessage(`5.00`),
		Translations: []translationPayload{
			{Language: "en", Name: "Listed Item", Description: "Appears in the list."},
		},
	})

	resp := doGet(t, "/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	for _, p := range products {
		if p.ID == created.ID {
			if p.Translations == nil {
				t.Error("translations collection missing")
			}
			return
		}
	}
	t.Fatalf("created product %d not in list", created.ID)
}
