package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/nqminh/kitty-market/internal/adapter/random"
	"github.com/nqminh/kitty-market/internal/adapter/storage"
	"github.com/nqminh/kitty-market/internal/core/domain"
	"github.com/nqminh/kitty-market/internal/core/service"
	"github.com/nqminh/kitty-market/internal/port"
)

// Fake currency ledger with unlimited funds unless told otherwise.
type fakeCurrency struct {
	broke bool
}

func (f *fakeCurrency) Transfer(ctx context.Context, from, to domain.AccountID, amount uint64) error {
	if f.broke {
		return port.ErrInsufficientFunds
	}
	return nil
}

func newTestHandler(t *testing.T) (*HTTPHandler, *fakeCurrency) {
	t.Helper()

	store, err := storage.OpenBolt(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	currency := &fakeCurrency{}
	registry := service.NewRegistry(store, random.CryptoSource{}, currency, 5000, 100)
	t.Cleanup(registry.Close)
	go func() {
		for range registry.Notifications() {
		}
	}()

	return NewHTTPHandler(registry), currency
}

func post(t *testing.T, fn http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func decodeTransitionResponse(t *testing.T, rec *httptest.ResponseRecorder) TransitionResponse {
	t.Helper()

	var resp TransitionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHTTP_CreateAndQuery(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := post(t, h.Create, CreateRequest{Owner: 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeTransitionResponse(t, rec)
	if !resp.Success || resp.KittyID != 0 {
		t.Fatalf("expected kitty 0, got %+v", resp)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/kitties?id=0", nil)
	qrec := httptest.NewRecorder()
	h.Kitty(qrec, req)
	if qrec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", qrec.Code)
	}

	var kitty KittyResponse
	if err := json.NewDecoder(qrec.Body).Decode(&kitty); err != nil {
		t.Fatalf("decode kitty: %v", err)
	}
	if kitty.ID != 0 || kitty.Owner != 1 {
		t.Errorf("expected kitty 0 owned by 1, got %+v", kitty)
	}
	if len(kitty.Genome) != domain.GenomeSize*2 {
		t.Errorf("expected %d hex chars, got %d", domain.GenomeSize*2, len(kitty.Genome))
	}
	if kitty.Parents != nil {
		t.Error("expected no parents")
	}
}

func TestHTTP_ErrorMapping(t *testing.T) {
	h, currency := newTestHandler(t)

	// Seed one kitty owned by account 1, listed for sale.
	post(t, h.Create, CreateRequest{Owner: 1})
	post(t, h.Sale, SaleRequest{Caller: 1, KittyID: 0})

	cases := []struct {
		name string
		rec  *httptest.ResponseRecorder
		want int
	}{
		{"breed same id", post(t, h.Breed, BreedRequest{Owner: 1, ParentA: 0, ParentB: 0}), http.StatusBadRequest},
		{"breed missing parent", post(t, h.Breed, BreedRequest{Owner: 1, ParentA: 0, ParentB: 9}), http.StatusNotFound},
		{"transfer unknown kitty", post(t, h.Transfer, TransferRequest{Caller: 1, To: 2, KittyID: 9}), http.StatusNotFound},
		{"transfer not owner", post(t, h.Transfer, TransferRequest{Caller: 2, To: 2, KittyID: 0}), http.StatusForbidden},
		{"sale already listed", post(t, h.Sale, SaleRequest{Caller: 1, KittyID: 0}), http.StatusConflict},
		{"buy by owner", post(t, h.Buy, BuyRequest{Caller: 1, KittyID: 0}), http.StatusConflict},
	}
	for _, tc := range cases {
		if tc.rec.Code != tc.want {
			t.Errorf("%s: expected status %d, got %d", tc.name, tc.want, tc.rec.Code)
		}
	}

	currency.broke = true
	if rec := post(t, h.Buy, BuyRequest{Caller: 2, KittyID: 0}); rec.Code != http.StatusPaymentRequired {
		t.Errorf("broke buyer: expected 402, got %d", rec.Code)
	}

	currency.broke = false
	if rec := post(t, h.Buy, BuyRequest{Caller: 2, KittyID: 0}); rec.Code != http.StatusOK {
		t.Errorf("funded buyer: expected 200, got %d", rec.Code)
	}
	if rec := post(t, h.Buy, BuyRequest{Caller: 3, KittyID: 0}); rec.Code != http.StatusConflict {
		t.Errorf("buy unlisted: expected 409, got %d", rec.Code)
	}
}

func TestHTTP_Market(t *testing.T) {
	h, _ := newTestHandler(t)

	post(t, h.Create, CreateRequest{Owner: 1})
	post(t, h.Create, CreateRequest{Owner: 2})
	post(t, h.Sale, SaleRequest{Caller: 2, KittyID: 1})

	req := httptest.NewRequest(http.MethodGet, "/api/market", nil)
	rec := httptest.NewRecorder()
	h.Market(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var listings []ListingResponse
	if err := json.NewDecoder(rec.Body).Decode(&listings); err != nil {
		t.Fatalf("decode listings: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	if listings[0].KittyID != 1 || listings[0].Seller != 2 {
		t.Errorf("expected kitty 1 listed by 2, got %+v", listings[0])
	}
}

func TestHTTP_InvalidBody(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	get := httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	h.Create(rec, get)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
