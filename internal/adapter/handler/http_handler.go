package handler

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nqminh/kitty-market/internal/core/domain"
	"github.com/nqminh/kitty-market/internal/core/service"
	"github.com/nqminh/kitty-market/internal/port"
)

// HTTPHandler dispatches authenticated transition requests into the
// registry. Authentication happens upstream; the account ids in request
// bodies are trusted here.
type HTTPHandler struct {
	registry *service.Registry
}

func NewHTTPHandler(registry *service.Registry) *HTTPHandler {
	return &HTTPHandler{registry: registry}
}

type CreateRequest struct {
	Owner uint64 `json:"owner"`
}

type BreedRequest struct {
	Owner   uint64 `json:"owner"`
	ParentA uint32 `json:"parent_a"`
	ParentB uint32 `json:"parent_b"`
}

type TransferRequest struct {
	Caller  uint64 `json:"caller"`
	To      uint64 `json:"to"`
	KittyID uint32 `json:"kitty_id"`
}

type SaleRequest struct {
	Caller  uint64 `json:"caller"`
	KittyID uint32 `json:"kitty_id"`
}

type BuyRequest struct {
	Caller  uint64 `json:"caller"`
	KittyID uint32 `json:"kitty_id"`
}

type TransitionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	KittyID uint32 `json:"kitty_id"`
}

type KittyResponse struct {
	ID      uint32     `json:"id"`
	Genome  string     `json:"genome"`
	Owner   uint64     `json:"owner"`
	Parents *[2]uint32 `json:"parents,omitempty"`
	OnSale  bool       `json:"on_sale"`
}

type ListingResponse struct {
	KittyID uint32 `json:"kitty_id"`
	Seller  uint64 `json:"seller"`
}

func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !decodeTransition(w, r, &req) {
		return
	}

	id, err := h.registry.Create(r.Context(), domain.AccountID(req.Owner))
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TransitionResponse{Success: true, Message: "kitty created", KittyID: uint32(id)})
}

func (h *HTTPHandler) Breed(w http.ResponseWriter, r *http.Request) {
	var req BreedRequest
	if !decodeTransition(w, r, &req) {
		return
	}

	id, err := h.registry.Breed(r.Context(), domain.AccountID(req.Owner), domain.KittyID(req.ParentA), domain.KittyID(req.ParentB))
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TransitionResponse{Success: true, Message: "kitty bred", KittyID: uint32(id)})
}

func (h *HTTPHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if !decodeTransition(w, r, &req) {
		return
	}

	err := h.registry.Transfer(r.Context(), domain.AccountID(req.Caller), domain.AccountID(req.To), domain.KittyID(req.KittyID))
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TransitionResponse{Success: true, Message: "kitty transferred", KittyID: req.KittyID})
}

func (h *HTTPHandler) Sale(w http.ResponseWriter, r *http.Request) {
	var req SaleRequest
	if !decodeTransition(w, r, &req) {
		return
	}

	err := h.registry.Sale(r.Context(), domain.AccountID(req.Caller), domain.KittyID(req.KittyID))
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TransitionResponse{Success: true, Message: "kitty on sale", KittyID: req.KittyID})
}

func (h *HTTPHandler) Buy(w http.ResponseWriter, r *http.Request) {
	var req BuyRequest
	if !decodeTransition(w, r, &req) {
		return
	}

	err := h.registry.Buy(r.Context(), domain.AccountID(req.Caller), domain.KittyID(req.KittyID))
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TransitionResponse{Success: true, Message: "kitty bought", KittyID: req.KittyID})
}

func (h *HTTPHandler) Kitty(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 32)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, TransitionResponse{Success: false, Message: "invalid kitty id"})
		return
	}

	kitty, err := h.registry.Kitty(r.Context(), domain.KittyID(id))
	if err != nil {
		writeTransitionError(w, err)
		return
	}

	resp := KittyResponse{
		ID:     uint32(kitty.ID),
		Genome: genomeHex(kitty.Genome),
		Owner:  uint64(kitty.Owner),
		OnSale: kitty.OnSale,
	}
	if kitty.Parents != nil {
		resp.Parents = &[2]uint32{uint32(kitty.Parents.A), uint32(kitty.Parents.B)}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) Market(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	listings, err := h.registry.Listings(r.Context())
	if err != nil {
		writeTransitionError(w, err)
		return
	}

	resp := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		resp = append(resp, ListingResponse{KittyID: uint32(l.KittyID), Seller: uint64(l.Seller)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeTransition(w http.ResponseWriter, r *http.Request, req any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, TransitionResponse{Success: false, Message: "invalid request body"})
		return false
	}
	return true
}

func writeTransitionError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, domain.ErrSameKittyID):
		status, message = http.StatusBadRequest, "same kitty id"
	case errors.Is(err, domain.ErrInvalidKittyID):
		status, message = http.StatusNotFound, "invalid kitty id"
	case errors.Is(err, domain.ErrNotOwner):
		status, message = http.StatusForbidden, "not the owner"
	case errors.Is(err, domain.ErrAlreadyOnSale):
		status, message = http.StatusConflict, "already on sale"
	case errors.Is(err, domain.ErrNotOnSale):
		status, message = http.StatusConflict, "not on sale"
	case errors.Is(err, domain.ErrAlreadyOwned):
		status, message = http.StatusConflict, "already owned"
	case errors.Is(err, port.ErrInsufficientFunds):
		status, message = http.StatusPaymentRequired, "insufficient funds"
	}

	writeJSON(w, status, TransitionResponse{Success: false, Message: message})
}

func genomeHex(g domain.Genome) string {
	return hex.EncodeToString(g[:])
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
