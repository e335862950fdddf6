package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/gomarketplace/internal/cart"
	"github.com/utafrali/gomarketplace/internal/domain"
	"github.com/utafrali/gomarketplace/pkg/httputil"
	"github.com/utafrali/gomarketplace/pkg/logger"
	"github.com/utafrali/gomarketplace/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints. The manager is taken
// from the request context, never from the handler itself.
type CartHandler struct {
	logger *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(logger *slog.Logger) *CartHandler {
	return &CartHandler{logger: logger}
}

// --- Request / response DTOs ---

// AddItemRequest is the JSON request body for adding an item to the cart.
type AddItemRequest struct {
	ID       string `json:"id" validate:"required,max=128"`
	Title    string `json:"title" validate:"required,max=500"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
	// Price is a pointer so a missing price is rejected while an explicit
	// 0 (a free item) is accepted.
	Price *decimal.Decimal `json:"price" validate:"required,gte=0"`
}

// CartItemResponse is one line of CartResponse.
type CartItemResponse struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	ImageURL string          `json:"image_url"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// CartResponse is the JSON shape of a cart snapshot.
type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Version   uint64             `json:"version"`
}

func toCartResponse(c domain.Cart) CartResponse {
	src := c.Items()
	items := make([]CartItemResponse, len(src))
	for i, it := range src {
		items[i] = CartItemResponse{
			ID:       it.ID,
			Title:    it.Title,
			ImageURL: it.ImageURL,
			Price:    it.Price,
			Quantity: it.Quantity,
		}
	}
	return CartResponse{Items: items, ItemCount: c.ItemCount(), Version: c.Version()}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	m := cart.FromContext(r.Context())
	httputil.WriteData(w, http.StatusOK, toCartResponse(m.Snapshot()))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	m := cart.FromContext(r.Context())

	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	snap := m.AddToCart(r.Context(), domain.Candidate{
		ID:       req.ID,
		Title:    req.Title,
		ImageURL: req.ImageURL,
		Price:    *req.Price,
	})

	logger.FromContext(r.Context()).InfoContext(r.Context(), "item added to cart",
		slog.String("item_id", req.ID),
		slog.Uint64("version", snap.Version()),
	)
	httputil.WriteData(w, http.StatusOK, toCartResponse(snap))
}

// IncrementItem handles POST /api/v1/cart/items/{id}/increment
func (h *CartHandler) IncrementItem(w http.ResponseWriter, r *http.Request) {
	m := cart.FromContext(r.Context())
	snap := m.Increment(r.Context(), chi.URLParam(r, "id"))
	httputil.WriteData(w, http.StatusOK, toCartResponse(snap))
}

// DecrementItem handles POST /api/v1/cart/items/{id}/decrement
func (h *CartHandler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	m := cart.FromContext(r.Context())
	snap := m.Decrement(r.Context(), chi.URLParam(r, "id"))
	httputil.WriteData(w, http.StatusOK, toCartResponse(snap))
}
