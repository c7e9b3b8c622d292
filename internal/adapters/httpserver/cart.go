package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/merchkit/storefront/internal/cart"
	"github.com/merchkit/storefront/internal/domain"
	"github.com/merchkit/storefront/internal/usecase"
	"github.com/merchkit/storefront/internal/variant"
)

const (
	cartCookie = "cart"
	cartMaxAge = 60 * 60 * 24 * 7
)

type cartPayload struct {
	Lines []domain.CartLine `json:"lines"`
}

// readCart decodes the signed cart cookie into a fresh store. A missing,
// malformed or tampered cookie yields an empty cart, never an error page.
func readCart(r *http.Request) *cart.Store {
	c, err := r.Cookie(cartCookie)
	if err != nil || c.Value == "" {
		return cart.NewStore()
	}
	parts := strings.SplitN(c.Value, ".", 2)
	if len(parts) != 2 {
		return cart.NewStore()
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return cart.NewStore()
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return cart.NewStore()
	}
	h := hmac.New(sha256.New, secretKey())
	h.Write(payload)
	if !hmac.Equal(sig, h.Sum(nil)) {
		return cart.NewStore()
	}
	var p cartPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return cart.NewStore()
	}
	return cart.FromLines(p.Lines)
}

func writeCart(w http.ResponseWriter, st *cart.Store) {
	lines := st.Lines()
	if len(lines) == 0 {
		clearCartCookie(w)
		return
	}
	b, err := json.Marshal(cartPayload{Lines: lines})
	if err != nil {
		log.Error().Err(err).Msg("encode cart")
		return
	}
	h := hmac.New(sha256.New, secretKey())
	h.Write(b)
	val := base64.RawURLEncoding.EncodeToString(h.Sum(nil)) + "." + base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name: cartCookie, Value: val, Path: "/", MaxAge: cartMaxAge,
		HttpOnly: true, Secure: true, SameSite: http.SameSiteLaxMode,
	})
}

func clearCartCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: cartCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: true, SameSite: http.SameSiteLaxMode})
}

type cartLineView struct {
	Key            string
	Name           string
	Image          string
	Color          string
	Size           string
	Quantity       int
	PriceDisplay   string
	LineSubDisplay string
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderCart(w, r, readCart(r), r.URL.Query().Get("err"))
	case http.MethodPost:
		s.handleCartAdd(w, r)
	default:
		http.Error(w, "method", 405)
	}
}

func (s *Server) renderCart(w http.ResponseWriter, r *http.Request, st *cart.Store, errMsg string) {
	lines := st.Lines()
	views := make([]cartLineView, 0, len(lines))
	for _, l := range lines {
		views = append(views, cartLineView{
			Key:            l.Key(),
			Name:           variant.FormatProductName(l.Name, l.Color, l.Size),
			Image:          l.Image,
			Color:          variant.NormalizePart(l.Color),
			Size:           variant.NormalizePart(l.Size),
			Quantity:       l.Quantity,
			PriceDisplay:   s.display(l.Price, l.Currency),
			LineSubDisplay: s.display(l.Subtotal(), l.Currency),
		})
	}
	data := map[string]any{
		"Lines": views,
		"Count": st.Count(),
		"Error": errMsg,
	}
	if cur := cart.Currency(lines); cur != "" {
		data["SubtotalDisplay"] = s.display(cart.Subtotal(lines), cur)
	}
	if u := readUserSession(r); u != nil {
		data["User"] = u
	}
	s.render(w, r, "cart.html", data)
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form", 400)
		return
	}
	slug := r.FormValue("slug")
	priceID := r.FormValue("price_id")
	qty, _ := strconv.Atoi(r.FormValue("qty"))
	if qty < 1 {
		qty = 1
	}
	p, err := s.catalog.GetBySlug(r.Context(), slug)
	if err != nil {
		http.Error(w, "product", 404)
		return
	}
	var pv *domain.PricedVariant
	for i := range p.Prices {
		if p.Prices[i].ID == priceID {
			pv = &p.Prices[i]
			break
		}
	}
	if pv == nil {
		sel := s.catalog.Resolve(p, r.FormValue("color"), r.FormValue("size"))
		pv = sel.Price
	}
	if pv == nil || pv.UnitAmount == nil {
		http.Error(w, "variant unavailable", 409)
		return
	}
	line := domain.CartLine{
		ProductID: p.ID,
		PriceID:   pv.ID,
		Name:      p.Name,
		Image:     s.productImage(p, variant.Selection{Price: pv}),
		Price:     *pv.UnitAmount,
		Currency:  pv.Currency,
		Quantity:  qty,
		Color:     pv.Color(),
		Size:      pv.Size(),
	}
	st := readCart(r)
	st.Add(line)
	writeCart(w, st)

	if wantsJSON(r) {
		writeJSON(w, 200, map[string]any{"ok": true, "count": st.Count()})
		return
	}
	http.Redirect(w, r, "/product/"+url.PathEscape(p.Slug)+"?added=1", 303)
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form", 400)
		return
	}
	key := r.FormValue("key")
	st := readCart(r)
	var qty int
	for _, l := range st.Lines() {
		if l.Key() == key {
			qty = l.Quantity
		}
	}
	switch r.FormValue("op") {
	case "inc":
		qty++
	case "dec":
		qty--
	case "set":
		qty, _ = strconv.Atoi(r.FormValue("qty"))
	default:
		http.Error(w, "op", 400)
		return
	}
	st.SetQuantity(key, qty)
	writeCart(w, st)
	if wantsJSON(r) {
		writeJSON(w, 200, map[string]any{"ok": true, "count": st.Count()})
		return
	}
	http.Redirect(w, r, "/cart", 303)
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form", 400)
		return
	}
	st := readCart(r)
	st.Remove(r.FormValue("key"))
	writeCart(w, st)
	if wantsJSON(r) {
		writeJSON(w, 200, map[string]any{"ok": true, "count": st.Count()})
		return
	}
	http.Redirect(w, r, "/cart", 303)
}

func (s *Server) handleCartClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	clearCartCookie(w)
	if wantsJSON(r) {
		writeJSON(w, 200, map[string]any{"ok": true, "count": 0})
		return
	}
	http.Redirect(w, r, "/cart", 303)
}

func (s *Server) handleCartCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form", 400)
		return
	}
	st := readCart(r)
	lines := st.Lines()
	if len(lines) == 0 {
		http.Redirect(w, r, "/cart?err="+url.QueryEscape("cart is empty"), 303)
		return
	}
	info := usecase.CheckoutInfo{
		Email:      r.FormValue("email"),
		Name:       r.FormValue("name"),
		Phone:      r.FormValue("phone"),
		Address:    r.FormValue("address"),
		City:       r.FormValue("city"),
		State:      r.FormValue("state"),
		PostalCode: r.FormValue("postal_code"),
		Country:    r.FormValue("country"),
	}
	o, err := s.orders.CreateFromCart(r.Context(), info, lines)
	if err != nil {
		http.Redirect(w, r, "/cart?err="+url.QueryEscape(err.Error()), 303)
		return
	}
	redirect, err := s.payments.BeginCheckout(r.Context(), o)
	if err != nil {
		log.Error().Err(err).Str("order_id", o.ID.String()).Msg("begin checkout")
		http.Redirect(w, r, "/cart?err="+url.QueryEscape("payment provider unavailable"), 303)
		return
	}
	clearCartCookie(w)
	http.Redirect(w, r, redirect, 303)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		r.Header.Get("X-Requested-With") == "fetch"
}
