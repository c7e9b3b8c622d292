package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/merchkit/storefront/internal/adapters/payments/stripe"
	"github.com/merchkit/storefront/internal/domain"
	"github.com/merchkit/storefront/internal/money"
	"github.com/merchkit/storefront/internal/usecase"
	"github.com/merchkit/storefront/internal/variant"
)

type Server struct {
	mux       *http.ServeMux
	tmpl      *template.Template
	catalog   *usecase.CatalogUC
	orders    *usecase.OrderUC
	payments  *usecase.PaymentUC
	gateway   *stripe.Gateway
	customers domain.CustomerRepo
	pages     domain.PageRepo
	oauthCfg  *oauth2.Config

	adminAllowed map[string]struct{}
	adminSecret  []byte

	locale string
}

func New(t *template.Template, catalog *usecase.CatalogUC, orders *usecase.OrderUC, payments *usecase.PaymentUC, gw *stripe.Gateway, customers domain.CustomerRepo, pages domain.PageRepo, oauthCfg *oauth2.Config) http.Handler {
	s := &Server{
		tmpl:      t,
		catalog:   catalog,
		orders:    orders,
		payments:  payments,
		gateway:   gw,
		customers: customers,
		pages:     pages,
		oauthCfg:  oauthCfg,
		mux:       http.NewServeMux(),
		locale:    os.Getenv("STORE_LOCALE"),
	}
	if s.locale == "" {
		s.locale = "en"
	}

	allowed := map[string]struct{}{}
	if raw := os.Getenv("ADMIN_ALLOWED_EMAILS"); raw != "" {
		for _, e := range strings.Split(raw, ",") {
			e = strings.ToLower(strings.TrimSpace(e))
			if e != "" {
				allowed[e] = struct{}{}
			}
		}
	}
	s.adminAllowed = allowed
	sec := os.Getenv("JWT_ADMIN_SECRET")
	if sec == "" {
		sec = os.Getenv("SECRET_KEY")
	}
	if sec == "" {
		sec = "dev-admin-secret"
	}
	s.adminSecret = []byte(sec)

	s.routes()
	return Chain(s.mux,
		RateLimit(120),
		SecurityHeaders,
		Gzip,
		RequestID,
		Recovery,
		Logging,
	)
}

func (s *Server) routes() {
	s.mux.Handle("/public/", http.StripPrefix("/public/", http.FileServer(http.Dir("public"))))

	s.mux.HandleFunc("/robots.txt", s.handleRobots)
	s.mux.HandleFunc("/sitemap.xml", s.handleSitemap)

	s.mux.HandleFunc("/", s.handleHome)
	s.mux.HandleFunc("/products", s.handleProducts)
	s.mux.HandleFunc("/product/", s.handleProduct)
	s.mux.HandleFunc("/pages/", s.handlePage)
	s.mux.HandleFunc("/order/", s.handleOrder)

	s.mux.HandleFunc("/cart", s.handleCart)
	s.mux.HandleFunc("/cart/update", s.handleCartUpdate)
	s.mux.HandleFunc("/cart/remove", s.handleCartRemove)
	s.mux.HandleFunc("/cart/clear", s.handleCartClear)
	s.mux.HandleFunc("/cart/checkout", s.handleCartCheckout)

	s.mux.HandleFunc("/api/products", s.apiProducts)

	s.mux.HandleFunc("/webhooks/stripe", s.webhookStripe)

	s.mux.HandleFunc("/auth/google/login", s.handleGoogleLogin)
	s.mux.HandleFunc("/auth/google/callback", s.handleGoogleCallback)
	s.mux.HandleFunc("/logout", s.handleLogout)

	s.mux.HandleFunc("/admin/login", s.handleAdminLogin)
	s.mux.HandleFunc("/admin/orders", s.handleAdminOrders)
	s.mux.HandleFunc("/admin/sync/prices", s.handleAdminSyncPrices)
	s.mux.HandleFunc("/admin/export/prices.xlsx", s.handleAdminExportPrices)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	active := true
	list, _, err := s.catalog.List(r.Context(), domain.ProductFilter{Page: 1, PageSize: 8, Active: &active})
	if err != nil {
		http.Error(w, "err", 500)
		return
	}
	base := s.canonicalBase(r)
	data := map[string]any{"Products": s.productViews(list), "CanonicalURL": base + "/"}
	if u := readUserSession(r); u != nil {
		data["User"] = u
	}
	s.render(w, r, "home.html", data)
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	qv := r.URL.Query()
	page, _ := strconv.Atoi(qv.Get("page"))
	if page < 1 {
		page = 1
	}
	query := qv.Get("q")
	category := qv.Get("category")
	pageSize := 24
	active := true
	list, total, _ := s.catalog.List(r.Context(), domain.ProductFilter{
		Page: page, PageSize: pageSize, Sort: qv.Get("sort"), Query: query, Category: category, Active: &active,
	})
	pages := (int(total) + (pageSize - 1)) / pageSize
	if pages == 0 {
		pages = 1
	}
	cats, _ := s.catalog.Categories(r.Context())
	data := map[string]any{
		"Products":   s.productViews(list),
		"Total":      total,
		"Page":       page,
		"Pages":      pages,
		"Query":      query,
		"Category":   category,
		"Categories": cats,
	}
	if u := readUserSession(r); u != nil {
		data["User"] = u
	}
	s.render(w, r, "products.html", data)
}

type priceOption struct {
	Label    string
	Value    string
	Selected bool
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimPrefix(r.URL.Path, "/product/")
	if slug == "" {
		http.NotFound(w, r)
		return
	}
	p, err := s.catalog.GetBySlug(r.Context(), slug)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	qv := r.URL.Query()
	sel := s.catalog.Resolve(p, qv.Get("color"), qv.Get("size"))

	colors := make([]priceOption, 0, len(sel.Colors))
	for _, c := range sel.Colors {
		colors = append(colors, priceOption{Label: variant.NormalizePart(c), Value: c, Selected: strings.EqualFold(c, sel.Color)})
	}
	sizes := make([]priceOption, 0, len(sel.Sizes))
	for _, sz := range sel.Sizes {
		sizes = append(sizes, priceOption{Label: variant.NormalizePart(sz), Value: sz, Selected: strings.EqualFold(sz, sel.Size)})
	}

	data := map[string]any{
		"Product":  p,
		"Colors":   colors,
		"Sizes":    sizes,
		"Selected": sel,
		"Title":    variant.FormatProductName(p.Name, sel.Color, sel.Size),
		"Added":    qv.Get("added") == "1",
		"Image":    s.productImage(p, sel),
	}
	if sel.Price != nil && sel.Price.UnitAmount != nil {
		data["PriceID"] = sel.Price.ID
		data["PriceDisplay"] = s.display(*sel.Price.UnitAmount, sel.Price.Currency)
	}
	if u := readUserSession(r); u != nil {
		data["User"] = u
	}
	s.render(w, r, "product.html", data)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimPrefix(r.URL.Path, "/pages/")
	if slug == "" || s.pages == nil {
		http.NotFound(w, r)
		return
	}
	p, err := s.pages.FindBySlug(r.Context(), slug)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	data := map[string]any{"Page": p}
	if u := readUserSession(r); u != nil {
		data["User"] = u
	}
	s.render(w, r, "page.html", data)
}

// handleOrder is the return URL after hosted checkout. When the provider
// redirects back with a session id, the session state is applied before
// rendering, so the page is correct even if the webhook has not landed yet.
func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/order/")
	uid, err := uuid.Parse(idStr)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	o, err := s.orders.Get(r.Context(), uid)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if sid := r.URL.Query().Get("session_id"); sid != "" && sid == o.ProviderSession {
		status, ref, err := s.gateway.SessionInfo(r.Context(), sid)
		if err != nil {
			log.Error().Err(err).Str("session", sid).Msg("session info")
		} else if refID, ok := stripe.VerifyReference(ref); ok && refID == o.ID.String() {
			if updated, err := s.payments.HandleSessionEvent(r.Context(), sid, status); err == nil {
				o = updated
			}
		}
	}
	paid := o.Status == domain.OrderStatusPaid || o.Status == domain.OrderStatusSubmitted || o.Status == domain.OrderStatusShipped
	data := map[string]any{
		"Order":        o,
		"Paid":         paid,
		"TotalDisplay": s.display(o.Total, o.Currency),
	}
	if u := readUserSession(r); u != nil {
		data["User"] = u
	}
	s.render(w, r, "order.html", data)
}

func (s *Server) apiProducts(w http.ResponseWriter, r *http.Request) {
	active := true
	list, total, err := s.catalog.List(r.Context(), domain.ProductFilter{Page: 1, PageSize: 100, Active: &active})
	if err != nil {
		http.Error(w, "err", 500)
		return
	}
	type apiPrice struct {
		ID         string            `json:"id"`
		UnitAmount *int64            `json:"unit_amount"`
		Currency   string            `json:"currency"`
		Metadata   map[string]string `json:"metadata,omitempty"`
	}
	type apiProduct struct {
		Slug   string     `json:"slug"`
		Name   string     `json:"name"`
		Prices []apiPrice `json:"prices"`
	}
	out := make([]apiProduct, 0, len(list))
	for _, p := range list {
		ap := apiProduct{Slug: p.Slug, Name: p.Name}
		for _, pv := range p.Prices {
			ap.Prices = append(ap.Prices, apiPrice{ID: pv.ID, UnitAmount: pv.UnitAmount, Currency: pv.Currency, Metadata: pv.Recognized()})
		}
		out = append(out, ap)
	}
	writeJSON(w, 200, map[string]any{"products": out, "total": total})
}

func (s *Server) webhookStripe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		return
	}
	ev, err := s.gateway.VerifyWebhook(body, r.Header.Get("Stripe-Signature"), time.Now())
	if err != nil {
		log.Warn().Err(err).Msg("webhook rejected")
		http.Error(w, "signature", 400)
		return
	}
	switch ev.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		if _, ok := stripe.VerifyReference(ev.Session.ClientReference); !ok {
			log.Warn().Str("ref", ev.Session.ClientReference).Msg("invalid client reference")
			w.WriteHeader(200)
			return
		}
		if _, err := s.payments.HandleSessionEvent(r.Context(), ev.Session.ID, ev.Session.PaymentStatus); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				log.Warn().Str("session", ev.Session.ID).Msg("webhook for unknown order")
			} else {
				log.Error().Err(err).Str("session", ev.Session.ID).Msg("apply session event")
			}
		}
	default:
		log.Debug().Str("type", ev.Type).Msg("webhook ignored")
	}
	w.WriteHeader(200)
}

// --- views and rendering ---

type productView struct {
	Slug         string
	Name         string
	Category     string
	Image        string
	PriceDisplay string
}

func (s *Server) productViews(list []domain.Product) []productView {
	out := make([]productView, 0, len(list))
	for _, p := range list {
		v := productView{Slug: p.Slug, Name: p.Name, Category: p.Category}
		if len(p.Images) > 0 {
			v.Image = p.Images[0].URL
		}
		sel := variant.Select(p.Prices, "", "")
		if sel.Price != nil {
			if v.Image == "" {
				v.Image = sel.Price.ImageURL()
			}
			if sel.Price.UnitAmount != nil {
				v.PriceDisplay = s.display(*sel.Price.UnitAmount, sel.Price.Currency)
			}
		}
		out = append(out, v)
	}
	return out
}

func (s *Server) productImage(p *domain.Product, sel variant.Selection) string {
	if sel.Price != nil {
		if u := sel.Price.ImageURL(); u != "" {
			return u
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// display formats a minor-unit amount, degrading to a plain number when the
// currency code is unusable. A bad code must never take the page down.
func (s *Server) display(minor int64, currency string) string {
	out, err := money.Format(minor, currency, s.locale)
	if err != nil {
		log.Warn().Str("currency", currency).Msg("unformattable amount")
		return strconv.FormatInt(minor, 10)
	}
	return out
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if m, ok := data.(map[string]any); ok {
		if _, exists := m["Year"]; !exists {
			m["Year"] = time.Now().Year()
		}
		if _, exists := m["CartCount"]; !exists && r != nil {
			m["CartCount"] = readCart(r).Count()
		}
		data = m
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("tpl", name).Msg("render")
		http.Error(w, "tpl", 500)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) canonicalBase(r *http.Request) string {
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + host
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "User-agent: *\nDisallow: /admin/\nDisallow: /cart\nSitemap: "+s.canonicalBase(r)+"/sitemap.xml\n")
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	base := s.canonicalBase(r)
	now := time.Now().Format("2006-01-02")
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, path := range []string{"/", "/products"} {
		b.WriteString("\n  <url><loc>" + base + path + "</loc><lastmod>" + now + "</lastmod></url>")
	}
	active := true
	list, _, _ := s.catalog.List(r.Context(), domain.ProductFilter{Page: 1, PageSize: 500, Active: &active})
	for _, p := range list {
		b.WriteString("\n  <url><loc>" + base + "/product/" + p.Slug + "</loc><lastmod>" + now + "</lastmod></url>")
	}
	if s.pages != nil {
		pages, _ := s.pages.List(r.Context())
		for _, p := range pages {
			b.WriteString("\n  <url><loc>" + base + "/pages/" + p.Slug + "</loc><lastmod>" + now + "</lastmod></url>")
		}
	}
	b.WriteString("\n</urlset>\n")
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	io.WriteString(w, b.String())
}

// --- sessions ---

func secretKey() []byte {
	k := os.Getenv("SESSION_KEY")
	if k == "" {
		k = "dev-insecure"
	}
	return []byte(k)
}

type sessionUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func writeUserSession(w http.ResponseWriter, u *sessionUser) {
	if u == nil {
		http.SetCookie(w, &http.Cookie{Name: "sess", Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: true, SameSite: http.SameSiteStrictMode})
		return
	}
	b, _ := json.Marshal(u)
	h := hmac.New(sha256.New, secretKey())
	h.Write(b)
	sig := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	val := sig + "." + base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{Name: "sess", Value: val, Path: "/", MaxAge: 60 * 60 * 24 * 7, HttpOnly: true, Secure: true, SameSite: http.SameSiteStrictMode})
}

func readUserSession(r *http.Request) *sessionUser {
	if r == nil {
		return nil
	}
	c, err := r.Cookie("sess")
	if err != nil || c.Value == "" {
		return nil
	}
	parts := strings.SplitN(c.Value, ".", 2)
	if len(parts) != 2 {
		return nil
	}
	sig, _ := base64.RawURLEncoding.DecodeString(parts[0])
	payload, _ := base64.RawURLEncoding.DecodeString(parts[1])
	h := hmac.New(sha256.New, secretKey())
	h.Write(payload)
	if !hmac.Equal(sig, h.Sum(nil)) {
		return nil
	}
	var u sessionUser
	if err := json.Unmarshal(payload, &u); err != nil {
		return nil
	}
	if u.Email == "" {
		return nil
	}
	return &u
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		http.Error(w, "oauth not configured", 500)
		return
	}
	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: state, Path: "/", MaxAge: 300, HttpOnly: true})
	http.Redirect(w, r, s.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOnline), 302)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		http.Error(w, "oauth not configured", 500)
		return
	}
	q := r.URL.Query()
	c, _ := r.Cookie("oauth_state")
	if c == nil || c.Value == "" || c.Value != q.Get("state") {
		http.Error(w, "state", 400)
		return
	}
	tok, err := s.oauthCfg.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		log.Error().Err(err).Msg("oauth exchange")
		http.Error(w, "oauth", 400)
		return
	}
	client := s.oauthCfg.Client(r.Context(), tok)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v3/userinfo")
	if err != nil || resp.StatusCode != 200 {
		log.Error().Err(err).Msg("userinfo")
		http.Error(w, "userinfo", 400)
		return
	}
	defer resp.Body.Close()
	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&info)
	if info.Email == "" {
		http.Error(w, "email", 400)
		return
	}
	if s.customers != nil {
		if _, err := s.customers.FindByEmail(r.Context(), info.Email); errors.Is(err, domain.ErrNotFound) {
			_ = s.customers.Save(r.Context(), &domain.Customer{ID: uuid.New(), Email: info.Email, Name: info.Name})
		}
	}
	writeUserSession(w, &sessionUser{Email: info.Email, Name: info.Name})
	http.Redirect(w, r, "/", 302)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeUserSession(w, nil)
	http.Redirect(w, r, "/", 302)
}
