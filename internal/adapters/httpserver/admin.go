package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/merchkit/storefront/internal/domain"
)

const adminTokenTTL = 12 * time.Hour

// handleAdminLogin exchanges the static admin key for a short lived token.
// The key never travels further than this endpoint.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	want := os.Getenv("ADMIN_API_KEY")
	if want == "" {
		http.Error(w, "admin disabled", 403)
		return
	}
	got := r.Header.Get("X-Admin-Key")
	if !secureCompare(got, want) {
		log.Warn().Str("ip", r.RemoteAddr).Msg("admin login rejected")
		http.Error(w, "forbidden", 403)
		return
	}
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	if len(s.adminAllowed) > 0 {
		if _, ok := s.adminAllowed[email]; !ok {
			http.Error(w, "forbidden", 403)
			return
		}
	}
	tok := s.issueAdminToken(email)
	writeJSON(w, 200, map[string]any{"token": tok, "expires_in": int(adminTokenTTL.Seconds())})
}

type adminClaims struct {
	Sub string `json:"sub"`
	Exp int64  `json:"exp"`
	Iat int64  `json:"iat"`
}

func (s *Server) issueAdminToken(email string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	now := time.Now()
	body, _ := json.Marshal(adminClaims{Sub: email, Iat: now.Unix(), Exp: now.Add(adminTokenTTL).Unix()})
	payload := base64.RawURLEncoding.EncodeToString(body)
	mac := hmac.New(sha256.New, s.adminSecret)
	mac.Write([]byte(header + "." + payload))
	return header + "." + payload + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (s *Server) verifyAdminToken(tok string) (string, bool) {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return "", false
	}
	mac := hmac.New(sha256.New, s.adminSecret)
	mac.Write([]byte(parts[0] + "." + parts[1]))
	want := mac.Sum(nil)
	got, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil || !hmac.Equal(want, got) {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", false
	}
	var c adminClaims
	if err := json.Unmarshal(raw, &c); err != nil {
		return "", false
	}
	if time.Now().Unix() > c.Exp {
		return "", false
	}
	if len(s.adminAllowed) > 0 {
		if _, ok := s.adminAllowed[c.Sub]; !ok {
			return "", false
		}
	}
	return c.Sub, true
}

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if tok == "" || tok == r.Header.Get("Authorization") {
		http.Error(w, "unauthorized", 401)
		return false
	}
	if _, ok := s.verifyAdminToken(tok); !ok {
		http.Error(w, "unauthorized", 401)
		return false
	}
	return true
}

func (s *Server) handleAdminOrders(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	list, total, err := s.orders.Orders.List(r.Context(), page, 50)
	if err != nil {
		http.Error(w, "err", 500)
		return
	}
	type row struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		Total     int64  `json:"total"`
		Currency  string `json:"currency"`
		CreatedAt string `json:"created_at"`
	}
	out := make([]row, 0, len(list))
	for _, o := range list {
		out = append(out, row{
			ID: o.ID.String(), Status: string(o.Status), Email: o.Email, Name: o.Name,
			Total: o.Total, Currency: o.Currency, CreatedAt: o.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, 200, map[string]any{"orders": out, "total": total, "page": page})
}

func (s *Server) handleAdminSyncPrices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}
	created, updated, err := s.catalog.SyncPrices(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("price sync")
		writeJSON(w, 502, map[string]any{"error": err.Error()})
		return
	}
	log.Info().Int("created", created).Int("updated", updated).Msg("price sync")
	writeJSON(w, 200, map[string]any{"created": created, "updated": updated})
}

// handleAdminExportPrices streams the catalog with every priced variant as a
// spreadsheet, one row per variant.
func (s *Server) handleAdminExportPrices(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	list, _, err := s.catalog.List(r.Context(), domain.ProductFilter{Page: 1, PageSize: 1000})
	if err != nil {
		http.Error(w, "err", 500)
		return
	}
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Prices"
	f.SetSheetName("Sheet1", sheet)
	headers := []string{"Product", "Slug", "Category", "Price ID", "Color", "Size", "Amount (minor units)", "Currency", "Active"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	row := 2
	for _, p := range list {
		for _, pv := range p.Prices {
			vals := []any{p.Name, p.Slug, p.Category, pv.ID, pv.Color(), pv.Size(), nil, pv.Currency, pv.Active}
			if pv.UnitAmount != nil {
				vals[6] = *pv.UnitAmount
			}
			for i, v := range vals {
				if v == nil {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				f.SetCellValue(sheet, cell, v)
			}
			row++
		}
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="prices.xlsx"`)
	if err := f.Write(w); err != nil {
		log.Error().Err(err).Msg("write xlsx")
	}
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
