package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/merchkit/storefront/internal/domain"
	"github.com/merchkit/storefront/internal/money"
)

const apiBase = "https://api.stripe.com"

type Gateway struct {
	secretKey     string
	webhookSecret string
	httpClient    *http.Client
}

func NewGateway(secretKey, webhookSecret string) *Gateway {
	return &Gateway{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

type sessionResp struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	PaymentStatus   string `json:"payment_status"`
	ClientReference string `json:"client_reference_id"`
}

type priceResp struct {
	ID         string            `json:"id"`
	UnitAmount *float64          `json:"unit_amount"`
	Currency   string            `json:"currency"`
	Active     bool              `json:"active"`
	Metadata   map[string]string `json:"metadata"`
	Product    struct {
		ID          string            `json:"id"`
		Name        string            `json:"name"`
		Description string            `json:"description"`
		Images      []string          `json:"images"`
		Active      bool              `json:"active"`
		Metadata    map[string]string `json:"metadata"`
	} `json:"product"`
}

type priceListResp struct {
	Data    []priceResp `json:"data"`
	HasMore bool        `json:"has_more"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func signReference(orderID string) string {
	key := os.Getenv("SECRET_KEY")
	if key == "" {
		key = "dev"
	}
	h := hmac.New(sha256.New, []byte(key))
	h.Write([]byte(orderID))
	return hex.EncodeToString(h.Sum(nil))[:24]
}

// VerifyReference splits and checks an "orderID|sig" client reference.
func VerifyReference(ref string) (string, bool) {
	parts := strings.Split(ref, "|")
	if len(parts) != 2 {
		return "", false
	}
	orderID, sig := parts[0], parts[1]
	return orderID, hmac.Equal([]byte(signReference(orderID)), []byte(sig))
}

// CreateCheckoutSession opens a hosted checkout session for the order and
// returns its redirect URL. The session id is recorded on the order.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, o *domain.Order) (string, error) {
	if g.secretKey == "" {
		return "", errors.New("missing secret key (STRIPE_SECRET_KEY)")
	}
	if o == nil {
		return "", errors.New("nil order")
	}
	baseURL := os.Getenv("PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", baseURL+"/order/"+o.ID.String()+"?session_id={CHECKOUT_SESSION_ID}")
	form.Set("cancel_url", baseURL+"/cart")
	form.Set("customer_email", o.Email)
	form.Set("client_reference_id", o.ID.String()+"|"+signReference(o.ID.String()))
	form.Set("metadata[order_id]", o.ID.String())
	for i, it := range o.Items {
		p := fmt.Sprintf("line_items[%d]", i)
		if it.PriceID != "" {
			form.Set(p+"[price]", it.PriceID)
		} else {
			form.Set(p+"[price_data][currency]", strings.ToLower(it.Currency))
			form.Set(p+"[price_data][unit_amount]", fmt.Sprint(it.UnitAmount))
			form.Set(p+"[price_data][product_data][name]", it.Title)
		}
		form.Set(p+"[quantity]", fmt.Sprint(it.Qty))
	}

	var sess sessionResp
	if err := g.call(ctx, http.MethodPost, "/v1/checkout/sessions", form, &sess); err != nil {
		return "", err
	}
	if sess.ID == "" || sess.URL == "" {
		return "", errors.New("incomplete checkout session response")
	}
	o.ProviderSession = sess.ID
	return sess.URL, nil
}

// SessionInfo fetches a checkout session's payment status and the signed
// client reference it was created with.
func (g *Gateway) SessionInfo(ctx context.Context, sessionID string) (string, string, error) {
	if g.secretKey == "" || sessionID == "" {
		return "", "", errors.New("params")
	}
	var sess sessionResp
	if err := g.call(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil, &sess); err != nil {
		return "", "", err
	}
	return sess.PaymentStatus, sess.ClientReference, nil
}

// ListPrices walks the provider's active price list, product expanded,
// following pagination until exhausted.
func (g *Gateway) ListPrices(ctx context.Context) ([]domain.CatalogPrice, error) {
	if g.secretKey == "" {
		return nil, errors.New("missing secret key (STRIPE_SECRET_KEY)")
	}
	out := []domain.CatalogPrice{}
	after := ""
	for {
		q := url.Values{}
		q.Set("active", "true")
		q.Set("limit", "100")
		q.Add("expand[]", "data.product")
		if after != "" {
			q.Set("starting_after", after)
		}
		var page priceListResp
		if err := g.call(ctx, http.MethodGet, "/v1/prices?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}
		for _, pr := range page.Data {
			cp, err := toCatalogPrice(pr)
			if err != nil {
				return nil, fmt.Errorf("price %s: %w", pr.ID, err)
			}
			out = append(out, cp)
		}
		if !page.HasMore || len(page.Data) == 0 {
			break
		}
		after = page.Data[len(page.Data)-1].ID
	}
	return out, nil
}

func toCatalogPrice(pr priceResp) (domain.CatalogPrice, error) {
	cp := domain.CatalogPrice{
		PriceID:     pr.ID,
		ProductRef:  pr.Product.ID,
		ProductName: pr.Product.Name,
		ProductDesc: pr.Product.Description,
		Currency:    strings.ToUpper(pr.Currency),
		Images:      pr.Product.Images,
		Active:      pr.Active && pr.Product.Active,
	}
	if pr.UnitAmount != nil {
		minor, err := money.AsMinorUnits(*pr.UnitAmount)
		if err != nil {
			return cp, err
		}
		cp.UnitAmount = &minor
	}
	// price metadata wins over product metadata
	meta := map[string]string{}
	for k, v := range pr.Product.Metadata {
		meta[k] = v
	}
	for k, v := range pr.Metadata {
		meta[k] = v
	}
	cp.Metadata = meta
	return cp, nil
}

func (g *Gateway) call(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, apiBase+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	res, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment provider connection: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		raw, _ := io.ReadAll(res.Body)
		var ae apiError
		if err := json.Unmarshal(raw, &ae); err == nil && ae.Error.Message != "" {
			if res.StatusCode == 401 || res.StatusCode == 403 {
				return fmt.Errorf("payment provider credentials rejected (status %d): %s", res.StatusCode, ae.Error.Message)
			}
			return fmt.Errorf("payment provider error (status %d): %s", res.StatusCode, ae.Error.Message)
		}
		return fmt.Errorf("payment provider status %d: %s", res.StatusCode, string(raw))
	}
	return json.NewDecoder(res.Body).Decode(out)
}
