package printful

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/merchkit/storefront/internal/domain"
	"github.com/merchkit/storefront/internal/money"
)

const apiBase = "https://api.printful.com"

type Client struct {
	apiKey     string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{apiKey: apiKey, httpClient: &http.Client{Timeout: 10 * time.Second}}
}

type recipient struct {
	Name        string `json:"name"`
	Address1    string `json:"address1"`
	City        string `json:"city"`
	StateCode   string `json:"state_code,omitempty"`
	CountryCode string `json:"country_code"`
	Zip         string `json:"zip"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type orderItem struct {
	VariantID   int64  `json:"variant_id"`
	Quantity    int    `json:"quantity"`
	Name        string `json:"name,omitempty"`
	RetailPrice string `json:"retail_price,omitempty"`
}

type orderReq struct {
	ExternalID string      `json:"external_id"`
	Recipient  recipient   `json:"recipient"`
	Items      []orderItem `json:"items"`
}

type orderResp struct {
	Code   int    `json:"code"`
	Error  string `json:"error"`
	Result struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	} `json:"result"`
}

// CreateOrder submits a paid storefront order as a draft fulfillment order
// and returns the provider's order id. Items without a provider variant id
// are skipped; an order with none is an error, not a silent no-op.
func (c *Client) CreateOrder(ctx context.Context, o *domain.Order) (int64, error) {
	if c.apiKey == "" {
		return 0, errors.New("missing api key (PRINTFUL_API_KEY)")
	}
	if o == nil {
		return 0, errors.New("nil order")
	}
	req := orderReq{
		ExternalID: o.ID.String(),
		Recipient: recipient{
			Name:        o.Name,
			Address1:    o.Address,
			City:        o.City,
			StateCode:   o.State,
			CountryCode: o.Country,
			Zip:         o.PostalCode,
			Email:       o.Email,
			Phone:       o.Phone,
		},
	}
	for _, it := range o.Items {
		vid, err := strconv.ParseInt(it.ExtVariant, 10, 64)
		if err != nil || vid <= 0 {
			continue
		}
		item := orderItem{VariantID: vid, Quantity: it.Qty, Name: it.Title}
		if amt, err := money.ToDisplayAmount(it.UnitAmount, it.Currency); err == nil {
			item.RetailPrice = amt.String()
		}
		req.Items = append(req.Items, item)
	}
	if len(req.Items) == 0 {
		return 0, errors.New("no fulfillable items on order")
	}

	buf, err := json.Marshal(req)
	if err != nil {
		return 0, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+"/orders", bytes.NewReader(buf))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("fulfillment provider connection: %w", err)
	}
	defer res.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	var out orderResp
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("fulfillment provider status %d: %s", res.StatusCode, string(raw))
	}
	if res.StatusCode >= 300 || out.Result.ID == 0 {
		msg := out.Error
		if msg == "" {
			msg = string(raw)
		}
		return 0, fmt.Errorf("fulfillment provider status %d: %s", res.StatusCode, msg)
	}
	return out.Result.ID, nil
}
