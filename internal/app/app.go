package app

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/merchkit/storefront/internal/adapters/fulfillment/printful"
	"github.com/merchkit/storefront/internal/adapters/httpserver"
	"github.com/merchkit/storefront/internal/adapters/payments/stripe"
	"github.com/merchkit/storefront/internal/adapters/repo/postgres"
	"github.com/merchkit/storefront/internal/domain"
	"github.com/merchkit/storefront/internal/money"
	"github.com/merchkit/storefront/internal/usecase"
	"github.com/merchkit/storefront/internal/views"
)

type App struct {
	DB          *gorm.DB
	Tmpl        *template.Template
	CatalogUC   *usecase.CatalogUC
	OrderUC     *usecase.OrderUC
	PaymentUC   *usecase.PaymentUC
	Gateway     *stripe.Gateway
	Customers   domain.CustomerRepo
	Pages       domain.PageRepo
	OAuthConfig *oauth2.Config
}

func NewApp(db *gorm.DB) (*App, error) {
	prodRepo := postgres.NewProductRepo(db)
	orderRepo := postgres.NewOrderRepo(db)
	custRepo := postgres.NewCustomerRepo(db)
	pageRepo := postgres.NewPageRepo(db)

	gateway := stripe.NewGateway(os.Getenv("STRIPE_SECRET_KEY"), os.Getenv("STRIPE_WEBHOOK_SECRET"))

	var fulfillment domain.FulfillmentClient
	if key := os.Getenv("PRINTFUL_API_KEY"); key != "" {
		fulfillment = printful.NewClient(key)
	}

	var oauthCfg *oauth2.Config
	googleID := os.Getenv("GOOGLE_CLIENT_ID")
	googleSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if googleID != "" && googleSecret != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     googleID,
			ClientSecret: googleSecret,
			RedirectURL:  baseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}

	app := &App{
		DB:          db,
		CatalogUC:   &usecase.CatalogUC{Products: prodRepo, Gateway: gateway},
		OrderUC:     &usecase.OrderUC{Orders: orderRepo, Products: prodRepo},
		PaymentUC:   &usecase.PaymentUC{Orders: orderRepo, Gateway: gateway, Fulfillment: fulfillment},
		Gateway:     gateway,
		Customers:   custRepo,
		Pages:       pageRepo,
		OAuthConfig: oauthCfg,
	}

	locale := os.Getenv("STORE_LOCALE")
	if locale == "" {
		locale = "en"
	}

	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"price": func(minor int64, currency string) string {
			s, err := money.Format(minor, currency, locale)
			if err != nil {
				return fmt.Sprintf("%d %s", minor, currency)
			}
			return s
		},
		"img": func(u string) string {
			s := strings.TrimSpace(u)
			if s == "" {
				return s
			}
			if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") && !strings.HasPrefix(s, "/") {
				s = "/" + s
			}
			return strings.ReplaceAll(s, " ", "%20")
		},
	}

	appEnv := strings.ToLower(os.Getenv("APP_ENV"))
	isDev := appEnv == "" || appEnv == "development" || appEnv == "dev"

	var tmpl *template.Template
	var err error
	if isDev {
		tmpl, err = template.New("layout").Funcs(funcMap).ParseGlob("internal/views/*.html")
	} else {
		tmpl, err = template.New("layout").Funcs(funcMap).ParseFS(views.FS, "*.html")
	}
	if err != nil {
		return nil, err
	}
	app.Tmpl = tmpl

	return app, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.Tmpl, a.CatalogUC, a.OrderUC, a.PaymentUC, a.Gateway, a.Customers, a.Pages, a.OAuthConfig)
}

func (a *App) MigrateAndSeed() error {
	if err := a.DB.AutoMigrate(
		&domain.Product{}, &domain.Image{}, &domain.PricedVariant{},
		&domain.Order{}, &domain.OrderItem{}, &domain.Page{}, &domain.Customer{},
	); err != nil {
		return err
	}

	_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_priced_variants_product_id ON priced_variants (product_id)").Error
	_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_orders_provider_session ON orders (provider_session)").Error
	_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)").Error

	seedPages(a.DB)

	var count int64
	if err := a.DB.Model(&domain.Product{}).Count(&count).Error; err == nil && count == 0 {
		seedProducts(a.DB)
	}
	return nil
}

func seedPages(db *gorm.DB) {
	pages := []domain.Page{
		{Slug: "about", Title: "About", Body: "Small-batch apparel and accessories, printed and shipped on demand."},
		{Slug: "contact", Title: "Contact", Body: "Write to support@merchkit.dev and we'll get back within a business day."},
		{Slug: "shipping", Title: "Shipping", Body: "Orders are produced within 2-5 business days, then shipped with tracking."},
		{Slug: "returns", Title: "Returns", Body: "Misprinted or damaged items are replaced free of charge within 30 days."},
	}
	for _, p := range pages {
		var existing domain.Page
		if err := db.Where("slug = ?", p.Slug).First(&existing).Error; err != nil {
			db.Create(&p)
		}
	}
}

func seedProducts(db *gorm.DB) {
	usd := func(v int64) *int64 { return &v }
	prods := []struct {
		p      domain.Product
		prices []domain.PricedVariant
	}{
		{
			p: domain.Product{ID: uuid.New(), Slug: "classic-tee", Name: "Classic Tee", Category: "apparel", ShortDesc: "Heavyweight cotton tee", Active: true},
			prices: []domain.PricedVariant{
				{ID: "seed_tee_black_s", UnitAmount: usd(2500), Currency: "USD", Active: true, Metadata: map[string]string{domain.MetaColor: "Black", domain.MetaSize: "S"}},
				{ID: "seed_tee_black_m", UnitAmount: usd(2500), Currency: "USD", Active: true, Metadata: map[string]string{domain.MetaColor: "Black", domain.MetaSize: "M"}},
				{ID: "seed_tee_white_m", UnitAmount: usd(2500), Currency: "USD", Active: true, Metadata: map[string]string{domain.MetaColor: "White", domain.MetaSize: "M"}},
			},
		},
		{
			p: domain.Product{ID: uuid.New(), Slug: "logo-hoodie", Name: "Logo Hoodie", Category: "apparel", ShortDesc: "Fleece-lined pullover", Active: true},
			prices: []domain.PricedVariant{
				{ID: "seed_hoodie_navy_m", UnitAmount: usd(5500), Currency: "USD", Active: true, Metadata: map[string]string{domain.MetaColor: "Navy", domain.MetaSize: "M"}},
				{ID: "seed_hoodie_navy_l", UnitAmount: usd(5500), Currency: "USD", Active: true, Metadata: map[string]string{domain.MetaColor: "Navy", domain.MetaSize: "L"}},
			},
		},
		{
			p: domain.Product{ID: uuid.New(), Slug: "enamel-mug", Name: "Enamel Mug", Category: "accessories", ShortDesc: "12oz camp mug", Active: true},
			prices: []domain.PricedVariant{
				{ID: "seed_mug", UnitAmount: usd(1800), Currency: "USD", Active: true},
			},
		},
	}
	for _, e := range prods {
		if err := db.Create(&e.p).Error; err != nil {
			continue
		}
		for i := range e.prices {
			e.prices[i].ProductID = e.p.ID
			db.Create(&e.prices[i])
		}
	}
}
