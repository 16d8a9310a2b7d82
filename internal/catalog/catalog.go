// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/wneessen/shopkeep/internal/cache"
	"github.com/wneessen/shopkeep/internal/domain/models"
	"github.com/wneessen/shopkeep/internal/logger"
	"github.com/wneessen/shopkeep/internal/validate"
)

const listingsKey = "products"

type ProductProvider interface {
	Products(ctx context.Context) ([]models.Product, error)
}

type ProductSaver interface {
	SaveProduct(ctx context.Context, product models.Product) (int64, error)
}

// Listing is a product as presented in the storefront.
type Listing struct {
	ID    int64  `json:"id"`
	SKU   string `json:"sku"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// ProductRequest is the input of AddProduct.
type ProductRequest struct {
	SKU        string `json:"sku" validate:"required,max=64"`
	Name       string `json:"name" validate:"required,max=200"`
	PriceCents int64  `json:"price_cents" validate:"gte=0"`
	Currency   string `json:"currency" validate:"required,len=3,alpha"`
}

type Service struct {
	log      *logger.Logger
	provider ProductProvider
	saver    ProductSaver
	listings cache.Store[string, []Listing]
	gen      cache.Generation
	group    singleflight.Group
	validate *validate.Validator
}

func New(log *logger.Logger, provider ProductProvider, saver ProductSaver,
	listings cache.Store[string, []Listing],
) *Service {
	return &Service{
		log:      log.With(slog.String("service", "catalog")),
		provider: provider,
		saver:    saver,
		listings: listings,
		validate: validate.New(),
	}
}

// Products returns the listings of all active products. The result is
// memoized in the listings cache and concurrent cache misses share a single
// storage query.
func (s *Service) Products(ctx context.Context) ([]Listing, error) {
	const op = "catalog.Products"

	if listings, ok := s.listings.Get(listingsKey); ok {
		return listings, nil
	}

	result, err, shared := s.group.Do(listingsKey, func() (any, error) {
		gen := s.gen.Current()
		products, err := s.provider.Products(ctx)
		if err != nil {
			return nil, err
		}
		listings := make([]Listing, 0, len(products))
		for _, product := range products {
			listings = append(listings, Listing{
				ID:    product.ID,
				SKU:   product.SKU,
				Name:  product.Name,
				Price: FormatPrice(product.PriceCents, product.Currency),
			})
		}
		if !s.gen.Fill(gen, func() { s.listings.Set(listingsKey, listings) }) {
			s.log.Debug("product listings invalidated during load, not caching", logger.Op(op))
		}
		return listings, nil
	})
	if err != nil {
		s.log.Error("failed to load products", logger.Op(op), logger.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("product listings loaded", logger.Op(op), slog.Bool("shared", shared))

	return result.([]Listing), nil
}

// AddProduct stores a new product and invalidates the listings cache.
func (s *Service) AddProduct(ctx context.Context, req ProductRequest) (int64, error) {
	const op = "catalog.AddProduct"

	req.SKU = strings.TrimSpace(req.SKU)
	req.Name = strings.TrimSpace(req.Name)
	req.Currency = normalizeCurrency(req.Currency)
	if err := s.validate.Struct(req); err != nil {
		return 0, err
	}

	id, err := s.saver.SaveProduct(ctx, models.Product{
		SKU:        req.SKU,
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Currency:   req.Currency,
		Active:     true,
	})
	if err != nil {
		s.log.Error("failed to save product", logger.Op(op), logger.Err(err), slog.String("sku", req.SKU))
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.Invalidate()

	return id, nil
}

// Invalidate drops all memoized listings. Loads that are in flight finish
// but do not write their result back, and later calls start a new load.
func (s *Service) Invalidate() {
	s.gen.Invalidate(func() {
		s.group.Forget(listingsKey)
		s.listings.Clear()
	})
}

// FormatPrice formats an amount given in minor units, e.g. 1234 and "eur"
// become "12.34 EUR".
func FormatPrice(cents int64, currency string) string {
	sign := ""
	// uint64 keeps math.MinInt64 representable
	amount := uint64(cents)
	if cents < 0 {
		sign = "-"
		amount = -amount
	}
	price := sign + strconv.FormatUint(amount/100, 10) + "." + fmt.Sprintf("%02d", amount%100)
	if currency = normalizeCurrency(currency); currency != "" {
		price += " " + currency
	}
	return price
}

func normalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}
