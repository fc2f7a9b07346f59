package catalog

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"jewelry-storefront/internal/apperr"
	"jewelry-storefront/internal/domain"
	productrepo "jewelry-storefront/internal/repository/product"
)

const (
	PageSize             = 12
	DefaultFeaturedLimit = 8
	maxFeaturedLimit     = 48
)

// PriceCeiling is the top of the price slider; a max at or above it means
// "no upper bound".
var PriceCeiling = decimal.NewFromInt(10000)

type productStore interface {
	List(ctx context.Context, q productrepo.Query) ([]domain.Product, error)
	Featured(ctx context.Context, limit int) ([]domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type categoryStore interface {
	ListActive(ctx context.Context) ([]domain.Category, error)
}

// Recorder counts reads served from the sample catalog.
type Recorder interface {
	CatalogFallback()
}

type Filters struct {
	Categories []string
	MinPrice   decimal.Decimal
	MaxPrice   decimal.Decimal
	Search     string
	SortBy     productrepo.Sort
}

// Page is one slice of the product grid. Fallback marks pages served from
// the built-in samples because the store failed.
type Page struct {
	Products   []domain.Product `json:"products"`
	NextCursor string           `json:"nextCursor,omitempty"`
	HasMore    bool             `json:"hasMore"`
	Fallback   bool             `json:"fallback,omitempty"`
}

type Service struct {
	products   productStore
	categories categoryStore
	recorder   Recorder
	logger     zerolog.Logger
}

func New(products productStore, categories categoryStore, recorder Recorder, logger zerolog.Logger) *Service {
	return &Service{products: products, categories: categories, recorder: recorder, logger: logger}
}

// ParseSort maps the query value to a sort order; empty means newest.
func ParseSort(v string) (productrepo.Sort, error) {
	switch s := productrepo.Sort(strings.ToLower(strings.TrimSpace(v))); s {
	case "":
		return productrepo.SortNewest, nil
	case productrepo.SortNewest, productrepo.SortOldest, productrepo.SortPriceLow, productrepo.SortPriceHigh, productrepo.SortName:
		return s, nil
	default:
		return "", apperr.New(apperr.CodeValidation, "unknown sort order").
			WithDetails(map[string]string{"sort": "must be one of newest, oldest, price-low, price-high, name"})
	}
}

// List returns one page of active products matching filters. A failing first
// page degrades to the sample catalog; a failing later page is empty.
func (s *Service) List(ctx context.Context, f Filters, cursor string) (Page, error) {
	offset, err := decodeCursor(cursor)
	if err != nil {
		return Page{}, err
	}

	q := productrepo.Query{
		Categories: f.Categories,
		Search:     f.Search,
		Sort:       f.SortBy,
		Limit:      PageSize,
		Offset:     offset,
	}
	if f.MinPrice.IsPositive() {
		lo := f.MinPrice
		q.MinPrice = &lo
	}
	if f.MaxPrice.LessThan(PriceCeiling) && !f.MaxPrice.IsZero() {
		hi := f.MaxPrice
		q.MaxPrice = &hi
	}

	products, err := s.products.List(ctx, q)
	if err != nil {
		s.logger.Warn().Err(err).Int("offset", offset).Msg("catalog: list products failed")
		if offset > 0 {
			return Page{Products: []domain.Product{}}, nil
		}
		s.fallback()
		samples := SampleProducts()
		if len(samples) > PageSize {
			samples = samples[:PageSize]
		}
		return Page{Products: samples, Fallback: true}, nil
	}

	page := Page{Products: products, HasMore: len(products) == PageSize}
	if page.HasMore {
		page.NextCursor = encodeCursor(offset + len(products))
	}
	return page, nil
}

func (s *Service) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	if limit > maxFeaturedLimit {
		limit = maxFeaturedLimit
	}
	products, err := s.products.Featured(ctx, limit)
	if err == nil {
		return products, nil
	}
	s.logger.Warn().Err(err).Msg("catalog: featured products failed")
	s.fallback()

	out := []domain.Product{}
	for _, p := range SampleProducts() {
		if p.Featured && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) BySlug(ctx context.Context, slug string) (*domain.Product, error) {
	p, err := s.products.GetBySlug(ctx, slug)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.Wrap(apperr.CodeNotFound, err, "product not found")
	}
	s.logger.Warn().Err(err).Str("slug", slug).Msg("catalog: product by slug failed")
	if sample, ok := findSample(func(p domain.Product) bool { return p.Slug == slug }); ok {
		s.fallback()
		return sample, nil
	}
	return nil, apperr.Wrap(apperr.CodeDependency, err, "catalog unavailable")
}

// ByID resolves the product a cart line is priced from.
func (s *Service) ByID(ctx context.Context, id string) (*domain.Product, error) {
	if sample, ok := findSample(func(p domain.Product) bool { return p.ID == id }); ok {
		return sample, nil
	}
	p, err := s.products.GetByID(ctx, id)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.Wrap(apperr.CodeNotFound, err, "product not found")
	}
	return nil, apperr.Wrap(apperr.CodeDependency, err, "catalog unavailable")
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.categories.ListActive(ctx)
	if err == nil {
		return cats, nil
	}
	s.logger.Warn().Err(err).Msg("catalog: list categories failed")
	s.fallback()
	return SampleCategories(), nil
}

func (s *Service) fallback() {
	if s.recorder != nil {
		s.recorder.CatalogFallback()
	}
}

func findSample(match func(domain.Product) bool) (*domain.Product, bool) {
	for _, p := range SampleProducts() {
		if match(p) {
			return &p, true
		}
	}
	return nil, false
}

const cursorPrefix = "o:"

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

func decodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	invalid := apperr.New(apperr.CodeValidation, "invalid cursor").
		WithDetails(map[string]string{"cursor": "must be a value returned by a previous page"})
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, invalid
	}
	v, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, invalid
	}
	offset, err := strconv.Atoi(v)
	if err != nil || offset < 0 {
		return 0, invalid
	}
	return offset, nil
}
