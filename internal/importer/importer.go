package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"jewelry-storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, category domain.Category) (*domain.Category, error)
}

// CSVImporter reads catalog CSV exports and inserts/updates products by
// slug. Categories named by products are created on the way.
//
// Columns: title, slug, description, price, categories (";" separated),
// options ("Ring Size*=6|7|8;Engraving=None|Initials", "*" marks a required
// option), images (";" separated), stock, featured, active. A row with only
// an image adds that image to the product above it.
type CSVImporter struct {
	reader       *csv.Reader
	productRepo  ProductWriter
	categoryRepo CategoryWriter
	seen         map[string]bool
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:       csvr,
		productRepo:  products,
		categoryRepo: categories,
		seen:         make(map[string]bool),
	}
}

type csvRow struct {
	line     int
	product  domain.Product
	priceRaw string
}

// Run parses CSV rows and upserts products, returning how many were written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["title"]; !ok {
		return 0, errors.New("read headers: missing title column")
	}

	var (
		current  *csvRow
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		row, err := parseRow(record, index, line)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}

		if row.product.Title != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (images) belong to the current product.
		if current != nil {
			current.product.Images = append(current.product.Images, row.product.Images...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	p := row.product
	if p.Slug == "" {
		return fmt.Errorf("row %d: cannot derive a slug from title %q", row.line, p.Title)
	}
	price, err := decimal.NewFromString(row.priceRaw)
	if err != nil || !price.IsPositive() {
		return fmt.Errorf("row %d: invalid price %q for %q", row.line, row.priceRaw, p.Slug)
	}
	p.Price = price.Round(2)

	for _, name := range p.Categories {
		if err := i.ensureCategory(ctx, name); err != nil {
			return err
		}
	}

	if _, err := i.productRepo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", p.Slug, err)
	}
	return nil
}

func (i *CSVImporter) ensureCategory(ctx context.Context, name string) error {
	if i.categoryRepo == nil || i.seen[name] {
		return nil
	}
	_, err := i.categoryRepo.Upsert(ctx, domain.Category{
		Name:   name,
		Slug:   Slugify(name),
		Order:  len(i.seen) + 1,
		Active: true,
	})
	if err != nil {
		return fmt.Errorf("upsert category %q: %w", name, err)
	}
	i.seen[name] = true
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) (*csvRow, error) {
	title := pick(record, index, "title")
	images := splitList(pick(record, index, "images"))
	if title == "" && len(images) == 0 {
		return nil, nil
	}

	slug := pick(record, index, "slug")
	if slug == "" {
		slug = Slugify(title)
	}

	options, err := parseOptions(pick(record, index, "options"))
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", line, err)
	}

	stock := 0
	if raw := pick(record, index, "stock"); raw != "" {
		stock, err = strconv.Atoi(raw)
		if err != nil || stock < 0 {
			return nil, fmt.Errorf("row %d: invalid stock %q", line, raw)
		}
	}

	return &csvRow{
		line:     line,
		priceRaw: pick(record, index, "price"),
		product: domain.Product{
			Title:       title,
			Slug:        slug,
			Description: pick(record, index, "description"),
			Images:      images,
			Categories:  splitList(pick(record, index, "categories")),
			Options:     options,
			Stock:       stock,
			Featured:    parseBool(pick(record, index, "featured"), false),
			Active:      parseBool(pick(record, index, "active"), true),
		},
	}, nil
}

// parseOptions reads "Name*=v1|v2;Other=v3".
func parseOptions(raw string) ([]domain.ProductOption, error) {
	var out []domain.ProductOption
	for _, part := range splitList(raw) {
		name, values, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid option %q", part)
		}
		name = strings.TrimSpace(name)
		required := strings.HasSuffix(name, "*")
		name = strings.TrimSpace(strings.TrimSuffix(name, "*"))

		opt := domain.ProductOption{Name: name, Required: required}
		for _, v := range strings.Split(values, "|") {
			if v = strings.TrimSpace(v); v != "" {
				opt.Values = append(opt.Values, v)
			}
		}
		if name == "" || len(opt.Values) == 0 {
			return nil, fmt.Errorf("invalid option %q", part)
		}
		out = append(out, opt)
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ";") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseBool(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y":
		return true
	case "0", "false", "no", "n":
		return false
	}
	return def
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
