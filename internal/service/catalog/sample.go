package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"jewelry-storefront/internal/domain"
)

const imageBase = "https://images.unsplash.com/"

func img(id string) string {
	return imageBase + id + "?ixlib=rb-4.0.3&auto=format&fit=crop&w=500&q=80"
}

var (
	ringSizes      = []string{"5", "5.5", "6", "6.5", "7", "7.5", "8", "8.5", "9"}
	sampleEpoch    = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	sampleCategory = []domain.Category{
		{ID: "sample-rings", Name: "Rings", Slug: "rings", Image: img("photo-1515562141207-7a88fb7ce338"), Order: 1, Active: true},
		{ID: "sample-necklaces", Name: "Necklaces", Slug: "necklaces", Image: img("photo-1599643478518-a784e5dc4c8f"), Order: 2, Active: true},
		{ID: "sample-earrings", Name: "Earrings", Slug: "earrings", Image: img("photo-1535632066927-ab7c9ab60908"), Order: 3, Active: true},
		{ID: "sample-bracelets", Name: "Bracelets", Slug: "bracelets", Image: img("photo-1611591437281-460bfbe1220a"), Order: 4, Active: true},
		{ID: "sample-bridal", Name: "Bridal", Slug: "bridal", Image: img("photo-1605100804763-247f67b3557e"), Order: 5, Active: true},
	}
)

type sampleSpec struct {
	title       string
	slug        string
	description string
	price       int64
	images      []string
	categories  []string
	options     []domain.ProductOption
	stock       int
}

var sampleSpecs = []sampleSpec{
	{
		title:       "Eternal Solitaire Diamond Ring",
		slug:        "eternal-solitaire-diamond-ring",
		description: "A timeless solitaire diamond ring featuring a brilliant-cut 1-carat diamond set in 18k white gold. The classic six-prong setting showcases the diamond's natural beauty and fire.",
		price:       2499,
		images:      []string{img("photo-1515562141207-7a88fb7ce338"), img("photo-1605100804763-247f67b3557e")},
		categories:  []string{"Rings", "Bridal"},
		options: []domain.ProductOption{
			{Name: "Ring Size", Values: ringSizes, Required: true},
			{Name: "Metal", Values: []string{"18k White Gold", "18k Yellow Gold", "18k Rose Gold", "Platinum"}, Required: true},
		},
		stock: 5,
	},
	{
		title:       "Vintage Pearl Strand Necklace",
		slug:        "vintage-pearl-strand-necklace",
		description: "Elegant cultured pearl necklace featuring 7-8mm Akoya pearls with excellent luster. Each pearl is hand-selected for its round shape and beautiful nacre quality.",
		price:       899,
		images:      []string{img("photo-1599643478518-a784e5dc4c8f"), img("photo-1591117207239-788bf8de6c3b")},
		categories:  []string{"Necklaces"},
		options: []domain.ProductOption{
			{Name: "Length", Values: []string{"16 inches", "18 inches", "20 inches", "24 inches"}, Required: true},
		},
		stock: 12,
	},
	{
		title:       "Art Deco Diamond Earrings",
		slug:        "art-deco-diamond-earrings",
		description: "Stunning Art Deco-inspired drop earrings featuring brilliant-cut diamonds in a geometric design. Crafted in 14k yellow gold with milgrain detailing.",
		price:       1299,
		images:      []string{img("photo-1535632066927-ab7c9ab60908"), img("photo-1588444650700-6c5c7e4b6e5d")},
		categories:  []string{"Earrings"},
		options: []domain.ProductOption{
			{Name: "Metal", Values: []string{"14k Yellow Gold", "14k White Gold", "14k Rose Gold"}, Required: true},
		},
		stock: 8,
	},
	{
		title:       "Delicate Chain Bracelet",
		slug:        "delicate-chain-bracelet",
		description: "Minimalist chain bracelet in sterling silver with a subtle heart charm. Perfect for everyday wear or layering with other bracelets.",
		price:       199,
		images:      []string{img("photo-1611591437281-460bfbe1220a"), img("photo-1506630448388-4e683c67ddb0")},
		categories:  []string{"Bracelets"},
		options: []domain.ProductOption{
			{Name: "Length", Values: []string{"6.5 inches", "7 inches", "7.5 inches", "8 inches"}, Required: true},
		},
		stock: 25,
	},
	{
		title:       "Sapphire Halo Engagement Ring",
		slug:        "sapphire-halo-engagement-ring",
		description: "Breathtaking blue sapphire engagement ring surrounded by a halo of brilliant diamonds. Set in platinum with diamond-accented band.",
		price:       3299,
		images:      []string{img("photo-1617038260897-41a1f14a8ca0"), img("photo-1515562141207-7a88fb7ce338")},
		categories:  []string{"Rings", "Bridal"},
		options: []domain.ProductOption{
			{Name: "Ring Size", Values: ringSizes, Required: true},
		},
		stock: 3,
	},
	{
		title:       "Rose Gold Tennis Bracelet",
		slug:        "rose-gold-tennis-bracelet",
		description: "Classic tennis bracelet featuring 2 carats of brilliant-cut diamonds set in 14k rose gold. Secure box clasp with safety latch.",
		price:       1899,
		images:      []string{img("photo-1611591437281-460bfbe1220a"), img("photo-1588444650700-6c5c7e4b6e5d")},
		categories:  []string{"Bracelets"},
		options: []domain.ProductOption{
			{Name: "Length", Values: []string{"6.5 inches", "7 inches", "7.5 inches"}, Required: true},
		},
		stock: 6,
	},
	{
		title:       "Emerald Cut Diamond Stud Earrings",
		slug:        "emerald-cut-diamond-stud-earrings",
		description: "Elegant emerald-cut diamond stud earrings totaling 1 carat. Set in 14k white gold with secure screw-back posts.",
		price:       1599,
		images:      []string{img("photo-1535632066927-ab7c9ab60908"), img("photo-1617038260897-41a1f14a8ca0")},
		categories:  []string{"Earrings"},
		options: []domain.ProductOption{
			{Name: "Metal", Values: []string{"14k White Gold", "14k Yellow Gold", "Platinum"}, Required: true},
		},
		stock: 10,
	},
	{
		title:       "Infinity Symbol Necklace",
		slug:        "infinity-symbol-necklace",
		description: "Delicate infinity symbol pendant necklace in 14k yellow gold. Symbol of eternal love and friendship, perfect for gifting.",
		price:       399,
		images:      []string{img("photo-1599643478518-a784e5dc4c8f"), img("photo-1591117207239-788bf8de6c3b")},
		categories:  []string{"Necklaces"},
		options: []domain.ProductOption{
			{Name: "Chain Length", Values: []string{"16 inches", "18 inches", "20 inches"}, Required: true},
		},
		stock: 18,
	},
}

// SampleProducts returns a fresh copy of the built-in catalog, served when the
// store is unreachable and written by the seed command.
func SampleProducts() []domain.Product {
	out := make([]domain.Product, 0, len(sampleSpecs))
	for i, s := range sampleSpecs {
		created := sampleEpoch.Add(-time.Duration(i) * time.Hour)
		options := make([]domain.ProductOption, 0, len(s.options))
		for _, o := range s.options {
			options = append(options, domain.ProductOption{
				Name:     o.Name,
				Values:   append([]string(nil), o.Values...),
				Required: o.Required,
			})
		}
		out = append(out, domain.Product{
			ID:          "sample-" + s.slug,
			Title:       s.title,
			Slug:        s.slug,
			Description: s.description,
			Price:       decimal.NewFromInt(s.price),
			Images:      append([]string(nil), s.images...),
			Categories:  append([]string(nil), s.categories...),
			Options:     options,
			Stock:       s.stock,
			Featured:    true,
			Active:      true,
			CreatedAt:   created,
			UpdatedAt:   created,
		})
	}
	return out
}

func SampleCategories() []domain.Category {
	out := make([]domain.Category, len(sampleCategory))
	for i, c := range sampleCategory {
		c.CreatedAt = sampleEpoch
		out[i] = c
	}
	return out
}
