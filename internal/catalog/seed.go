package catalog

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/swapkart/tradein-backend/internal/logger"
	"github.com/swapkart/tradein-backend/internal/pricing"
)

// Seed document shadow types: yaml.v3 cannot decode into decimal.Decimal, so
// amounts are read as strings and converted.

type seedDelta struct {
	Type  string `yaml:"type"`
	Sign  string `yaml:"sign"`
	Value string `yaml:"value"`
}

type seedOption struct {
	ID    string    `yaml:"id"`
	Label string    `yaml:"label"`
	Delta seedDelta `yaml:"delta"`
}

type seedQuestion struct {
	ID       string       `yaml:"id"`
	Text     string       `yaml:"text"`
	Kind     string       `yaml:"kind"`
	Required bool         `yaml:"required"`
	Options  []seedOption `yaml:"options"`
}

type seedAdjustable struct {
	ID    string    `yaml:"id"`
	Label string    `yaml:"label"`
	Delta seedDelta `yaml:"delta"`
}

type seedVariant struct {
	ID        string `yaml:"id"`
	Label     string `yaml:"label"`
	BasePrice string `yaml:"base_price"`
}

type seedProduct struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Variants []seedVariant `yaml:"variants"`
}

type seedCategory struct {
	Category    string           `yaml:"category"`
	Version     string           `yaml:"version"`
	Questions   []seedQuestion   `yaml:"questions"`
	Defects     []seedAdjustable `yaml:"defects"`
	Accessories []seedAdjustable `yaml:"accessories"`
	Products    []seedProduct    `yaml:"products"`
}

type seedService struct {
	log       *logger.Logger
	snapshots map[string]*Snapshot
}

// NewSeedService loads catalog snapshots from a local YAML file. Used in dev
// and test environments where no catalog service is reachable.
func NewSeedService(log *logger.Logger, path string) (Service, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed: %w", err)
	}
	snapshots, err := ParseSeed(raw)
	if err != nil {
		return nil, err
	}
	log.Info("Catalog seed loaded", "path", path, "categories", len(snapshots))
	return &seedService{log: log.With("service", "CatalogSeedService"), snapshots: snapshots}, nil
}

func ParseSeed(raw []byte) (map[string]*Snapshot, error) {
	var doc struct {
		Categories []seedCategory `yaml:"categories"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog seed: %w", err)
	}
	snapshots := make(map[string]*Snapshot, len(doc.Categories))
	for _, sc := range doc.Categories {
		snap, err := sc.toSnapshot()
		if err != nil {
			return nil, fmt.Errorf("catalog seed category %q: %w", sc.Category, err)
		}
		snapshots[snap.Category] = snap
	}
	return snapshots, nil
}

func (sc seedCategory) toSnapshot() (*Snapshot, error) {
	snap := &Snapshot{
		Category:  sc.Category,
		Version:   sc.Version,
		FetchedAt: time.Now().UTC(),
	}
	for _, q := range sc.Questions {
		question := Question{ID: q.ID, Text: q.Text, Kind: QuestionKind(q.Kind), Required: q.Required}
		for _, o := range q.Options {
			delta, err := o.Delta.toDelta()
			if err != nil {
				return nil, fmt.Errorf("question %s option %s: %w", q.ID, o.ID, err)
			}
			question.Options = append(question.Options, Option{ID: o.ID, Label: o.Label, Delta: delta})
		}
		snap.Questions = append(snap.Questions, question)
	}
	for _, d := range sc.Defects {
		delta, err := d.Delta.toDelta()
		if err != nil {
			return nil, fmt.Errorf("defect %s: %w", d.ID, err)
		}
		snap.Defects = append(snap.Defects, Defect{ID: d.ID, Label: d.Label, Delta: delta})
	}
	for _, a := range sc.Accessories {
		delta, err := a.Delta.toDelta()
		if err != nil {
			return nil, fmt.Errorf("accessory %s: %w", a.ID, err)
		}
		snap.Accessories = append(snap.Accessories, Accessory{ID: a.ID, Label: a.Label, Delta: delta})
	}
	for _, p := range sc.Products {
		product := Product{ID: p.ID, Name: p.Name}
		for _, v := range p.Variants {
			price, err := decimal.NewFromString(v.BasePrice)
			if err != nil {
				return nil, fmt.Errorf("product %s variant %s base_price: %w", p.ID, v.ID, err)
			}
			product.Variants = append(product.Variants, Variant{ID: v.ID, Label: v.Label, BasePrice: price})
		}
		snap.Products = append(snap.Products, product)
	}
	snap.Index()
	return snap, nil
}

func (sd seedDelta) toDelta() (pricing.Delta, error) {
	v, err := decimal.NewFromString(sd.Value)
	if err != nil {
		return pricing.Delta{}, fmt.Errorf("delta value: %w", err)
	}
	switch pricing.DeltaType(sd.Type) {
	case pricing.DeltaPercent, pricing.DeltaAbsolute:
	default:
		return pricing.Delta{}, fmt.Errorf("delta type %q", sd.Type)
	}
	sign := pricing.Sign(sd.Sign)
	if sign != pricing.SignPlus && sign != pricing.SignMinus {
		return pricing.Delta{}, fmt.Errorf("delta sign %q", sd.Sign)
	}
	return pricing.Delta{Type: pricing.DeltaType(sd.Type), Sign: sign, Value: v}, nil
}

func (s *seedService) Snapshot(ctx context.Context, category string) (*Snapshot, error) {
	snap, ok := s.snapshots[category]
	if !ok {
		return nil, fmt.Errorf("unknown catalog category %q", category)
	}
	return snap, nil
}
