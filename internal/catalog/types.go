package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/swapkart/tradein-backend/internal/pricing"
)

// NoDefectsID is the sentinel defect meaning "device has no defects". It is
// mutually exclusive with every other defect id and contributes no signal.
const NoDefectsID = "no-defects"

type QuestionKind string

const (
	QuestionSingle QuestionKind = "single"
	QuestionMulti  QuestionKind = "multi"
)

type Option struct {
	ID    string        `json:"id"`
	Label string        `json:"label"`
	Delta pricing.Delta `json:"delta"`
}

type Question struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Kind     QuestionKind `json:"kind"`
	Required bool         `json:"required"`
	Options  []Option     `json:"options"`
}

type Defect struct {
	ID    string        `json:"id"`
	Label string        `json:"label"`
	Delta pricing.Delta `json:"delta"`
}

type Accessory struct {
	ID    string        `json:"id"`
	Label string        `json:"label"`
	Delta pricing.Delta `json:"delta"`
}

type Variant struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	BasePrice decimal.Decimal `json:"base_price"`
}

type Product struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Variants []Variant `json:"variants"`
}

// Snapshot is one read-only, versioned view of a category's catalog. The
// engine never mutates it; a newer version simply replaces the whole value.
type Snapshot struct {
	Category    string      `json:"category"`
	Version     string      `json:"version"`
	FetchedAt   time.Time   `json:"fetched_at"`
	Questions   []Question  `json:"questions"`
	Defects     []Defect    `json:"defects"`
	Accessories []Accessory `json:"accessories"`
	Products    []Product   `json:"products"`

	questionByID  map[string]*Question
	defectByID    map[string]*Defect
	accessoryByID map[string]*Accessory
	productByID   map[string]*Product
}

// Index builds the lookup maps. Call once after unmarshalling.
func (s *Snapshot) Index() {
	s.questionByID = make(map[string]*Question, len(s.Questions))
	for i := range s.Questions {
		s.questionByID[s.Questions[i].ID] = &s.Questions[i]
	}
	s.defectByID = make(map[string]*Defect, len(s.Defects))
	for i := range s.Defects {
		s.defectByID[s.Defects[i].ID] = &s.Defects[i]
	}
	s.accessoryByID = make(map[string]*Accessory, len(s.Accessories))
	for i := range s.Accessories {
		s.accessoryByID[s.Accessories[i].ID] = &s.Accessories[i]
	}
	s.productByID = make(map[string]*Product, len(s.Products))
	for i := range s.Products {
		s.productByID[s.Products[i].ID] = &s.Products[i]
	}
}

func (s *Snapshot) Question(id string) (*Question, bool) {
	q, ok := s.questionByID[id]
	return q, ok
}

func (q *Question) Option(id string) (*Option, bool) {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i], true
		}
	}
	return nil, false
}

func (s *Snapshot) Defect(id string) (*Defect, bool) {
	d, ok := s.defectByID[id]
	return d, ok
}

func (s *Snapshot) Accessory(id string) (*Accessory, bool) {
	a, ok := s.accessoryByID[id]
	return a, ok
}

func (s *Snapshot) Product(id string) (*Product, bool) {
	p, ok := s.productByID[id]
	return p, ok
}

// BasePrice resolves a product/variant to its catalog base price.
func (s *Snapshot) BasePrice(productID, variantID string) (decimal.Decimal, bool) {
	p, ok := s.productByID[productID]
	if !ok {
		return decimal.Zero, false
	}
	for _, v := range p.Variants {
		if v.ID == variantID {
			return v.BasePrice, true
		}
	}
	return decimal.Zero, false
}
