package assessment

import (
	"fmt"
	"sort"

	"github.com/swapkart/tradein-backend/internal/catalog"
)

// Assessment is the complete set of a user's condition selections for one
// product variant. It is a plain value: JSON-serializable, safe to copy, and
// canonicalized via Normalize so equal selections always encode identically.
type Assessment struct {
	ProductID   string              `json:"product_id"`
	VariantID   string              `json:"variant_id"`
	Answers     map[string][]string `json:"answers"`
	Defects     []string            `json:"defects"`
	Accessories []string            `json:"accessories"`
}

func New(productID, variantID string) *Assessment {
	return &Assessment{
		ProductID: productID,
		VariantID: variantID,
		Answers:   map[string][]string{},
	}
}

// Key scopes resumption-cache entries: one in-progress assessment per
// product/variant pair.
func (a *Assessment) Key() string {
	return fmt.Sprintf("%s:%s", a.ProductID, a.VariantID)
}

// SetAnswer records the selection for a single-select question, replacing any
// previous choice.
func (a *Assessment) SetAnswer(questionID, optionID string) {
	if a.Answers == nil {
		a.Answers = map[string][]string{}
	}
	a.Answers[questionID] = []string{optionID}
}

// ToggleOption flips one option of a multi-select question. Zero selected
// options is a valid state, not an error.
func (a *Assessment) ToggleOption(questionID, optionID string) {
	if a.Answers == nil {
		a.Answers = map[string][]string{}
	}
	selected := a.Answers[questionID]
	for i, id := range selected {
		if id == optionID {
			a.Answers[questionID] = append(selected[:i], selected[i+1:]...)
			if len(a.Answers[questionID]) == 0 {
				delete(a.Answers, questionID)
			}
			return
		}
	}
	a.Answers[questionID] = append(selected, optionID)
}

// ToggleDefect flips one defect selection. The no-defects sentinel is
// mutually exclusive with every other defect: selecting it clears the rest,
// and selecting any real defect clears the sentinel.
func (a *Assessment) ToggleDefect(defectID string) {
	if a.has(a.Defects, defectID) {
		a.Defects = remove(a.Defects, defectID)
		return
	}
	if defectID == catalog.NoDefectsID {
		a.Defects = []string{catalog.NoDefectsID}
		return
	}
	a.Defects = append(remove(a.Defects, catalog.NoDefectsID), defectID)
}

func (a *Assessment) ToggleAccessory(accessoryID string) {
	if a.has(a.Accessories, accessoryID) {
		a.Accessories = remove(a.Accessories, accessoryID)
		return
	}
	a.Accessories = append(a.Accessories, accessoryID)
}

func (a *Assessment) has(set []string, id string) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

func remove(set []string, id string) []string {
	out := set[:0]
	for _, v := range set {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Normalize sorts and dedupes every selection set. Two assessments with the
// same selections normalize to the same value, which is what makes repeated
// submissions hash and price identically.
func (a *Assessment) Normalize() {
	for q, selected := range a.Answers {
		a.Answers[q] = sortedUnique(selected)
		if len(a.Answers[q]) == 0 {
			delete(a.Answers, q)
		}
	}
	a.Defects = sortedUnique(a.Defects)
	a.Accessories = sortedUnique(a.Accessories)
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
