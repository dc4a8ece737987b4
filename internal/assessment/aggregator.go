package assessment

import (
	"github.com/swapkart/tradein-backend/internal/catalog"
	"github.com/swapkart/tradein-backend/internal/logger"
	"github.com/swapkart/tradein-backend/internal/pricing"
)

// Aggregator joins an assessment against a catalog snapshot and emits the
// condition signals the price calculator consumes.
type Aggregator struct {
	log *logger.Logger
}

func NewAggregator(baseLog *logger.Logger) *Aggregator {
	return &Aggregator{log: baseLog.With("component", "AssessmentAggregator")}
}

// Signals emits one ConditionSignal per effective selection. Selections that
// reference ids missing from the snapshot are dropped with a warning: a stale
// catalog must degrade the quote, never block the user. The no-defects
// sentinel emits nothing; it is the documented no-op baseline.
func (ag *Aggregator) Signals(a *Assessment, snap *catalog.Snapshot) []pricing.ConditionSignal {
	if a == nil || snap == nil {
		return nil
	}
	var signals []pricing.ConditionSignal

	// Questions walk in catalog order so the breakdown renders stably.
	for i := range snap.Questions {
		q := &snap.Questions[i]
		selected, ok := a.Answers[q.ID]
		if !ok || len(selected) == 0 {
			continue
		}
		if q.Kind == catalog.QuestionSingle && len(selected) > 1 {
			ag.log.Warn("Multiple selections on single-select question, using first", "question_id", q.ID)
			selected = selected[:1]
		}
		for _, optionID := range selected {
			opt, ok := q.Option(optionID)
			if !ok {
				ag.log.Warn("Dropping unknown option reference", "question_id", q.ID, "option_id", optionID, "catalog_version", snap.Version)
				continue
			}
			signals = append(signals, pricing.ConditionSignal{
				SourceID:      q.ID,
				SourceKind:    pricing.SourceAnswer,
				Label:         q.Text,
				SelectedLabel: opt.Label,
				Delta:         opt.Delta,
			})
		}
	}

	for _, questionID := range unknownQuestions(a, snap) {
		ag.log.Warn("Dropping answer for unknown question", "question_id", questionID, "catalog_version", snap.Version)
	}

	for _, defectID := range a.Defects {
		if defectID == catalog.NoDefectsID {
			continue
		}
		d, ok := snap.Defect(defectID)
		if !ok {
			ag.log.Warn("Dropping unknown defect reference", "defect_id", defectID, "catalog_version", snap.Version)
			continue
		}
		signals = append(signals, pricing.ConditionSignal{
			SourceID:      d.ID,
			SourceKind:    pricing.SourceDefect,
			Label:         "Defect",
			SelectedLabel: d.Label,
			Delta:         d.Delta,
		})
	}

	for _, accessoryID := range a.Accessories {
		acc, ok := snap.Accessory(accessoryID)
		if !ok {
			ag.log.Warn("Dropping unknown accessory reference", "accessory_id", accessoryID, "catalog_version", snap.Version)
			continue
		}
		signals = append(signals, pricing.ConditionSignal{
			SourceID:      acc.ID,
			SourceKind:    pricing.SourceAccessory,
			Label:         "Accessory",
			SelectedLabel: acc.Label,
			Delta:         acc.Delta,
		})
	}

	return signals
}

// IsComplete reports whether every required question has at least one
// selection. Enforcing completeness is the caller's call; this is pure
// inspection.
func (ag *Aggregator) IsComplete(a *Assessment, snap *catalog.Snapshot) bool {
	if snap == nil {
		return false
	}
	for i := range snap.Questions {
		q := &snap.Questions[i]
		if !q.Required {
			continue
		}
		if a == nil || len(a.Answers[q.ID]) == 0 {
			return false
		}
	}
	return true
}

func unknownQuestions(a *Assessment, snap *catalog.Snapshot) []string {
	var unknown []string
	for questionID := range a.Answers {
		if _, ok := snap.Question(questionID); !ok {
			unknown = append(unknown, questionID)
		}
	}
	return unknown
}
