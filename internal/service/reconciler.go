package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jask/aidat/internal/domain"
	"github.com/jask/aidat/internal/logging"
	"github.com/jask/aidat/internal/textmatch"
)

const defaultMatchThreshold = 70

// Reconciler binds imported transaction rows to athletes.
//
// Per row: a remembered binding to a still-active athlete wins outright;
// otherwise every active athlete's student and parent names are scored
// against the description and the best score at or above MatchThreshold is
// accepted and offered to memory for learning.
type Reconciler struct {
	Memory *MatchMemory

	// MatchThreshold is the minimum similarity for a computed match.
	MatchThreshold int
	// ReviewThreshold is the score below which a computed match is flagged
	// for review. Defaults to domain.ReviewThreshold.
	ReviewThreshold int

	Log  zerolog.Logger
	Sink logging.Sink
}

// NewReconciler creates a reconciler using memory for historical matches.
func NewReconciler(memory *MatchMemory) *Reconciler {
	if memory == nil {
		panic("service: nil match memory")
	}
	return &Reconciler{Memory: memory}
}

// Summary counts results by outcome.
type Summary struct {
	Total       int `json:"total"`
	Historical  int `json:"historical"`
	Computed    int `json:"computed"`
	Manual      int `json:"manual"`
	Unmatched   int `json:"unmatched"`
	NeedsReview int `json:"needs_review"`
}

// Reconcile returns one result per row, in row order.
func (r *Reconciler) Reconcile(ctx context.Context, rows []domain.TransactionRow, athletes []domain.AthleteIdentity) []domain.MatchResult {
	candidates := activeAthletes(athletes)
	byID := make(map[string]struct{}, len(candidates))
	for _, a := range candidates {
		byID[a.ID] = struct{}{}
	}

	results := make([]domain.MatchResult, 0, len(rows))
	for _, row := range rows {
		res := r.reconcileRow(ctx, row, candidates, byID)
		r.sink().MatchDecided(logging.MatchEvent{
			Description: row.Description,
			AthleteID:   res.AthleteID,
			Similarity:  res.Similarity,
			Provenance:  string(res.Provenance),
			Reason:      r.decisionReason(res),
		})
		results = append(results, res)
	}

	r.Log.Debug().Int("rows", len(rows)).Int("candidates", len(candidates)).Msg("reconcile batch done")
	return results
}

func (r *Reconciler) reconcileRow(ctx context.Context, row domain.TransactionRow, candidates []domain.AthleteIdentity, active map[string]struct{}) domain.MatchResult {
	rec := r.Memory.Find(ctx, row.Description)
	if rec != nil {
		if _, ok := active[rec.AthleteID]; ok {
			return domain.MatchResult{
				Row:              row,
				AthleteID:        rec.AthleteID,
				AthleteName:      rec.AthleteName,
				ParentName:       rec.ParentName,
				Similarity:       100,
				Provenance:       domain.ProvenanceHistorical,
				IsSiblingPayment: rec.IsSiblingPayment,
				SiblingIDs:       append([]string(nil), rec.SiblingIDs...),
			}
		}
		r.Log.Debug().Str("athlete_id", rec.AthleteID).Msg("remembered athlete no longer active, rescoring")
	}

	best, score := bestCandidate(row.Description, candidates, r.matchThreshold())
	if best == nil {
		return domain.MatchResult{Row: row}
	}

	res := domain.MatchResult{
		Row:         row,
		AthleteID:   best.ID,
		AthleteName: best.StudentFullName(),
		ParentName:  best.ParentFullName(),
		Similarity:  score,
		Provenance:  domain.ProvenanceComputed,
	}
	if rec != nil {
		// The description is already known; a stale binding is replaced by hand.
		return res
	}
	r.Memory.AutoLearn(ctx, LearnRequest{
		SaveRequest: SaveRequest{
			Description: row.Description,
			AthleteID:   res.AthleteID,
			AthleteName: res.AthleteName,
			ParentName:  res.ParentName,
		},
		Confidence: score,
	})
	return res
}

// Assign binds row to athlete by hand and remembers the choice. Sibling ids
// mark a payment covering several athletes.
func (r *Reconciler) Assign(ctx context.Context, row domain.TransactionRow, athlete domain.AthleteIdentity, siblingIDs []string) (domain.MatchResult, error) {
	if err := r.Memory.Confirm(ctx, row.Description, athlete, siblingIDs); err != nil {
		return domain.MatchResult{}, err
	}
	res := domain.MatchResult{
		Row:              row,
		AthleteID:        athlete.ID,
		AthleteName:      athlete.StudentFullName(),
		ParentName:       athlete.ParentFullName(),
		Similarity:       100,
		Provenance:       domain.ProvenanceManual,
		IsSiblingPayment: len(siblingIDs) > 0,
		SiblingIDs:       append([]string(nil), siblingIDs...),
	}
	r.sink().MatchDecided(logging.MatchEvent{
		Description: row.Description,
		AthleteID:   res.AthleteID,
		Similarity:  res.Similarity,
		Provenance:  string(res.Provenance),
		Reason:      "assigned by hand",
	})
	return res, nil
}

// bestCandidate returns the first athlete with the highest student or parent
// name score, provided it reaches threshold.
func bestCandidate(description string, candidates []domain.AthleteIdentity, threshold int) (*domain.AthleteIdentity, int) {
	var best *domain.AthleteIdentity
	bestScore := 0
	for i := range candidates {
		student, parent := candidates[i].StudentFullName(), candidates[i].ParentFullName()
		if student == "" && parent == "" {
			continue
		}
		score := max(textmatch.Similarity(description, student), textmatch.Similarity(description, parent))
		if score >= threshold && score > bestScore {
			best = &candidates[i]
			bestScore = score
		}
	}
	return best, bestScore
}

func activeAthletes(athletes []domain.AthleteIdentity) []domain.AthleteIdentity {
	out := make([]domain.AthleteIdentity, 0, len(athletes))
	for _, a := range athletes {
		if a.IsActive() {
			out = append(out, a)
		}
	}
	return out
}

func (r *Reconciler) decisionReason(res domain.MatchResult) string {
	switch {
	case res.Provenance == domain.ProvenanceHistorical:
		return "remembered match"
	case !res.Matched():
		return "no candidate reached threshold"
	case res.NeedsReviewBelow(r.reviewThreshold()):
		return "medium confidence, review"
	default:
		return "high confidence"
	}
}

// Summarize counts results by outcome using the reconciler's review threshold.
func (r *Reconciler) Summarize(results []domain.MatchResult) Summary {
	return Summarize(results, r.reviewThreshold())
}

// Summarize counts results by outcome. Computed matches scoring below
// reviewThreshold are counted as needing review; zero or less means
// domain.ReviewThreshold.
func Summarize(results []domain.MatchResult, reviewThreshold int) Summary {
	if reviewThreshold <= 0 {
		reviewThreshold = domain.ReviewThreshold
	}
	s := Summary{Total: len(results)}
	for _, res := range results {
		switch {
		case res.Provenance == domain.ProvenanceHistorical:
			s.Historical++
		case res.Provenance == domain.ProvenanceManual:
			s.Manual++
		case res.Matched():
			s.Computed++
		default:
			s.Unmatched++
		}
		if res.NeedsReviewBelow(reviewThreshold) {
			s.NeedsReview++
		}
	}
	return s
}

func (r *Reconciler) matchThreshold() int {
	if r.MatchThreshold <= 0 {
		return defaultMatchThreshold
	}
	return r.MatchThreshold
}

func (r *Reconciler) reviewThreshold() int {
	if r.ReviewThreshold <= 0 {
		return domain.ReviewThreshold
	}
	return r.ReviewThreshold
}

func (r *Reconciler) sink() logging.Sink {
	if r.Sink == nil {
		return logging.NopSink{}
	}
	return r.Sink
}
