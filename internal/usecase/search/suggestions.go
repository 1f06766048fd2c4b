package search

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/roomfinder/internal/domain"
	"github.com/kailas-cloud/roomfinder/internal/logger"
)

// maxQuerySuggestions caps the ready-made query list.
const maxQuerySuggestions = 10

// minPartialRunes is the shortest partial query sent for completion.
const minPartialRunes = 2

// Sources of the suggested queries.
const (
	SuggestionsBasic = "basic"
	SuggestionsAI    = "ai"
)

var basicQueries = []string{
	"modern living room",
	"traditional bedroom",
	"modular kitchen",
	"contemporary dining room",
	"Indian traditional decor",
	"wooden furniture",
	"sectional sofa",
	"granite countertop",
	"pooja room design",
	"balcony decor",
}

// Suggestions are the vocabulary sets a client can offer for query building.
type Suggestions struct {
	Queries          []string `json:"queries"`
	QueriesSource    string   `json:"queries_source"`
	RoomTypes        []string `json:"room_types"`
	DesignThemes     []string `json:"design_themes"`
	BudgetCategories []string `json:"budget_categories"`
	SpaceTypes       []string `json:"space_types"`
}

// Suggestions returns the corpus vocabulary plus up to ten example queries. A partial
// query of two or more characters is completed by the model when a completer is
// configured; otherwise, or when completion fails, the ready-made queries are served.
func (s *Service) Suggestions(ctx context.Context, partial string) (Suggestions, error) {
	snap, err := s.corpus.Get(ctx)
	if err != nil {
		return Suggestions{}, failAt(domain.StageCorpus, storeFailure(err))
	}

	out := Suggestions{
		QueriesSource:    SuggestionsBasic,
		RoomTypes:        snap.RoomTypes,
		DesignThemes:     snap.DesignThemes,
		BudgetCategories: snap.BudgetCategories,
		SpaceTypes:       snap.SpaceTypes,
	}

	partial = strings.TrimSpace(partial)
	if s.completer != nil && utf8.RuneCountInString(partial) >= minPartialRunes {
		completions, err := s.completer.Complete(ctx, partial)
		switch {
		case err == nil && len(completions) > 0:
			out.Queries = distinctPrefix(completions, maxQuerySuggestions)
			out.QueriesSource = SuggestionsAI
			return out, nil
		case err != nil && ctx.Err() != nil:
			return Suggestions{}, failAt(domain.StageCorpus, ctx.Err())
		case err != nil:
			logger.FromContext(ctx).Warn("Query completion failed, serving basic suggestions",
				zap.String("partial", partial), zap.Error(err))
		}
	}

	candidates := make([]string, 0, len(basicQueries)+len(snap.RoomTypes)+5)
	candidates = append(candidates, basicQueries...)
	for _, rt := range snap.RoomTypes {
		candidates = append(candidates, rt+" design")
	}
	themes := snap.DesignThemes
	if len(themes) > 5 {
		themes = themes[:5]
	}
	candidates = append(candidates, themes...)
	out.Queries = distinctPrefix(candidates, maxQuerySuggestions)
	return out, nil
}

func distinctPrefix(vals []string, n int) []string {
	seen := make(map[string]struct{}, len(vals))
	out := make([]string, 0, n)
	for _, v := range vals {
		if len(out) == n {
			break
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
