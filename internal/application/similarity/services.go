package similarity

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
	domain "github.com/bryanwahyu/ugc-sentinel/internal/domain/similarity"
)

// ErrNoReferences is returned when neither the request nor a catalog supplies
// reference texts.
var ErrNoReferences = errors.New("no reference texts available")

// Service ranks reference texts by embedding similarity to a query.
type Service struct {
	Embedder       domain.Embedder
	Catalog        domain.ReferenceSource // optional
	CatalogLimit   int
	MaxConcurrency int
}

// Rank embeds query and every reference (one call each), then returns the
// references ordered by cosine similarity, highest first. Equal scores keep
// their input order. Any embedding failure aborts the whole ranking.
func (s *Service) Rank(ctx context.Context, query string, references []string) ([]domain.Entry, error) {
	if len(references) == 0 {
		return []domain.Entry{}, nil
	}

	texts := make([]string, 0, len(references)+1)
	texts = append(texts, query)
	texts = append(texts, references...)
	vecs := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	limit := s.MaxConcurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, text := range texts {
		g.Go(func() error {
			v, err := s.Embedder.Embed(gctx, text)
			if err != nil {
				return err
			}
			vecs[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if faults.KindOf(err) == "" {
			err = faults.New(faults.KindService, "similarity.embed", err)
		}
		return nil, err
	}

	out := make([]domain.Entry, len(references))
	for i, ref := range references {
		score, err := domain.Cosine(vecs[0], vecs[i+1])
		if err != nil {
			return nil, fmt.Errorf("similarity to reference %d: %w", i, err)
		}
		out[i] = domain.Entry{ReferenceText: ref, Score: score}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out, nil
}

// RankAgainstCatalog uses references when given, otherwise the configured
// catalog.
func (s *Service) RankAgainstCatalog(ctx context.Context, query string, references []string) ([]domain.Entry, error) {
	if len(references) == 0 {
		if s.Catalog == nil {
			return nil, ErrNoReferences
		}
		refs, err := s.Catalog.References(ctx, s.CatalogLimit)
		if err != nil {
			return nil, faults.New(faults.KindService, "similarity.catalog", err)
		}
		if len(refs) == 0 {
			return nil, ErrNoReferences
		}
		references = refs
	}
	return s.Rank(ctx, query, references)
}
