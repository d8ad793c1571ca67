package controllers

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrymomot/tela"
	"github.com/dmitrymomot/tela/pkg/cache"
	"github.com/dmitrymomot/tela/pkg/db"
	"github.com/dmitrymomot/tela/pkg/model"
	"github.com/dmitrymomot/tela/pkg/strutil"
	"github.com/dmitrymomot/tela/pkg/view"
)

const (
	// CategoryAll searches every category.
	CategoryAll = "all"

	defaultSearchMinLength = 3
)

// SearchResult holds the matches of one category.
type SearchResult struct {
	Resource string   `json:"resource"`
	Columns  []string `json:"columns"`
	Rows     []db.Row `json:"rows"`
}

// SearchResults maps PascalCase category names to their matches.
type SearchResults map[string]SearchResult

// Searcher finds the rows of one category matching a cleaned query.
type Searcher func(ctx context.Context, q string) (SearchResult, error)

// ModelSearcher searches the properties of m flagged `search: true` and
// returns its visible columns.
func ModelSearcher[E any](resource string, m *model.Model[E]) Searcher {
	columns := visibleColumns(m)
	return func(ctx context.Context, q string) (SearchResult, error) {
		list, err := m.Search(ctx, q)
		if err != nil {
			return SearchResult{}, err
		}
		return SearchResult{Resource: resource, Columns: columns, Rows: tableRows(m, list, columns)}, nil
	}
}

// SearchCategory pairs a kebab-case category name with its searcher.
type SearchCategory struct {
	Name     string
	Searcher Searcher
}

// SearchConfig configures the search controller.
type SearchConfig struct {
	Categories []SearchCategory
	MinLength  int
	// Cache keeps results for CacheTTL. Nil disables caching.
	Cache    cache.Cache[SearchResults]
	CacheTTL time.Duration
}

// Search runs a query over one or all categories.
type Search struct {
	cfg   *SearchConfig
	names []string
}

// NewSearch returns the factory of the search controller.
func NewSearch(cfg SearchConfig) tela.ControllerFactory {
	if cfg.MinLength <= 0 {
		cfg.MinLength = defaultSearchMinLength
	}
	names := []string{CategoryAll}
	for _, cat := range cfg.Categories {
		names = append(names, cat.Name)
	}
	return func() tela.Controller {
		return &Search{cfg: &cfg, names: names}
	}
}

func (s *Search) Actions() tela.Actions {
	return tela.Actions{"index": s.index}
}

func (s *Search) index(c tela.Context, a tela.Args) error {
	data := view.Data{
		"title":       "Search",
		"activeLinks": []string{"search"},
		"categories":  s.names,
		"category":    CategoryAll,
		"minLength":   s.cfg.MinLength,
		"search":      "",
		"results":     SearchResults{},
	}

	q, category, ok := s.validate(c, a)
	data["search"] = q
	data["category"] = category
	if !ok {
		return c.View(http.StatusOK, "search/search-form", data)
	}

	results, err := s.cached(c, q, category)
	if err != nil {
		return err
	}
	data["results"] = results
	return c.View(http.StatusOK, "search/search-form", data)
}

// validate cleans the submitted query and category. Problems are reported
// as a danger alert.
func (s *Search) validate(c tela.Context, a tela.Args) (string, string, bool) {
	raw := a.Value("search")
	if strings.TrimSpace(raw) == "" {
		return "", CategoryAll, false
	}
	q := strutil.CleanSearchString(raw)

	category := CategoryAll
	if v := a.Value("category"); v != "" {
		category = strutil.CleanSearchString(v)
	}

	var problems []string
	if utf8.RuneCountInString(q) < s.cfg.MinLength {
		problems = append(problems, fmt.Sprintf("The search must be at least %d characters long.", s.cfg.MinLength))
	}
	if !slices.Contains(s.names, category) {
		problems = append(problems, "The category must be one of: "+strings.Join(s.names, ", ")+".")
	}
	if len(problems) > 0 {
		c.AddAlert(strings.Join(problems, " "), "danger")
		return q, category, false
	}
	return q, category, true
}

func (s *Search) cached(ctx context.Context, q, category string) (SearchResults, error) {
	if s.cfg.Cache == nil {
		return s.results(ctx, q, category)
	}
	key := "search:" + category + ":" + q
	return cache.GetOrSet(ctx, s.cfg.Cache, key, func(ctx context.Context) (SearchResults, time.Duration, error) {
		res, err := s.results(ctx, q, category)
		return res, s.cfg.CacheTTL, err
	})
}

func (s *Search) results(ctx context.Context, q, category string) (SearchResults, error) {
	out := make(SearchResults)
	for _, cat := range s.cfg.Categories {
		if category != CategoryAll && category != cat.Name {
			continue
		}
		res, err := cat.Searcher(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", cat.Name, err)
		}
		out[strutil.Pascal(cat.Name)] = res
	}
	return out, nil
}
