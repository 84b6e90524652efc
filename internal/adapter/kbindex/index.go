// Package kbindex implements the knowledge search port with an in-memory
// keyword index over a YAML article corpus.
package kbindex

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	tdotel "github.com/sablehq/triagedesk/internal/adapter/otel"
	"github.com/sablehq/triagedesk/internal/domain/kb"
	"github.com/sablehq/triagedesk/internal/metrics"
	"github.com/sablehq/triagedesk/internal/port/cache"
)

//go:embed articles.yaml
var defaultCorpus []byte

// maxResults bounds how many articles a single search returns.
const maxResults = 3

// Index is a keyword-overlap search index over knowledge base articles.
type Index struct {
	articles []kb.Article
	tokens   [][]string // per-article token sets, parallel to articles

	cache cache.Cache
	ttl   time.Duration
}

// corpusFile is the YAML layout of an article corpus.
type corpusFile struct {
	Articles []kb.Article `yaml:"articles"`
}

// NewFromYAML builds an index from a YAML corpus.
func NewFromYAML(data []byte) (*Index, error) {
	var corpus corpusFile
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	if len(corpus.Articles) == 0 {
		return nil, fmt.Errorf("corpus contains no articles")
	}

	idx := &Index{articles: corpus.Articles}
	for _, a := range corpus.Articles {
		text := a.Title + " " + a.Content + " " + strings.Join(a.Tags, " ")
		idx.tokens = append(idx.tokens, tokenize(text))
	}
	return idx, nil
}

// Default builds an index from the embedded corpus.
func Default() (*Index, error) {
	return NewFromYAML(defaultCorpus)
}

// SetCache attaches a findings cache with the given TTL.
func (i *Index) SetCache(c cache.Cache, ttl time.Duration) {
	i.cache = c
	i.ttl = ttl
}

// Search scores articles by term overlap with the query and returns the
// best matches, or nil findings when nothing is relevant. The top match's
// remediation steps, when present, are promoted onto the findings.
func (i *Index) Search(ctx context.Context, query string) (*kb.Findings, error) {
	start := time.Now()
	ctx, span := tdotel.StartKBSearchSpan(ctx, query)
	defer func() {
		span.End()
		metrics.KBSearchDuration.Observe(time.Since(start).Seconds())
	}()

	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	// Key must stay valid for NATS KV buckets: no spaces or colons.
	key := "kb." + strings.Join(terms, "-")
	if i.cache != nil {
		if data, ok, err := i.cache.Get(ctx, key); err == nil && ok {
			var f kb.Findings
			if err := json.Unmarshal(data, &f); err == nil {
				return &f, nil
			}
			// Corrupt entry: drop it and fall through to a fresh search.
			_ = i.cache.Delete(ctx, key)
		}
	}

	type scored struct {
		idx   int
		score int
	}
	var hits []scored
	for n, toks := range i.tokens {
		if s := overlap(terms, toks); s > 0 {
			hits = append(hits, scored{idx: n, score: s})
		}
	}
	if len(hits) == 0 {
		return nil, nil
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	f := &kb.Findings{Query: query}
	for _, h := range hits {
		f.Articles = append(f.Articles, i.articles[h.idx])
	}
	f.Steps = f.Articles[0].Steps

	if i.cache != nil {
		if data, err := json.Marshal(f); err == nil {
			if err := i.cache.Set(ctx, key, data, i.ttl); err != nil {
				slog.Debug("kb cache set failed", "error", err)
			}
		}
	}

	return f, nil
}

// tokenize lowercases, strips punctuation, and drops short/stop words.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, w := range fields {
		if len(w) < 3 || stopwords[w] {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// overlap counts query terms present in the article token set.
func overlap(terms, tokens []string) int {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	n := 0
	for _, t := range terms {
		if _, ok := set[t]; ok {
			n++
		}
	}
	return n
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"have": true, "was": true, "with": true, "this": true, "that": true,
	"when": true, "every": true, "time": true, "tried": true, "still": true,
	"really": true, "very": true, "please": true, "need": true,
}
