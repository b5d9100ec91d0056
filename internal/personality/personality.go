// Package personality scores free text with a keyword-count heuristic:
// occurrences of category keywords add a weighted bonus to a base score,
// and the result is clamped to [0, cap].
package personality

import (
	"slices"
	"sort"
	"strings"

	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

// Default scoring parameters.
const (
	DefaultBase = 0.5
	DefaultCap  = 1.0
)

// DefaultCategories returns the built-in keyword groups.
func DefaultCategories() []types.KeywordCategory {
	return []types.KeywordCategory{
		{
			Name:     "values",
			Keywords: []string{"誠実", "本質", "価値", "integrity", "essence", "value"},
			Weight:   0.05,
		},
		{
			Name:     "reflection",
			Keywords: []string{"振り返", "気づ", "学び", "reflect", "realize", "learned"},
			Weight:   0.04,
		},
		{
			Name:     "growth",
			Keywords: []string{"成長", "挑戦", "改善", "growth", "challenge", "improve"},
			Weight:   0.03,
		},
		{
			Name:     "relationships",
			Keywords: []string{"家族", "仲間", "感謝", "family", "team", "grateful"},
			Weight:   0.02,
		},
	}
}

// Scorer applies one scoring configuration.
type Scorer struct {
	base       float64
	cap        float64
	categories []category
}

type category struct {
	name     string
	keywords []string // lower-cased, longest first
	weight   float64
}

// New builds a Scorer from cfg. A zero cap selects DefaultCap and
// DefaultBase; no categories selects DefaultCategories. Cap is clamped to
// [0, 1] and base to [0, cap].
func New(cfg types.PersonalityConfig) *Scorer {
	base, capv := cfg.Base, cfg.Cap
	if capv == 0 {
		capv = DefaultCap
		if base == 0 {
			base = DefaultBase
		}
	}
	capv = clamp(capv, 0, 1)
	base = clamp(base, 0, capv)

	cats := cfg.Categories
	if len(cats) == 0 {
		cats = DefaultCategories()
	}

	s := &Scorer{base: base, cap: capv}
	for _, c := range cats {
		kws := make([]string, 0, len(c.Keywords))
		for _, k := range c.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kws = append(kws, k)
			}
		}
		sort.SliceStable(kws, func(i, j int) bool { return len(kws[i]) > len(kws[j]) })
		s.categories = append(s.categories, category{name: c.Name, keywords: kws, weight: c.Weight})
	}
	return s
}

// Result is the outcome of Analyze.
type Result struct {
	Score   float64        `json:"score"`
	Base    float64        `json:"base"`
	Bonus   float64        `json:"bonus"`
	Counts  map[string]int `json:"counts"`  // matches per category
	Matched []string       `json:"matched"` // distinct keywords found, sorted
}

// Total returns the number of keyword occurrences across categories.
func (r Result) Total() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n
}

// Analyze scores text. Matching is case-insensitive and counts
// non-overlapping keyword occurrences per category. Within a category each
// span of text is counted once, for the longest keyword covering it.
func (s *Scorer) Analyze(text string) Result {
	lower := strings.ToLower(text)
	res := Result{
		Base:   s.base,
		Counts: make(map[string]int, len(s.categories)),
	}
	matched := make(map[string]bool)

	for _, c := range s.categories {
		n := 0
		used := make([]bool, len(lower))
		for _, k := range c.keywords {
			if cnt := claim(lower, k, used); cnt > 0 {
				n += cnt
				matched[k] = true
			}
		}
		res.Counts[c.name] += n
		res.Bonus += float64(n) * c.weight
	}

	for k := range matched {
		res.Matched = append(res.Matched, k)
	}
	sort.Strings(res.Matched)

	res.Score = clamp(s.base+res.Bonus, 0, s.cap)
	return res
}

// claim counts occurrences of k in text whose bytes are not already used and
// marks them used. Keywords are claimed longest first, so a keyword nested in
// a longer one is not counted again for the same span.
func claim(text, k string, used []bool) int {
	n := 0
	for pos := 0; pos < len(text); {
		i := strings.Index(text[pos:], k)
		if i < 0 {
			break
		}
		start, end := pos+i, pos+i+len(k)
		if slices.Contains(used[start:end], true) {
			pos = start + 1
			continue
		}
		for j := start; j < end; j++ {
			used[j] = true
		}
		n++
		pos = end
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
