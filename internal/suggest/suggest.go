package suggest

import (
	"math"
	"sort"
	"strings"
	"sync"

	"boorugram/internal/models"
)

const (
	defaultMaxEntries = 5000

	exactMatchBonus  = 1000.0
	prefixMatchBonus = 10.0
	usageBoostWeight = 5.0
	operatorScore    = 50.0

	maxTrackedUsage = 1000
)

// Metatag operators offered when the trailing term looks like one.
var operators = []Suggestion{
	{Term: "rating:", Detail: "filter by rating (s, q, e)"},
	{Term: "order:", Detail: "sort results (score, favcount, random, ...)"},
	{Term: "score:", Detail: "filter by score (score:>=100)"},
	{Term: "fav:", Detail: "posts favorited by a user"},
	{Term: "type:", Detail: "filter by file type (png, gif, webm)"},
	{Term: "pool:", Detail: "posts in a pool"},
	{Term: "user:", Detail: "posts uploaded by a user"},
}

type Suggestion struct {
	// Term is the completed trailing term; Completed is the full query
	// with the trailing term replaced.
	Term      string
	Completed string
	Detail    string
	Score     float64
}

type entry struct {
	name      string
	category  int
	postCount int64
}

// Index ranks tag completions for a partially typed search query. Tags
// come from the board's tag listing; queries the user actually ran add
// a recency boost on top of raw popularity.
type Index struct {
	mu         sync.RWMutex
	entries    []entry
	maxEntries int
	usage      map[string]int
}

func NewIndex(maxEntries int) *Index {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	return &Index{
		maxEntries: maxEntries,
		usage:      make(map[string]int),
	}
}

// Load replaces the tag index, keeping the most-used tags when the
// input exceeds the cap.
func (ix *Index) Load(tags []models.Tag) {
	sorted := make([]models.Tag, len(tags))
	copy(sorted, tags)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PostCount > sorted[j].PostCount
	})

	if len(sorted) > ix.maxEntries {
		sorted = sorted[:ix.maxEntries]
	}

	entries := make([]entry, 0, len(sorted))
	for _, t := range sorted {
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if name == "" {
			continue
		}

		entries = append(entries, entry{
			name:      name,
			category:  t.Category,
			postCount: t.PostCount,
		})
	}

	ix.mu.Lock()
	ix.entries = entries
	ix.mu.Unlock()
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return len(ix.entries)
}

// RecordQuery bumps the usage counter of every plain tag in a query the
// user ran, so repeated searches surface their tags earlier.
func (ix *Index) RecordQuery(query string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, raw := range strings.Fields(query) {
		tag := normalizeTerm(raw)
		if tag == "" {
			continue
		}

		ix.usage[tag]++
	}

	// Bounded: forget the least-used half when the map outgrows its cap.
	if len(ix.usage) > maxTrackedUsage {
		ix.shrinkUsageLocked()
	}
}

func (ix *Index) shrinkUsageLocked() {
	type kv struct {
		tag   string
		count int
	}

	all := make([]kv, 0, len(ix.usage))
	for tag, count := range ix.usage {
		all = append(all, kv{tag, count})
	}

	sort.Slice(all, func(i, j int) bool { return all[i].count > all[j].count })

	ix.usage = make(map[string]int, maxTrackedUsage/2)
	for _, item := range all[:maxTrackedUsage/2] {
		ix.usage[item.tag] = item.count
	}
}

// normalizeTerm strips negation and skips metatag operators.
func normalizeTerm(raw string) string {
	term := strings.ToLower(strings.TrimSpace(raw))
	term = strings.TrimPrefix(term, "-")

	if term == "" || strings.Contains(term, ":") {
		return ""
	}

	return term
}

// Suggest completes the trailing term of input. A leading "-" on the
// trailing term is preserved in the completed query.
func (ix *Index) Suggest(input string, limit int) []Suggestion {
	if limit <= 0 {
		return nil
	}

	head, tail := splitTrailingTerm(input)

	negated := false
	if rest, ok := strings.CutPrefix(tail, "-"); ok {
		negated = true
		tail = rest
	}

	tail = strings.ToLower(tail)
	if tail == "" {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	suggestions := ix.operatorSuggestions(head, tail, negated)
	for _, e := range ix.entries {
		score, ok := ix.scoreEntry(e, tail)
		if !ok {
			continue
		}

		suggestions = append(suggestions, Suggestion{
			Term:      e.name,
			Completed: completeQuery(head, e.name, negated),
			Score:     score,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Term < suggestions[j].Term
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}

	return suggestions
}

// scoreEntry ranks a candidate: exact name first, then prefix matches,
// then substring matches, weighted by popularity and recent usage.
func (ix *Index) scoreEntry(e entry, tail string) (float64, bool) {
	var score float64

	switch {
	case e.name == tail:
		score = exactMatchBonus
	case strings.HasPrefix(e.name, tail):
		score = prefixMatchBonus
	case strings.Contains(e.name, tail):
		score = 0
	default:
		return 0, false
	}

	score += math.Log10(float64(e.postCount) + 1)
	score += usageBoostWeight * float64(ix.usage[e.name])

	return score, true
}

// operatorSuggestions offers metatag completions once at least three
// characters of an operator name are typed, so single letters still
// suggest ordinary tags first.
func (ix *Index) operatorSuggestions(
	head string,
	tail string,
	negated bool,
) []Suggestion {
	if len(tail) < 3 || strings.Contains(tail, ":") {
		return nil
	}

	var suggestions []Suggestion

	for _, op := range operators {
		if !strings.HasPrefix(op.Term, tail) {
			continue
		}

		s := op
		s.Completed = completeQuery(head, op.Term, negated)
		s.Score = operatorScore
		suggestions = append(suggestions, s)
	}

	return suggestions
}

func splitTrailingTerm(input string) (string, string) {
	trimmed := strings.TrimLeft(input, " ")

	idx := strings.LastIndex(trimmed, " ")
	if idx < 0 {
		return "", strings.TrimSpace(trimmed)
	}

	return strings.TrimSpace(trimmed[:idx]), strings.TrimSpace(trimmed[idx+1:])
}

func completeQuery(head string, term string, negated bool) string {
	if negated {
		term = "-" + term
	}

	if head == "" {
		return term
	}

	return head + " " + term
}
