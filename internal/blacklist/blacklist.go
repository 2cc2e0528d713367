package blacklist

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"boorugram/internal/models"
)

// A Line is one blacklist expression: space-separated terms that must
// all match a post for the line to hide it. Supported terms are plain
// tags, "-" negation, rating:x, user:<uploader id> and score
// comparisons (score:<0, score:>=100, score:=5).

type termKind int

const (
	termTag termKind = iota
	termRating
	termUser
	termScore
)

type term struct {
	kind   termKind
	negate bool
	value  string
	cmp    string
	n      int
}

type Line struct {
	raw   string
	terms []term
}

func (l Line) String() string {
	return l.raw
}

func ParseLine(raw string) (Line, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Line{}, errors.New("blacklist line is empty")
	}

	line := Line{raw: raw}

	for _, field := range strings.Fields(raw) {
		t, err := parseTerm(field)
		if err != nil {
			return Line{}, fmt.Errorf("parse term %q: %w", field, err)
		}

		line.terms = append(line.terms, t)
	}

	return line, nil
}

func parseTerm(field string) (term, error) {
	var t term

	if rest, ok := strings.CutPrefix(field, "-"); ok {
		if rest == "" {
			return t, errors.New("dangling negation")
		}
		t.negate = true
		field = rest
	}

	key, value, found := strings.Cut(field, ":")
	if !found {
		t.kind = termTag
		t.value = strings.ToLower(field)
		return t, nil
	}

	switch key {
	case "rating":
		value = strings.ToLower(value)
		// The site accepts long forms too.
		switch value {
		case "safe":
			value = "s"
		case "questionable":
			value = "q"
		case "explicit":
			value = "e"
		case "s", "q", "e":
		default:
			return t, fmt.Errorf("unknown rating %q", value)
		}
		t.kind = termRating
		t.value = value

	case "user":
		if value == "" {
			return t, errors.New("empty user")
		}
		t.kind = termUser
		t.value = value

	case "score":
		cmp := "="
		for _, op := range []string{"<=", ">=", "<", ">", "="} {
			if rest, ok := strings.CutPrefix(value, op); ok {
				cmp = op
				value = rest
				break
			}
		}

		n, err := strconv.Atoi(value)
		if err != nil {
			return t, fmt.Errorf("parse score bound: %w", err)
		}

		t.kind = termScore
		t.cmp = cmp
		t.n = n

	default:
		// Unknown metatags fall back to literal tag matching, the same
		// way the site treats them in blacklists.
		t.kind = termTag
		t.value = strings.ToLower(field)
	}

	return t, nil
}

// Matches reports whether every term of the line applies to the post.
func (l Line) Matches(p *models.Post) bool {
	if len(l.terms) == 0 {
		return false
	}

	for _, t := range l.terms {
		if t.matches(p) == t.negate {
			return false
		}
	}

	return true
}

func (t term) matches(p *models.Post) bool {
	switch t.kind {
	case termRating:
		return strings.EqualFold(p.Rating, t.value)

	case termUser:
		return strconv.FormatInt(p.UploaderID, 10) == t.value

	case termScore:
		switch t.cmp {
		case "<":
			return p.Score.Total < t.n
		case "<=":
			return p.Score.Total <= t.n
		case ">":
			return p.Score.Total > t.n
		case ">=":
			return p.Score.Total >= t.n
		default:
			return p.Score.Total == t.n
		}

	default:
		for _, tag := range p.AllTags() {
			if tag == t.value {
				return true
			}
		}
		return false
	}
}

// Filter hides a post when any of its lines matches.
type Filter struct {
	lines []Line
}

// NewFilter parses the given expression lines. Malformed lines are
// skipped and reported joined, so one bad entry never disables the rest
// of the blacklist.
func NewFilter(rawLines []string) (Filter, error) {
	var (
		f    Filter
		errs []error
	)

	for _, raw := range rawLines {
		if strings.TrimSpace(raw) == "" {
			continue
		}

		line, err := ParseLine(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		f.lines = append(f.lines, line)
	}

	return f, errors.Join(errs...)
}

func (f Filter) Empty() bool {
	return len(f.lines) == 0
}

func (f Filter) Allowed(p *models.Post) bool {
	for _, line := range f.lines {
		if line.Matches(p) {
			return false
		}
	}

	return true
}

// Apply returns only the posts the filter allows, preserving order.
func (f Filter) Apply(posts []models.Post) []models.Post {
	if f.Empty() {
		return posts
	}

	allowed := make([]models.Post, 0, len(posts))
	for i := range posts {
		if f.Allowed(&posts[i]) {
			allowed = append(allowed, posts[i])
		}
	}

	return allowed
}
