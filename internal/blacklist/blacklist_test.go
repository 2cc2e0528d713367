package blacklist

import (
	"testing"

	"boorugram/internal/models"
)

func post(rating string, scoreTotal int, uploaderID int64, tags ...string) models.Post {
	return models.Post{
		Rating:     rating,
		Score:      models.PostScore{Total: scoreTotal},
		UploaderID: uploaderID,
		Tags:       models.PostTags{General: tags},
	}
}

func TestLineMatchesAllTerms(t *testing.T) {
	line, err := ParseLine("gore rating:e")
	if err != nil {
		t.Fatalf("failed to parse line: %v", err)
	}

	explicit := post("e", 0, 1, "gore", "solo")
	if !line.Matches(&explicit) {
		t.Fatalf("expected explicit gore post to match")
	}

	safe := post("s", 0, 1, "gore")
	if line.Matches(&safe) {
		t.Fatalf("expected safe post not to match: rating term must also hold")
	}

	noTag := post("e", 0, 1, "solo")
	if line.Matches(&noTag) {
		t.Fatalf("expected post without the tag not to match")
	}
}

func TestLineNegation(t *testing.T) {
	line, err := ParseLine("wolf -solo")
	if err != nil {
		t.Fatalf("failed to parse line: %v", err)
	}

	group := post("s", 0, 1, "wolf", "group")
	if !line.Matches(&group) {
		t.Fatalf("expected non-solo wolf post to match")
	}

	solo := post("s", 0, 1, "wolf", "solo")
	if line.Matches(&solo) {
		t.Fatalf("expected solo post to be exempt via negation")
	}
}

func TestScoreComparisons(t *testing.T) {
	cases := []struct {
		line  string
		score int
		want  bool
	}{
		{"score:<0", -5, true},
		{"score:<0", 0, false},
		{"score:>=100", 100, true},
		{"score:>=100", 99, false},
		{"score:=5", 5, true},
		{"score:=5", 6, false},
	}

	for _, tc := range cases {
		line, err := ParseLine(tc.line)
		if err != nil {
			t.Fatalf("failed to parse %q: %v", tc.line, err)
		}

		p := post("s", tc.score, 1)
		if got := line.Matches(&p); got != tc.want {
			t.Fatalf("%q with score %d: got %v want %v", tc.line, tc.score, got, tc.want)
		}
	}
}

func TestRatingLongForms(t *testing.T) {
	line, err := ParseLine("rating:explicit")
	if err != nil {
		t.Fatalf("failed to parse line: %v", err)
	}

	explicit := post("e", 0, 1)
	if !line.Matches(&explicit) {
		t.Fatalf("expected rating:explicit to match rating e")
	}

	if _, err = ParseLine("rating:x"); err == nil {
		t.Fatalf("expected unknown rating to be rejected")
	}
}

func TestUserTermMatchesUploader(t *testing.T) {
	line, err := ParseLine("user:77")
	if err != nil {
		t.Fatalf("failed to parse line: %v", err)
	}

	mine := post("s", 0, 77)
	if !line.Matches(&mine) {
		t.Fatalf("expected uploader 77 to match")
	}

	other := post("s", 0, 78)
	if line.Matches(&other) {
		t.Fatalf("expected uploader 78 not to match")
	}
}

func TestFilterHidesOnAnyLine(t *testing.T) {
	filter, err := NewFilter([]string{"gore", "rating:e young"})
	if err != nil {
		t.Fatalf("failed to build filter: %v", err)
	}

	posts := []models.Post{
		post("s", 0, 1, "wolf"),
		post("s", 0, 1, "gore"),
		post("e", 0, 1, "young"),
		post("s", 0, 1, "young"),
	}

	allowed := filter.Apply(posts)
	if len(allowed) != 2 {
		t.Fatalf("expected 2 allowed posts, got %d", len(allowed))
	}
	if allowed[0].AllTags()[0] != "wolf" || allowed[1].AllTags()[0] != "young" {
		t.Fatalf("unexpected filtering result: %+v", allowed)
	}
}

func TestFilterSkipsMalformedLines(t *testing.T) {
	filter, err := NewFilter([]string{"gore", "score:abc", ""})
	if err == nil {
		t.Fatalf("expected joined parse error for malformed line")
	}

	// The valid line must still work.
	gory := post("s", 0, 1, "gore")
	if filter.Allowed(&gory) {
		t.Fatalf("expected valid line to survive a malformed neighbor")
	}
}

func TestEmptyFilterAllowsEverything(t *testing.T) {
	filter, err := NewFilter(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !filter.Empty() {
		t.Fatalf("expected empty filter")
	}

	p := post("e", -100, 1, "gore")
	if !filter.Allowed(&p) {
		t.Fatalf("expected empty filter to allow everything")
	}
}
