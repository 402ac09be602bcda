package extract

import (
	"errors"
	"strings"
	"testing"

	"speech-batch-transcriber/internal/models"
)

func strPtr(s string) *string { return &s }

func scenarioA() *models.ResultDocument {
	return &models.ResultDocument{
		Results: &models.ResultsSection{
			Transcripts: []models.TranscriptSegment{{Transcript: "hello world."}},
			Items: []models.WordItem{
				{
					Type:         models.ItemPronunciation,
					StartTime:    strPtr("0.0"),
					EndTime:      strPtr("0.5"),
					Alternatives: []models.Alternative{{Content: "hello", Confidence: "0.98"}},
				},
				{
					Type:         models.ItemPronunciation,
					StartTime:    strPtr("0.5"),
					EndTime:      strPtr("1.0"),
					Alternatives: []models.Alternative{{Content: "world", Confidence: "0.95"}},
				},
				{
					Type:         models.ItemPunctuation,
					Alternatives: []models.Alternative{{Content: ".", Confidence: "0.99"}},
				},
			},
		},
	}
}

type collector struct {
	errs []error
}

func (c *collector) Warn(err error) { c.errs = append(c.errs, err) }

func TestTranscript_ScenarioA(t *testing.T) {
	got := Transcript(scenarioA())
	if got != "hello world.\n" {
		t.Errorf("Transcript() = %q, want %q", got, "hello world.\n")
	}
}

func TestTimestamped_ScenarioA(t *testing.T) {
	got := Timestamped(scenarioA(), nil)
	want := "0.0 0.5 0.98 hello\n0.5 1.0 0.95 world\n0 0 0.99 .\n"
	if got != want {
		t.Errorf("Timestamped() = %q, want %q", got, want)
	}
}

func TestNoResults_EmptyOutput(t *testing.T) {
	docs := []*models.ResultDocument{
		nil,
		{},
		{JobName: "job-1", Status: models.StatusInProgress},
	}

	for _, doc := range docs {
		if got := Transcript(doc); got != "" {
			t.Errorf("Transcript() = %q, want empty", got)
		}
		if got := Timestamped(doc, nil); got != "" {
			t.Errorf("Timestamped() = %q, want empty", got)
		}
		if got := Words(doc); got != "" {
			t.Errorf("Words() = %q, want empty", got)
		}
	}
}

func TestTranscript_MultipleSegmentsNoNormalization(t *testing.T) {
	doc := &models.ResultDocument{
		Results: &models.ResultsSection{
			Transcripts: []models.TranscriptSegment{
				{Transcript: "  first  block "},
				{Transcript: ""},
				{Transcript: "first  block"},
			},
		},
	}

	want := "  first  block \n\nfirst  block\n"
	if got := Transcript(doc); got != want {
		t.Errorf("Transcript() = %q, want %q", got, want)
	}
}

func TestTranscript_Idempotent(t *testing.T) {
	doc := scenarioA()
	first := Transcript(doc)
	for i := 0; i < 5; i++ {
		if got := Transcript(doc); got != first {
			t.Fatalf("run %d: Transcript() = %q, want %q", i, got, first)
		}
	}
}

func TestTimestamped_LineCountMatchesItems(t *testing.T) {
	tests := []struct {
		name  string
		items int
	}{
		{"empty", 0},
		{"one", 1},
		{"many", 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &models.ResultDocument{Results: &models.ResultsSection{}}
			for i := 0; i < tt.items; i++ {
				doc.Results.Items = append(doc.Results.Items, models.WordItem{
					Type:         models.ItemPronunciation,
					Alternatives: []models.Alternative{{Content: "w", Confidence: "1.0"}},
				})
			}

			out := Timestamped(doc, nil)
			if got := strings.Count(out, "\n"); got != tt.items {
				t.Errorf("expected %d lines, got %d", tt.items, got)
			}
		})
	}
}

func TestTimestamped_MissingTimesDefaultToZero(t *testing.T) {
	doc := &models.ResultDocument{
		Results: &models.ResultsSection{
			Items: []models.WordItem{
				{Type: models.ItemPronunciation, StartTime: strPtr("1.5"), Alternatives: []models.Alternative{{Content: "a", Confidence: "0.5"}}},
				{Type: models.ItemPronunciation, EndTime: strPtr("2.5"), Alternatives: []models.Alternative{{Content: "b", Confidence: "0.6"}}},
				{Type: models.ItemPronunciation, StartTime: strPtr(""), EndTime: strPtr(""), Alternatives: []models.Alternative{{Content: "c", Confidence: "0.7"}}},
			},
		},
	}

	want := "1.5 0 0.5 a\n0 2.5 0.6 b\n  0.7 c\n"
	if got := Timestamped(doc, nil); got != want {
		t.Errorf("Timestamped() = %q, want %q", got, want)
	}
}

func TestTimestamped_UsesFirstAlternative(t *testing.T) {
	doc := &models.ResultDocument{
		Results: &models.ResultsSection{
			Items: []models.WordItem{{
				Type:      models.ItemPronunciation,
				StartTime: strPtr("0.1"),
				EndTime:   strPtr("0.2"),
				Alternatives: []models.Alternative{
					{Content: "their", Confidence: "0.61"},
					{Content: "there", Confidence: "0.39"},
				},
			}},
		},
	}

	if got := Timestamped(doc, nil); got != "0.1 0.2 0.61 their\n" {
		t.Errorf("Timestamped() = %q", got)
	}
}

func TestTimestamped_ContentWithSpacesIsNotEscaped(t *testing.T) {
	doc := &models.ResultDocument{
		Results: &models.ResultsSection{
			Items: []models.WordItem{{
				Type:         models.ItemPronunciation,
				Alternatives: []models.Alternative{{Content: "New York", Confidence: "0.9"}},
			}},
		},
	}

	if got := Timestamped(doc, nil); got != "0 0 0.9 New York\n" {
		t.Errorf("Timestamped() = %q", got)
	}
}

func TestTimestamped_MissingAlternative_ScenarioD(t *testing.T) {
	doc := scenarioA()
	doc.Results.Items = append(doc.Results.Items[:1], append([]models.WordItem{
		{Type: models.ItemPronunciation, StartTime: strPtr("0.5"), EndTime: strPtr("0.6")},
	}, doc.Results.Items[1:]...)...)

	c := &collector{}
	got := Timestamped(doc, c)

	want := "0.0 0.5 0.98 hello\n0.5 1.0 0.95 world\n0 0 0.99 .\n"
	if got != want {
		t.Errorf("Timestamped() = %q, want %q", got, want)
	}
	if len(c.errs) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(c.errs))
	}
	if !errors.Is(c.errs[0], ErrMissingAlternative) {
		t.Errorf("expected ErrMissingAlternative, got %v", c.errs[0])
	}

	var mae *MissingAlternativeError
	if !errors.As(c.errs[0], &mae) {
		t.Fatal("expected *MissingAlternativeError")
	}
	if mae.Index != 1 {
		t.Errorf("expected index 1, got %d", mae.Index)
	}
}

func TestTimestamped_NilReporterDoesNotPanic(t *testing.T) {
	doc := &models.ResultDocument{
		Results: &models.ResultsSection{Items: []models.WordItem{{Type: models.ItemPunctuation}}},
	}
	if got := Timestamped(doc, nil); got != "" {
		t.Errorf("Timestamped() = %q, want empty", got)
	}
}

func TestReporterFunc(t *testing.T) {
	var got error
	r := ReporterFunc(func(err error) { got = err })

	doc := &models.ResultDocument{
		Results: &models.ResultsSection{Items: []models.WordItem{{Type: models.ItemPronunciation}}},
	}
	Records(doc, r)

	if !errors.Is(got, ErrMissingAlternative) {
		t.Errorf("expected ErrMissingAlternative, got %v", got)
	}
}

func TestRecords(t *testing.T) {
	lines := Records(scenarioA(), nil)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[2] != (Line{StartTime: "0", EndTime: "0", Confidence: "0.99", Content: "."}) {
		t.Errorf("unexpected punctuation line %+v", lines[2])
	}
	if lines[0].String() != "0.0 0.5 0.98 hello" {
		t.Errorf("unexpected line %q", lines[0].String())
	}
}

// stripPunctuation removes punctuation and collapses the spacing around it.
func stripPunctuation(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(".,?!;:", r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func TestWords_ReconstructsTranscript(t *testing.T) {
	tests := []struct {
		name string
		doc  *models.ResultDocument
	}{
		{"scenario A", scenarioA()},
		{"comma inside", &models.ResultDocument{Results: &models.ResultsSection{
			Transcripts: []models.TranscriptSegment{{Transcript: "yes, please go ahead."}},
			Items: []models.WordItem{
				{Type: models.ItemPronunciation, Alternatives: []models.Alternative{{Content: "yes", Confidence: "0.9"}}},
				{Type: models.ItemPunctuation, Alternatives: []models.Alternative{{Content: ",", Confidence: "0.0"}}},
				{Type: models.ItemPronunciation, Alternatives: []models.Alternative{{Content: "please", Confidence: "0.9"}}},
				{Type: models.ItemPronunciation, Alternatives: []models.Alternative{{Content: "go", Confidence: "0.9"}}},
				{Type: models.ItemPronunciation, Alternatives: []models.Alternative{{Content: "ahead", Confidence: "0.9"}}},
				{Type: models.ItemPunctuation, Alternatives: []models.Alternative{{Content: ".", Confidence: "0.0"}}},
			},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transcript := tt.doc.Results.Transcripts[0].Transcript
			if got, want := Words(tt.doc), stripPunctuation(transcript); got != want {
				t.Errorf("Words() = %q, want %q", got, want)
			}
		})
	}
}
