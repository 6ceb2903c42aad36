package paper

import (
	"regexp"
	"testing"
)

func TestDedupKey_Priority(t *testing.T) {
	tests := []struct {
		name  string
		paper Paper
		want  string
	}{
		{
			name:  "arxiv id wins over doi and title",
			paper: Paper{ArXivID: "2301.12345", DOI: "10.1000/xyz", Title: "Some Title"},
			want:  "arxiv:2301.12345",
		},
		{
			name:  "doi wins when arxiv id is empty",
			paper: Paper{DOI: "10.1000/xyz", Title: "Some Title"},
			want:  "doi:10.1000/xyz",
		},
		{
			name:  "title hash fallback",
			paper: Paper{Title: "Hello, World!"},
			want:  "title:" + TitleHash("hello world"),
		},
		{
			name:  "empty title still yields a key",
			paper: Paper{},
			want:  "title:" + TitleHash(""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DedupKey(tt.paper)
			if got != tt.want {
				t.Errorf("DedupKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTitleHash_CaseAndPunctuationInsensitive(t *testing.T) {
	pairs := [][2]string{
		{"Hello, World!", "hello world"},
		{"Deep   Learning:  A Survey", "deep learning a survey"},
		{"scRNA-seq analysis", "scrnaseq analysis"},
	}

	for _, pair := range pairs {
		if TitleHash(pair[0]) != TitleHash(pair[1]) {
			t.Errorf("TitleHash(%q) != TitleHash(%q)", pair[0], pair[1])
		}
	}
}

func TestTitleHash_Format(t *testing.T) {
	hexPattern := regexp.MustCompile(`^[0-9a-f]{16}$`)

	for _, title := range []string{"", "a", "A Very Long Title With Many Words Indeed"} {
		h := TitleHash(title)
		if !hexPattern.MatchString(h) {
			t.Errorf("TitleHash(%q) = %q, want 16 lowercase hex chars", title, h)
		}
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello world"},
		{"  leading and   trailing  ", "leading and trailing"},
		{"Tabs\tand\nnewlines", "tabs and newlines"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDedupBatch_FirstOccurrenceWins(t *testing.T) {
	papers := []Paper{
		{ArXivID: "X", Title: "A"},
		{ArXivID: "X", Title: "B"},
		{DOI: "10.1/d", Title: "C"},
	}

	got := DedupBatch(papers)
	if len(got) != 2 {
		t.Fatalf("DedupBatch() returned %d papers, want 2", len(got))
	}
	if got[0].Title != "A" {
		t.Errorf("first occurrence title = %q, want %q", got[0].Title, "A")
	}
	if got[0].DedupKey != "arxiv:X" {
		t.Errorf("dedup key = %q, want %q", got[0].DedupKey, "arxiv:X")
	}
	if got[1].DedupKey != "doi:10.1/d" {
		t.Errorf("dedup key = %q, want %q", got[1].DedupKey, "doi:10.1/d")
	}
}

func TestDedupBatch_Idempotent(t *testing.T) {
	papers := []Paper{
		{ArXivID: "X", Title: "A"},
		{DOI: "10.1/d", Title: "C"},
		{Title: "Only a Title"},
	}

	once := DedupBatch(papers)
	twice := DedupBatch(once)

	if len(once) != len(twice) {
		t.Fatalf("second pass changed length: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].DedupKey != twice[i].DedupKey || once[i].Title != twice[i].Title {
			t.Errorf("record %d changed on second pass: %+v vs %+v", i, once[i], twice[i])
		}
	}
}
