package format

import "testing"

func TestEscapeMarkdown(t *testing.T) {
	cases := []struct {
		in      string
		version int
		want    string
	}{
		{"Toyota_Camry *new*", MarkdownV1, `Toyota\_Camry \*new\*`},
		{"[x]`y`", MarkdownV1, "\\[x]\\`y\\`"},
		{"price 1.5 (USD)!", MarkdownV2, `price 1\.5 \(USD\)\!`},
		{"plain", MarkdownV2, "plain"},
	}
	for _, tc := range cases {
		got, err := EscapeMarkdown(tc.in, tc.version)
		if err != nil {
			t.Fatalf("EscapeMarkdown(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("EscapeMarkdown(%q, %d) = %q, want %q", tc.in, tc.version, got, tc.want)
		}
	}
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatal("unknown version must fail")
	}
	if Markdown("a_b") != `a\_b` {
		t.Fatal("Markdown helper must match V1 escaping")
	}
}
