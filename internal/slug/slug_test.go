package slug

import (
	"fmt"
	"math/rand"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"punctuation is dropped", "Hello, World!", "hello-world"},
		{"empty input", "", ""},
		{"only symbols", "!!!", ""},
		{"runs of spaces and hyphens collapse", "GPT -- 4   Turbo", "gpt-4-turbo"},
		{"leading and trailing hyphens trimmed", "--Copilot--", "copilot"},
		{"surrounding whitespace trimmed", "  Cursor  ", "cursor"},
		{"digits kept", "Midjourney V6", "midjourney-v6"},
		{"dropped symbol does not split a word", "Notion.ai", "notionai"},
		{"symbol between spaces leaves one hyphen", "Sales & CRM", "sales-crm"},
		{"non-ascii letters dropped", "Café Über", "caf-ber"},
		{"tabs and newlines are whitespace", "a\tb\nc", "a-b-c"},
		{"non-breaking space is whitespace", "a\u00a0b", "a-b"},
		{"next-line control is not whitespace", "a\u0085b", "ab"},
		{"byte-order mark is whitespace", "\ufeffa\ufeffb", "a-b"},
		{"en quad to hair space are whitespace", "a\u2000b\u200ac", "a-b-c"},
		{"zero width space is not whitespace", "a\u200bb", "ab"},
		{"ideographic space is whitespace", "a\u3000b", "a-b"},
		{"already a slug", "design-ui-ux", "design-ui-ux"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.in); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	inputs := []string{
		"Hello, World!",
		"  --A  b--c  ",
		"ÀÉÎ õü 123",
		"Design & UI/UX",
		"",
		"-",
		"a--b",
	}

	// a few random strings over an alphabet heavy in separators
	alphabet := []rune("aZ9 -_!.\t é")
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := rng.Intn(20)
		rs := make([]rune, n)
		for j := range rs {
			rs[j] = alphabet[rng.Intn(len(alphabet))]
		}
		inputs = append(inputs, string(rs))
	}

	for _, in := range inputs {
		once := Generate(in)
		if twice := Generate(once); twice != once {
			t.Errorf("Generate(Generate(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestUnique(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		existing []string
		want     string
	}{
		{"no collision", "foo", nil, "foo"},
		{"empty existing set", "foo", []string{}, "foo"},
		{"first collision appends 1", "foo", []string{"foo"}, "foo1"},
		{"skips taken counters", "foo", []string{"foo", "foo1"}, "foo2"},
		{"no separator before counter", "gpt-4", []string{"gpt-4"}, "gpt-41"},
		{"gap in counters is reused", "foo", []string{"foo", "foo2"}, "foo1"},
		{"unrelated slugs ignored", "foo", []string{"bar", "foo1"}, "foo"},
		{"duplicates in existing are fine", "foo", []string{"foo", "foo", "foo1"}, "foo2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unique(tt.base, tt.existing); got != tt.want {
				t.Errorf("Unique(%q, %v) = %q, want %q", tt.base, tt.existing, got, tt.want)
			}
		})
	}
}

func TestUnique_NeverReturnsExisting(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		base := fmt.Sprintf("tool%d", rng.Intn(3))
		existing := []string{base}
		for j := 0; j < rng.Intn(30); j++ {
			existing = append(existing, fmt.Sprintf("%s%d", base, rng.Intn(40)))
		}

		got := Unique(base, existing)
		for _, s := range existing {
			if got == s {
				t.Fatalf("Unique(%q, %v) = %q, which is already taken", base, existing, got)
			}
		}
	}
}
