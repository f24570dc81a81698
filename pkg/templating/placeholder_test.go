package templating

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"NoPlaceholders", "plain text", []string{}},
		{"Empty", "", []string{}},
		{"DedupKeepsFirstOrder", "{{b}} {{a}} {{b}}", []string{"b", "a"}},
		{"TrimsWhitespace", "{{ name }} and {{name}}", []string{"name"}},
		{"InnerSpacesKept", "{{ first name }}", []string{"first name"}},
		{"Unclosed", "{{open and {{closed}}", []string{"open and {{closed"}},
		{"SingleBraces", "{not} {{yes}}", []string{"yes"}},
		{"Adjacent", "{{a}}{{b}}{{a}}", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.content)
			if got == nil {
				t.Fatal("Extract() returned nil, want empty slice")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	content := "Dear {{ title }} {{surname}}, re: {{title}}"
	first := Extract(content)
	second := Extract(content)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Extract() not stable: %q vs %q", first, second)
	}
}

func TestRender(t *testing.T) {
	content := "Hello {{name}}, you owe {{amount}}"

	got, err := Render(content, map[string]string{"name": "Alice", "amount": "42"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if want := "Hello Alice, you owe 42"; got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}

	got, err = Render(content, map[string]string{"name": "Alice"})
	if !errors.Is(err, ErrMissingVariable) {
		t.Fatalf("Render() error = %v, want ErrMissingVariable", err)
	}
	var mv *MissingVariableError
	if !errors.As(err, &mv) || mv.Name != "amount" {
		t.Errorf("expected missing variable 'amount', got %v", err)
	}
	if got != "" {
		t.Errorf("Render() returned partial output %q on failure", got)
	}
}

func TestRenderEdgeCases(t *testing.T) {
	t.Run("TrimmedNames", func(t *testing.T) {
		got, err := Render("[{{  x  }}]", map[string]string{"x": "1"})
		if err != nil || got != "[1]" {
			t.Errorf("Render() = %q, %v; want \"[1]\", nil", got, err)
		}
	})

	t.Run("NotRecursive", func(t *testing.T) {
		got, err := Render("{{a}}", map[string]string{"a": "{{b}}"})
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if got != "{{b}}" {
			t.Errorf("Render() = %q, want value substituted verbatim", got)
		}
	})

	t.Run("NoPlaceholders", func(t *testing.T) {
		got, err := Render("nothing here", nil)
		if err != nil || got != "nothing here" {
			t.Errorf("Render() = %q, %v", got, err)
		}
	})

	t.Run("RepeatedPlaceholder", func(t *testing.T) {
		got, err := Render("{{w}}-{{w}}-{{w}}", map[string]string{"w": "go"})
		if err != nil || got != "go-go-go" {
			t.Errorf("Render() = %q, %v", got, err)
		}
	})

	t.Run("FirstMissingReported", func(t *testing.T) {
		_, err := Render("{{a}} {{b}} {{c}}", map[string]string{"b": ""})
		var mv *MissingVariableError
		if !errors.As(err, &mv) || mv.Name != "a" {
			t.Errorf("expected 'a' reported first, got %v", err)
		}
	})

	t.Run("ExtraVariablesIgnored", func(t *testing.T) {
		got, err := Render("{{a}}", map[string]string{"a": "1", "unused": "2"})
		if err != nil || got != "1" {
			t.Errorf("Render() = %q, %v", got, err)
		}
	})
}

func TestMissing(t *testing.T) {
	got := Missing("{{a}} {{b}} {{c}} {{a}}", map[string]string{"b": "x"})
	if want := []string{"a", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Missing() = %q, want %q", got, want)
	}
	if got := Missing("{{a}}", map[string]string{"a": ""}); len(got) != 0 {
		t.Errorf("Missing() = %q, want none", got)
	}
}

func TestStringify(t *testing.T) {
	var decoded map[string]any
	dec := json.NewDecoder(strings.NewReader(`{"n": 42, "f": 1.50, "b": true, "s": "x", "z": null, "l": [1, "a"], "o": {"k": 1}}`))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := map[string]string{
		"n": "42",
		"f": "1.50",
		"b": "true",
		"s": "x",
		"z": "",
		"l": `[1,"a"]`,
		"o": `{"k":1}`,
	}
	got := StringifyAll(decoded)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StringifyAll() = %v, want %v", got, want)
	}

	if s := Stringify(float64(42)); s != "42" {
		t.Errorf("Stringify(float64(42)) = %q, want \"42\"", s)
	}
	if s := Stringify(0.25); s != "0.25" {
		t.Errorf("Stringify(0.25) = %q", s)
	}
}
