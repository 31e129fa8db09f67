package config

import (
	"testing"
)

func TestParse_YAMLFile(t *testing.T) {
	result := Parse("testdata/valid.yaml")

	if !result.IsValid() {
		t.Fatalf("expected valid result, got parse=%v validation=%v", result.ParseErrors, result.ValidationErrors)
	}
	if result.Format != FormatYAML {
		t.Errorf("expected format %q, got %q", FormatYAML, result.Format)
	}
	catalog, ok := result.Data["catalog"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected catalog to be a map, got %T", result.Data["catalog"])
	}
	if catalog["layout"] != "legacy" {
		t.Errorf("expected catalog.layout legacy, got %v", catalog["layout"])
	}
}

func TestParse_JSONFile(t *testing.T) {
	result := Parse("testdata/valid.json")

	if !result.IsValid() {
		t.Fatalf("expected valid result, got parse=%v validation=%v", result.ParseErrors, result.ValidationErrors)
	}
	if result.Format != FormatJSON {
		t.Errorf("expected format %q, got %q", FormatJSON, result.Format)
	}
}

func TestParse_SyntaxError(t *testing.T) {
	result := Parse("testdata/invalid-syntax.json")

	if result.IsValid() {
		t.Fatal("expected parsing to fail")
	}
	if len(result.ParseErrors) == 0 {
		t.Fatal("expected at least one parse error")
	}
	err := result.ParseErrors[0]
	if err.Type != ErrorTypeSyntax {
		t.Errorf("expected error type %q, got %q", ErrorTypeSyntax, err.Type)
	}
	if err.Line == 0 {
		t.Error("expected a line number for a JSON syntax error")
	}
	if err.Path != "testdata/invalid-syntax.json" {
		t.Errorf("expected path to be filled in, got %q", err.Path)
	}
	if len(result.ValidationErrors) != 0 {
		t.Errorf("validation should not run after a parse error, got %v", result.ValidationErrors)
	}
}

func TestParse_MissingFile(t *testing.T) {
	result := Parse("testdata/does-not-exist.yaml")

	if result.IsValid() {
		t.Fatal("expected an error for a missing file")
	}
	if result.ParseErrors[0].Type != ErrorTypeIO {
		t.Errorf("expected error type %q, got %q", ErrorTypeIO, result.ParseErrors[0].Type)
	}
}

func TestParseString_DetectsFormat(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"json object", `{"server": {"port": 4000}}`, FormatJSON},
		{"yaml mapping", "server:\n  port: 4000\n", FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseString(tt.content, "")
			if !result.IsValid() {
				t.Fatalf("expected valid result, got parse=%v validation=%v", result.ParseErrors, result.ValidationErrors)
			}
			if result.Format != tt.want {
				t.Errorf("expected format %q, got %q", tt.want, result.Format)
			}
		})
	}
}

func TestParseString_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		format   string
		wantType string
	}{
		{"empty content", "   ", "", ErrorTypeFormat},
		{"unsupported format", "a = 1", "toml", ErrorTypeFormat},
		{"top-level array", `[1, 2]`, FormatJSON, ErrorTypeFormat},
		{"yaml scalar", "just a string", FormatYAML, ErrorTypeFormat},
		{"unclosed yaml sequence", "server: [4000\n", FormatYAML, ErrorTypeSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseString(tt.content, tt.format)
			if len(result.ParseErrors) == 0 {
				t.Fatal("expected a parse error")
			}
			if got := result.ParseErrors[0].Type; got != tt.wantType {
				t.Errorf("expected error type %q, got %q (%s)", tt.wantType, got, result.ParseErrors[0].Message)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]string{
		"filmdb.json": FormatJSON,
		"filmdb.JSON": FormatJSON,
		"filmdb.yaml": FormatYAML,
		"filmdb.yml":  FormatYAML,
		"filmdb.conf": "",
		"filmdb":      "",
	}
	for path, want := range tests {
		if got := DetectFormat(path); got != want {
			t.Errorf("DetectFormat(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestOffsetToLineColumn(t *testing.T) {
	content := "{\n  \"a\": 1,\n}"
	line, col := offsetToLineColumn(content, 12)
	if line != 3 || col != 1 {
		t.Errorf("expected line 3 column 1, got line %d column %d", line, col)
	}
}

func TestParseError_Error(t *testing.T) {
	err := ParseError{Path: "filmdb.json", Line: 4, Column: 2, Message: "invalid character"}
	want := "filmdb.json: line 4, column 2: invalid character"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
