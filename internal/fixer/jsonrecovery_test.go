package fixer

import "testing"

func TestParseFixResponseStage1CleanJSON(t *testing.T) {
	raw := `{"original_code":"a = 1","fixed_code":"a = 2","description":"fix","commit_message":"fix: a"}`
	fr, err := ParseFixResponse(raw)
	if err != nil {
		t.Fatalf("ParseFixResponse: %v", err)
	}
	if fr.OriginalCode != "a = 1" || fr.FixedCode != "a = 2" {
		t.Errorf("unexpected parse: %+v", fr)
	}
}

func TestParseFixResponseStage1ArrayCodeFields(t *testing.T) {
	raw := `{"original_code":["line1","line2"],"fixed_code":["line1","line2fixed"],"description":"d","commit_message":"m"}`
	fr, err := ParseFixResponse(raw)
	if err != nil {
		t.Fatalf("ParseFixResponse: %v", err)
	}
	if fr.OriginalCode != "line1\nline2" {
		t.Errorf("expected joined lines, got %q", fr.OriginalCode)
	}
}

func TestParseFixResponseStage2FencedCodeBlock(t *testing.T) {
	raw := "Here is the fix:\n```json\n{\"original_code\":\"x\",\"fixed_code\":\"y\",\"description\":\"d\",\"commit_message\":\"m\"}\n```\nLet me know if you need more."
	fr, err := ParseFixResponse(raw)
	if err != nil {
		t.Fatalf("ParseFixResponse: %v", err)
	}
	if fr.OriginalCode != "x" || fr.FixedCode != "y" {
		t.Errorf("unexpected parse: %+v", fr)
	}
}

func TestParseFixResponseStage3BalancedObjectWithPreamble(t *testing.T) {
	raw := `Sure thing, here's my analysis. {"original_code":"x","fixed_code":"y","description":"d","commit_message":"m"} Hope that helps!`
	fr, err := ParseFixResponse(raw)
	if err != nil {
		t.Fatalf("ParseFixResponse: %v", err)
	}
	if fr.FixedCode != "y" {
		t.Errorf("unexpected parse: %+v", fr)
	}
}

func TestParseFixResponseStage3RepairsRawNewlines(t *testing.T) {
	raw := "{\"original_code\":\"a = 1\",\"fixed_code\":\"a = 1\nb = 2\",\"description\":\"d\",\"commit_message\":\"m\"}"
	fr, err := ParseFixResponse(raw)
	if err != nil {
		t.Fatalf("ParseFixResponse: %v", err)
	}
	if fr.FixedCode != "a = 1\nb = 2" {
		t.Errorf("unexpected parse: %q", fr.FixedCode)
	}
}

func TestParseFixResponseStage4RegexExtractFallback(t *testing.T) {
	raw := `garbage garbage "original_code": "a = 1", garbage "fixed_code": "a = 2", trailing junk without closing brace`
	fr, err := ParseFixResponse(raw)
	if err != nil {
		t.Fatalf("ParseFixResponse: %v", err)
	}
	if fr.OriginalCode != "a = 1" || fr.FixedCode != "a = 2" {
		t.Errorf("unexpected regex-extracted parse: %+v", fr)
	}
}

func TestParseFixResponseUnrecoverable(t *testing.T) {
	if _, err := ParseFixResponse("not json at all and no fields either"); err == nil {
		t.Error("expected an error for unrecoverable garbage")
	}
}

func TestExtractBalancedObjectRespectsStringBoundaries(t *testing.T) {
	raw := `{"a": "contains } a brace", "b": 1}`
	obj, ok := extractBalancedObject(raw)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if obj != raw {
		t.Errorf("expected full object, got %q", obj)
	}
}

func TestUnescapeJSON(t *testing.T) {
	in := `line1\nline2\ttabbed\"quoted\"`
	want := "line1\nline2\ttabbed\"quoted\""
	if got := unescapeJSON(in); got != want {
		t.Errorf("unescapeJSON = %q, want %q", got, want)
	}
}
