package wire

import "testing"

func TestSplitRoundTrip(t *testing.T) {
	chunk, err := EncodeToolBlock(ToolBlock{
		Tool: "journal_prompt",
		Data: map[string]any{"bullets": []any{"a", "b"}},
	})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	prose, block := Split("Here is a thought." + chunk)
	if prose != "Here is a thought." {
		t.Fatalf("prose mismatch: %q", prose)
	}
	if block == nil {
		t.Fatalf("expected tool block")
	}
	if block.Tool != "journal_prompt" {
		t.Fatalf("tool mismatch: %q", block.Tool)
	}
	bullets, ok := block.Data["bullets"].([]any)
	if !ok || len(bullets) != 2 || bullets[0] != "a" || bullets[1] != "b" {
		t.Fatalf("data mismatch: %+v", block.Data)
	}
}

func TestSplitNoMarker(t *testing.T) {
	prose, block := Split("just prose, nothing else")
	if prose != "just prose, nothing else" {
		t.Fatalf("prose mismatch: %q", prose)
	}
	if block != nil {
		t.Fatalf("unexpected tool block: %+v", block)
	}
}

func TestSplitInvalidJSONFallsBackToProse(t *testing.T) {
	body := "some reply" + Marker + "{not json"
	prose, block := Split(body)
	if block != nil {
		t.Fatalf("unexpected tool block: %+v", block)
	}
	if prose != body {
		t.Fatalf("expected whole body as prose, got %q", prose)
	}
}

func TestSplitEmptyToolNameFallsBackToProse(t *testing.T) {
	body := "reply" + Marker + `{"data":{}}`
	prose, block := Split(body)
	if block != nil {
		t.Fatalf("unexpected tool block: %+v", block)
	}
	if prose != body {
		t.Fatalf("expected whole body as prose, got %q", prose)
	}
}
