package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("invalid_path", nil); msg == "invalid_path" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T("invalid_path", nil); msg == "invalid path" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_KeyData(t *testing.T) {
	msg := T("duplicate_key", map[string]string{"key": "id"})
	if msg != "duplicate key 'id'" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestTranslator_UnknownCodeFallsBack(t *testing.T) {
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("expected code fallback, got %q", msg)
	}
}

type upperTranslator struct{}

func (upperTranslator) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator_CustomAndReset(t *testing.T) {
	SetTranslator(upperTranslator{})
	if msg := T("invalid_type", nil); msg != "X:invalid_type" {
		t.Fatalf("custom translator not used: %q", msg)
	}
	SetTranslator(nil)
	if msg := T("invalid_type", nil); msg != "invalid type" {
		t.Fatalf("expected reset to en, got %q", msg)
	}
}
