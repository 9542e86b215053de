package i18n

import "strings"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "key" or "path").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	var msg string
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_path":
			msg = "パスが不正です"
		case "invalid_type":
			msg = "型が不正です"
		case "unknown_type":
			msg = "未知のマッピング型です"
		case "duplicate_key":
			msg = "キーが重複しています"
		case "parse_error":
			msg = "解析エラー"
		case "truncated":
			msg = "打ち切られました"
		}
	default: // "en"
		switch code {
		case "invalid_path":
			msg = "invalid path"
		case "invalid_type":
			msg = "invalid type"
		case "unknown_type":
			msg = "unknown mapping type"
		case "duplicate_key":
			msg = "duplicate key"
		case "parse_error":
			msg = "parse error"
		case "truncated":
			msg = "truncated"
		}
	}
	if msg == "" {
		return code
	}
	if v, ok := data["key"]; ok && v != "" {
		msg += " '" + v + "'"
	}
	return msg
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	lang = strings.ToLower(lang)
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
