package i18n

import "sync"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "type" or "segment").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_value":
			return "宣言された型に変換できない値です"
		case "path_shape":
			return "パスの要素が値の形に適用できません"
		case "source_fn":
			return "抽出関数が失敗しました"
		case "invalid_schema":
			return "スキーマ定義が不正です"
		case "max_depth":
			return "深さの上限を超えました"
		case "parse_error":
			return "解析エラー"
		}
	default: // "en"
		switch code {
		case "invalid_value":
			if typ := data["type"]; typ != "" {
				return "value cannot be converted to " + typ
			}
			return "value cannot be converted to the declared type"
		case "path_shape":
			return "path segment does not apply to the addressed value"
		case "source_fn":
			return "extraction function failed"
		case "invalid_schema":
			return "invalid schema definition"
		case "max_depth":
			return "depth limit exceeded"
		case "parse_error":
			return "parse error"
		}
	}
	return code
}

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores the English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
