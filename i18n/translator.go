package i18n

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "min" or "field").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "missing_name":
			return "フィールド名がありません"
		case "invalid_name":
			return "フィールド名が不正です"
		case "duplicate_name":
			return "フィールド名が重複しています"
		case "invalid_type":
			return "フィールド型が不正です"
		case "invalid_shape":
			return "フィールド定義の形が不正です"
		case "object_without_fields":
			return "object フィールドに子フィールドがありません"
		case "array_without_item_type":
			return "array フィールドに itemType がありません"
		case "select_without_options":
			return "選択肢フィールドに options も dataSourceKey もありません"
		case "invalid_condition":
			return "条件が不正です"
		case "invalid_dependency":
			return "依存パスが不正です"
		case "invalid_pattern":
			return "正規表現パターンが不正です"
		case "invalid_bounds":
			return "上下限が不正です"
		case "parse_error":
			return "解析エラー"
		case "required":
			return "必須です"
		case "too_small":
			return "小さすぎます"
		case "too_big":
			return "大きすぎます"
		case "too_short":
			return "短すぎます"
		case "too_long":
			return "長すぎます"
		case "pattern":
			return "パターンに一致しません"
		case "invalid_enum":
			return "許可された値ではありません"
		case "invalid_format":
			return "形式が不正です"
		case "custom":
			return "検証に失敗しました"
		}
	default: // "en"
		switch code {
		case "missing_name":
			return "field name missing"
		case "invalid_name":
			return "invalid field name"
		case "duplicate_name":
			return "duplicate field name"
		case "invalid_type":
			return "invalid field type"
		case "invalid_shape":
			return "invalid field shape"
		case "object_without_fields":
			return "object field has no child fields"
		case "array_without_item_type":
			return "array field has no item type"
		case "select_without_options":
			return "option field declares neither options nor dataSourceKey"
		case "invalid_condition":
			return "invalid condition"
		case "invalid_dependency":
			return "invalid dependency path"
		case "invalid_pattern":
			return "invalid pattern"
		case "invalid_bounds":
			return "invalid bounds"
		case "parse_error":
			return "parse error"
		case "required":
			return "required"
		case "too_small":
			return "too small"
		case "too_big":
			return "too big"
		case "too_short":
			return "too short"
		case "too_long":
			return "too long"
		case "pattern":
			return "does not match pattern"
		case "invalid_enum":
			return "not an allowed value"
		case "invalid_format":
			return "invalid format"
		case "custom":
			return "validation failed"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
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
