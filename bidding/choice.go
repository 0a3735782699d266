package bidding

import "strings"

// Choice 代表審稿人對某篇文章的審稿意願
type Choice string

const (
	ChoiceUnset         Choice = ""
	ChoiceInterested    Choice = "Interesado"
	ChoiceMaybe         Choice = "Quizás"
	ChoiceNotInterested Choice = "No Interesado"
)

// 判斷順序很重要：「可能」必須先於「沒有」，「沒有」必須先於「有興趣」，
// 否則 "No me interesa" 這類否定句會被誤判為有興趣。
var (
	maybeMarkers    = []string{"quiz", "tal vez", "maybe", "perhaps"}
	negativeMarkers = []string{"no"}
	positiveMarkers = []string{"interes"}
)

// Valid 檢查是否為可以寫入的選項(不包含 ChoiceUnset)
func (c Choice) Valid() bool {
	switch c {
	case ChoiceInterested, ChoiceMaybe, ChoiceNotInterested:
		return true
	default:
		return false
	}
}

func (c Choice) String() string {
	if c == ChoiceUnset {
		return "unset"
	}
	return string(c)
}

// Normalize 將上游各種寫法的標籤轉換為 Choice，無法辨識時回傳 ChoiceUnset
func Normalize(raw string) Choice {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ChoiceUnset
	}
	switch {
	case containsAny(s, maybeMarkers):
		return ChoiceMaybe
	case containsAny(s, negativeMarkers):
		return ChoiceNotInterested
	case containsAny(s, positiveMarkers):
		return ChoiceInterested
	default:
		return ChoiceUnset
	}
}

// NormalizeValue 處理型別不固定的欄位(例如 JSON 解出的 any)，非字串一律視為 ChoiceUnset
func NormalizeValue(v any) Choice {
	switch val := v.(type) {
	case string:
		return Normalize(val)
	case *string:
		if val == nil {
			return ChoiceUnset
		}
		return Normalize(*val)
	case Choice:
		return Normalize(string(val))
	default:
		return ChoiceUnset
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
