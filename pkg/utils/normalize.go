package utils

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"
)

// ==================== CJ 报文字段清洗 ====================

// CJ 推送报文的历史遗留问题：
//  1. 部分字符串字段会被包成 JSON 数组，如 `["黑色 S 码"]`
//  2. 商品名/描述中混有 HTML 标签和实体编码
// 所有入库字段统一走 CleanText，下游不再做任何编码处理

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// CleanText 清洗 CJ 报文中的文本字段
// 依次处理：数组包裹解包 → HTML 标签剥离 → HTML 实体解码 → 去首尾空白
func CleanText(s string) string {
	s = UnwrapArrayString(s)
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	// &nbsp; 解码出来是 U+00A0，统一折成普通空格
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(s)
}

// UnwrapArrayString 解包数组形式的字符串
// `["x"]` → `x`，取第一个元素；非数组格式原样返回
func UnwrapArrayString(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return s
	}

	var items []string
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil || len(items) == 0 {
		// 不是合法的字符串数组，保持原样
		return s
	}
	return items[0]
}

// CleanTextSlice 批量清洗
func CleanTextSlice(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = CleanText(s)
	}
	return out
}
