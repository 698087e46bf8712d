package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ==================== 宽容反序列化 ====================

// FlexString 宽容的字符串字段
// CJ 推送里同一个字段可能是字符串、数字或单元素数组，
// 统一收敛成字符串，业务层不感知来源形态
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "null" || trimmed == "" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(b, &arr); err == nil {
		if len(arr) == 0 {
			*f = ""
			return nil
		}
		// 递归解首元素，兼容 [["x"]] 这类双层包裹
		var first FlexString
		if err := json.Unmarshal(arr[0], &first); err != nil {
			return err
		}
		*f = first
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*f = FlexString(strconv.FormatBool(v))
		return nil
	}

	return fmt.Errorf("无法解析为字符串: %s", trimmed)
}

// String 返回清洗后的字符串
func (f FlexString) String() string {
	return CleanText(string(f))
}

// Raw 返回未清洗的原始字符串
func (f FlexString) Raw() string {
	return string(f)
}

// Float 解析为浮点数，解析失败返回 0
func (f FlexString) Float() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(f)), 64)
	if err != nil {
		return 0
	}
	return v
}

// Int 解析为整数，解析失败返回 0
func (f FlexString) Int() int {
	v, err := strconv.Atoi(strings.TrimSpace(string(f)))
	if err != nil {
		return 0
	}
	return v
}
