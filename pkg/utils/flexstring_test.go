package utils

import (
	"encoding/json"
	"testing"
)

func TestFlexStringUnmarshal(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"普通字符串", `"hello"`, "hello"},
		{"数组包裹", `["black"]`, "black"},
		{"双层数组", `[["black"]]`, "black"},
		{"空数组", `[]`, ""},
		{"整数", `42`, "42"},
		{"小数", `12.50`, "12.50"},
		{"布尔", `true`, "true"},
		{"null", `null`, ""},
		{"数组里的数字", `[20]`, "20"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var f FlexString
			if err := json.Unmarshal([]byte(tc.in), &f); err != nil {
				t.Fatalf("解析 %s 失败: %v", tc.in, err)
			}
			if f.Raw() != tc.want {
				t.Errorf("解析 %s 得到 %q，期望 %q", tc.in, f.Raw(), tc.want)
			}
		})
	}
}

func TestFlexStringUnmarshal_Invalid(t *testing.T) {
	var f FlexString
	if err := json.Unmarshal([]byte(`{"k":1}`), &f); err == nil {
		t.Error("对象形态应报错")
	}
}

func TestFlexStringInStruct(t *testing.T) {
	// 同一字段在不同推送里形态不同，结构体定义不用变
	type payload struct {
		Pid   FlexString `json:"pid"`
		Price FlexString `json:"price"`
	}

	var p1 payload
	if err := json.Unmarshal([]byte(`{"pid":"P001","price":"12.5"}`), &p1); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	var p2 payload
	if err := json.Unmarshal([]byte(`{"pid":["P001"],"price":12.5}`), &p2); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if p1.Pid != p2.Pid {
		t.Errorf("两种形态应收敛一致: %q vs %q", p1.Pid, p2.Pid)
	}
	if p1.Price.Float() != 12.5 || p2.Price.Float() != 12.5 {
		t.Errorf("价格解析错误: %v %v", p1.Price.Float(), p2.Price.Float())
	}
}

func TestFlexStringString_Cleans(t *testing.T) {
	var f FlexString
	if err := json.Unmarshal([]byte(`["<b>Hi&amp;Fi</b> Buds"]`), &f); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if f.String() != "Hi&Fi Buds" {
		t.Errorf("清洗结果错误: %q", f.String())
	}
	if f.Raw() != "<b>Hi&amp;Fi</b> Buds" {
		t.Errorf("Raw 不应清洗: %q", f.Raw())
	}
}

func TestFlexStringNumeric(t *testing.T) {
	if FlexString(" 20 ").Int() != 20 {
		t.Error("Int 应容忍空白")
	}
	if FlexString("abc").Int() != 0 {
		t.Error("非数字 Int 应返回 0")
	}
	if FlexString("3.14").Float() != 3.14 {
		t.Error("Float 解析错误")
	}
	if FlexString("").Float() != 0 {
		t.Error("空串 Float 应返回 0")
	}
}
