package main

import (
	"testing"

	"github.com/getcharzp/go-segment/sam"
)

func TestParseClick(t *testing.T) {
	cases := []struct {
		in   string
		want clickAction
	}{
		{"542,388", clickAction{Point: sam.ClickPoint{X: 542, Y: 388, Label: sam.LabelForeground}}},
		{" 1, 2 ,bg", clickAction{Point: sam.ClickPoint{X: 1, Y: 2, Label: sam.LabelBackground}}},
		{"3,4,0", clickAction{Point: sam.ClickPoint{X: 3, Y: 4, Label: sam.LabelBackground}}},
		{"3,4,fg", clickAction{Point: sam.ClickPoint{X: 3, Y: 4, Label: sam.LabelForeground}}},
		{"RESET", clickAction{Reset: true}},
	}
	for _, c := range cases {
		got, err := parseClick(c.in)
		if err != nil {
			t.Fatalf("%q 解析失败: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("%q: got %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestParseClickInvalid(t *testing.T) {
	for _, in := range []string{"", "1", "1,2,3,4", "a,2", "1,b", "1,2,maybe"} {
		if _, err := parseClick(in); err == nil {
			t.Errorf("%q 应解析失败", in)
		}
	}
	if _, err := parseClicks([]string{"1,2", "bad"}); err == nil {
		t.Fatal("列表中有非法点击应报错")
	}
}
