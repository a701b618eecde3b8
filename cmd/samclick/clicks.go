package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/getcharzp/go-segment/sam"
)

// clickAction 命令行里的一次操作: 点击或重置
type clickAction struct {
	Reset bool
	Point sam.ClickPoint
}

// parseClick 解析 "x,y[,fg|bg]" 或 "reset"
func parseClick(s string) (clickAction, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "reset") {
		return clickAction{Reset: true}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 2 && len(parts) != 3 {
		return clickAction{}, fmt.Errorf("点击格式应为 x,y[,fg|bg]: %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return clickAction{}, fmt.Errorf("x 坐标非法 %q: %w", parts[0], err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return clickAction{}, fmt.Errorf("y 坐标非法 %q: %w", parts[1], err)
	}
	label := sam.LabelForeground
	if len(parts) == 3 {
		switch strings.ToLower(strings.TrimSpace(parts[2])) {
		case "fg", "1", "add":
			label = sam.LabelForeground
		case "bg", "0", "remove":
			label = sam.LabelBackground
		default:
			return clickAction{}, fmt.Errorf("未知标签 %q", parts[2])
		}
	}
	return clickAction{Point: sam.ClickPoint{X: x, Y: y, Label: label}}, nil
}

func parseClicks(values []string) ([]clickAction, error) {
	actions := make([]clickAction, 0, len(values))
	for _, v := range values {
		a, err := parseClick(v)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}
