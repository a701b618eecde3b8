package sam

import (
	"errors"
	"fmt"
)

// Stage 出错的流水线阶段
type Stage string

const (
	StageSession   Stage = "session"
	StagePrompt    Stage = "prompt"
	StageInference Stage = "inference"
	StageDecode    Stage = "decode"
	StageRaster    Stage = "raster"
)

var (
	ErrPrecondition  = errors.New("前置条件不满足")
	ErrShapeMismatch = errors.New("张量形状不匹配")
	ErrInference     = errors.New("推理失败")
	ErrDecode        = errors.New("输出解码失败")
)

// StageError 带阶段信息的错误, 可用 errors.Is 匹配 Kind 与底层错误
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("[%s] %v: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func stageErr(stage Stage, kind error, format string, args ...any) error {
	return &StageError{Stage: stage, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// StageOf 返回错误所在阶段, 非 StageError 返回空
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
