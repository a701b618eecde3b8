package sam

import (
	"image/color"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State 会话状态
type State int

const (
	StateNoImage State = iota
	StateMaskEmpty
	StateRecomputing
	StateMaskReady
)

func (s State) String() string {
	switch s {
	case StateNoImage:
		return "no_image"
	case StateMaskEmpty:
		return "mask_empty"
	case StateRecomputing:
		return "recomputing"
	case StateMaskReady:
		return "mask_ready"
	}
	return "unknown"
}

// SegmentationResult 一次完整重算的结果
type SegmentationResult struct {
	Logits        []float32
	Width, Height int
	Overlay       *Overlay
}

// RecomputeRequest 需要重算的完整点击列表
type RecomputeRequest struct {
	Clicks []ClickPoint
}

// Option 会话可选项
type Option func(*Session)

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaskColor 设置前景覆盖色
func WithMaskColor(c color.RGBA) Option {
	return func(s *Session) {
		s.maskColor = c
	}
}

// Session 单张图片的交互式分割会话
//
// 每次点击都基于完整点击列表重新解码, 不复用上一次的 mask.
// 所有修改状态的方法串行执行.
type Session struct {
	mu sync.Mutex

	id        string
	invoker   Invoker
	logger    *zap.Logger
	maskColor color.RGBA

	state     State
	scale     ImageScale
	embedding *Embedding
	clicks    []ClickPoint
	result    *SegmentationResult
}

// NewSession 创建会话, 初始状态为 StateNoImage
func NewSession(invoker Invoker, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		invoker:   invoker,
		logger:    zap.NewNop(),
		maskColor: DefaultMaskColor,
		state:     StateNoImage,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session", s.id))
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result 当前显示的结果, MaskEmpty 时为 nil
func (s *Session) Result() *SegmentationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Clicks 点击列表的拷贝
func (s *Session) Clicks() []ClickPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.clicks)
}

func (s *Session) Scale() ImageScale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

// LoadImage 载入图片尺寸与特征, 清空点击与 mask
func (s *Session) LoadImage(w, h int, emb *Embedding) error {
	if emb == nil {
		return stageErr(StageSession, ErrPrecondition, "图片特征不存在")
	}
	if err := emb.Validate(); err != nil {
		return stageErr(StageSession, ErrPrecondition, "图片特征无效: %w", err)
	}
	scale, err := NewImageScale(w, h)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scale = scale
	s.embedding = emb
	s.clicks = nil
	s.result = nil
	s.state = StateMaskEmpty
	s.logger.Debug("image loaded",
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Float32("scale", scale.Factor),
		zap.Int64s("embedding_shape", emb.Shape))
	return nil
}

// Reset 清空点击与 mask
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicks = nil
	s.result = nil
	if s.state != StateNoImage {
		s.state = StateMaskEmpty
	}
	s.logger.Debug("session reset")
}

// OnClick 计算新点击对应的重算请求, 不修改会话
func (s *Session) OnClick(x, y int, label Label) (RecomputeRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onClick(ClickPoint{X: x, Y: y, Label: label})
}

func (s *Session) onClick(p ClickPoint) (RecomputeRequest, error) {
	if s.state == StateNoImage {
		return RecomputeRequest{}, stageErr(StageSession, ErrPrecondition, "尚未载入图片")
	}
	if !s.scale.Contains(p) {
		return RecomputeRequest{}, stageErr(StageSession, ErrPrecondition,
			"点击 (%d, %d) 超出图片范围 %dx%d", p.X, p.Y, s.scale.OrigW, s.scale.OrigH)
	}
	clicks := make([]ClickPoint, len(s.clicks), len(s.clicks)+1)
	copy(clicks, s.clicks)
	return RecomputeRequest{Clicks: append(clicks, p)}, nil
}

// Click 追加点击并同步重算 mask
//
// 失败时点击不会写入列表, 之前的结果保持不变
func (s *Session) Click(x, y int, label Label) (*SegmentationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := ClickPoint{X: x, Y: y, Label: label}
	req, err := s.onClick(p)
	if err != nil {
		s.logger.Debug("click rejected", zap.Int("x", x), zap.Int("y", y), zap.Error(err))
		return nil, err
	}
	s.logger.Debug("click accepted",
		zap.Int("x", x),
		zap.Int("y", y),
		zap.Stringer("label", label),
		zap.Int("clicks", len(req.Clicks)))
	return s.recompute(req)
}

// Recompute 按请求中的点击列表重算, 成功后请求成为新的点击列表
func (s *Session) Recompute(req RecomputeRequest) (*SegmentationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateNoImage {
		return nil, stageErr(StageSession, ErrPrecondition, "尚未载入图片")
	}
	for _, p := range req.Clicks {
		if !s.scale.Contains(p) {
			return nil, stageErr(StageSession, ErrPrecondition,
				"点击 (%d, %d) 超出图片范围 %dx%d", p.X, p.Y, s.scale.OrigW, s.scale.OrigH)
		}
	}
	return s.recompute(req)
}

func (s *Session) recompute(req RecomputeRequest) (*SegmentationResult, error) {
	if len(req.Clicks) == 0 {
		s.clicks = nil
		s.result = nil
		s.state = StateMaskEmpty
		return nil, nil
	}

	prev := s.state
	s.state = StateRecomputing
	start := time.Now()

	result, err := s.run(req.Clicks)
	if err != nil {
		s.state = prev
		s.logger.Warn("recompute failed",
			zap.String("stage", string(StageOf(err))),
			zap.Int("clicks", len(req.Clicks)),
			zap.Error(err))
		return nil, err
	}

	s.clicks = slices.Clone(req.Clicks)
	s.result = result
	s.state = StateMaskReady
	s.logger.Debug("recompute done",
		zap.Int("clicks", len(s.clicks)),
		zap.Int("mask_width", result.Width),
		zap.Int("mask_height", result.Height),
		zap.Int("coverage", result.Overlay.Coverage()),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// run 构建提示 -> 推理 -> 光栅化
func (s *Session) run(clicks []ClickPoint) (*SegmentationResult, error) {
	prompt, err := BuildPrompt(clicks, s.scale, s.embedding)
	if err != nil {
		return nil, err
	}
	inputs := prompt.Tensors(s.embedding)
	if err := CheckShapes(s.invoker.InputShapes(), inputs); err != nil {
		return nil, err
	}

	output, err := s.invoker.Infer(inputs)
	if err != nil {
		if StageOf(err) == "" {
			err = &StageError{Stage: StageInference, Kind: ErrInference, Err: err}
		}
		return nil, err
	}

	logits, w, h, err := DecodeLogits(output)
	if err != nil {
		return nil, err
	}
	overlay, err := Rasterize(logits, w, h, s.maskColor)
	if err != nil {
		return nil, err
	}
	return &SegmentationResult{
		Logits:  logits,
		Width:   w,
		Height:  h,
		Overlay: overlay,
	}, nil
}
