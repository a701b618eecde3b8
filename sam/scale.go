package sam

// ImageScale 原图尺寸与缩放到模型输入空间的比例
type ImageScale struct {
	OrigW, OrigH int
	Factor       float32
}

// NewImageScale 计算缩放比例, 长边缩放到 LongSideLength
func NewImageScale(w, h int) (ImageScale, error) {
	if w <= 0 || h <= 0 {
		return ImageScale{}, stageErr(StageSession, ErrPrecondition, "图片尺寸非法: %dx%d", w, h)
	}
	return ImageScale{
		OrigW:  w,
		OrigH:  h,
		Factor: float32(LongSideLength) / float32(max(w, h)),
	}, nil
}

// Apply 原图坐标 -> 模型输入坐标
func (s ImageScale) Apply(p ClickPoint) (x, y float32) {
	return s.ApplyF(float32(p.X), float32(p.Y))
}

// ApplyF 对浮点坐标缩放
func (s ImageScale) ApplyF(x, y float32) (float32, float32) {
	return x * s.Factor, y * s.Factor
}

// Contains 点击是否落在原图范围内
func (s ImageScale) Contains(p ClickPoint) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < s.OrigW && p.Y < s.OrigH
}
