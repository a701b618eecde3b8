package sam

import (
	"image"
	"image/color"

	"gorgonia.org/tensor"
)

// Overlay 覆盖层, Pix 按行优先存放 RGBA, 每像素 4 字节
type Overlay struct {
	Width, Height int
	Pix           []byte
}

// DecodeLogits 从输出张量中取出第一张 mask 的 logits
//
// 输出形状为 [1, C, H, W], 宽高以张量声明为准, 不假定与原图一致
func DecodeLogits(t *tensor.Dense) ([]float32, int, int, error) {
	if t == nil {
		return nil, 0, 0, stageErr(StageDecode, ErrDecode, "输出张量为空")
	}
	shape := t.Shape()
	if len(shape) != 4 {
		return nil, 0, 0, stageErr(StageDecode, ErrDecode, "输出维度应为 4, 实际为 %v", []int(shape))
	}
	h, w := shape[2], shape[3]
	if h <= 0 || w <= 0 {
		return nil, 0, 0, stageErr(StageDecode, ErrDecode, "输出缺少空间维度: %v", []int(shape))
	}
	data, err := float32Data(t)
	if err != nil {
		return nil, 0, 0, stageErr(StageDecode, ErrDecode, "%w", err)
	}
	if len(data) < w*h {
		return nil, 0, 0, stageErr(StageDecode, ErrDecode, "输出长度(%d)小于 %dx%d", len(data), w, h)
	}
	// 多 mask 输出时取第一张
	logits := make([]float32, w*h)
	copy(logits, data[:w*h])
	return logits, w, h, nil
}

// Rasterize logits 转 RGBA 覆盖层, logit > 0 为前景
//
// # Params:
//
//	logits: 行优先的 logits, 长度为 w*h
//	w, h: mask 宽高
//	c: 前景颜色, 背景为全透明
func Rasterize(logits []float32, w, h int, c color.RGBA) (*Overlay, error) {
	if w <= 0 || h <= 0 || len(logits) != w*h {
		return nil, stageErr(StageRaster, ErrDecode, "logits 长度(%d)与尺寸 %dx%d 不匹配", len(logits), w, h)
	}
	pix := make([]byte, 4*w*h)
	for i, v := range logits {
		if v > maskThreshold {
			pix[4*i+0] = c.R
			pix[4*i+1] = c.G
			pix[4*i+2] = c.B
			pix[4*i+3] = c.A
		}
	}
	return &Overlay{Width: w, Height: h, Pix: pix}, nil
}

// ARGB 打包为 A<<24 | R<<16 | G<<8 | B 的像素字
func (o *Overlay) ARGB() []uint32 {
	pixels := make([]uint32, o.Width*o.Height)
	for i := range pixels {
		r := uint32(o.Pix[4*i+0])
		g := uint32(o.Pix[4*i+1])
		b := uint32(o.Pix[4*i+2])
		a := uint32(o.Pix[4*i+3])
		pixels[i] = a<<24 | r<<16 | g<<8 | b
	}
	return pixels
}

// Image 转为 image.NRGBA, 像素缓冲为拷贝
func (o *Overlay) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, o.Width, o.Height))
	copy(img.Pix, o.Pix)
	return img
}

// Transparent 是否全透明
func (o *Overlay) Transparent() bool {
	for i := 3; i < len(o.Pix); i += 4 {
		if o.Pix[i] != 0 {
			return false
		}
	}
	return true
}

// Coverage 前景像素数
func (o *Overlay) Coverage() int {
	n := 0
	for i := 3; i < len(o.Pix); i += 4 {
		if o.Pix[i] != 0 {
			n++
		}
	}
	return n
}
