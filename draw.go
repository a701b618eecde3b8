package segment

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/up-zero/gotool/imageutil"
	xdraw "golang.org/x/image/draw"
)

// 点击标记颜色
var (
	ForegroundMarkColor = color.RGBA{G: 200, A: 255}
	BackgroundMarkColor = color.RGBA{R: 220, A: 255}
)

// Marker 需要绘制的点击位置
type Marker struct {
	X, Y       int
	Foreground bool
}

// Composite 将覆盖层叠加到原图上
//
// # Params:
//
//	base: 原图
//	overlay: mask 覆盖层, 尺寸与原图不一致时按最近邻缩放
func Composite(base image.Image, overlay image.Image) *image.RGBA {
	bounds := base.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), base, bounds.Min, draw.Src)
	if overlay == nil {
		return dst
	}

	if overlay.Bounds().Size() == dst.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), overlay, overlay.Bounds().Min, draw.Over)
		return dst
	}
	// 最近邻, 保持 mask 边缘不被插值
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), overlay, overlay.Bounds(), xdraw.Over, nil)
	return dst
}

// DrawClicks 在图上绘制点击标记
//
// # Params:
//
//	img: 被绘制的图像
//	markers: 点击位置
//	radius: 标记半径
func DrawClicks(img *image.RGBA, markers []Marker, radius int) {
	for _, m := range markers {
		c := BackgroundMarkColor
		if m.Foreground {
			c = ForegroundMarkColor
		}
		imageutil.DrawFilledCircle(img, image.Point{X: m.X, Y: m.Y}, radius, c)
	}
}
