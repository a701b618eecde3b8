package sam

import (
	"image/color"

	"github.com/getcharzp/go-segment"
)

type Label int

const (
	LabelBackground Label = 0 // 背景/排除
	LabelForeground Label = 1 // 前景/选中
)

func (l Label) String() string {
	switch l {
	case LabelBackground:
		return "background"
	case LabelForeground:
		return "foreground"
	}
	return "unknown"
}

const (
	// LongSideLength 模型输入图片的长边尺寸
	LongSideLength = 1024
	// MaskInputSize mask_input 的边长
	MaskInputSize = 256
	// maskThreshold logit 阈值, 大于该值为前景
	maskThreshold = 0.0
	// paddingLabel 补位点的标签, 表示没有框选提示
	paddingLabel = -1.0
)

// 模型输入名
const (
	InputImageEmbeddings = "image_embeddings"
	InputPointCoords     = "point_coords"
	InputPointLabels     = "point_labels"
	InputOrigImSize      = "orig_im_size"
	InputMaskInput       = "mask_input"
	InputHasMaskInput    = "has_mask_input"
)

// RequiredInputs 解码模型必须声明的输入
var RequiredInputs = []string{
	InputImageEmbeddings,
	InputPointCoords,
	InputPointLabels,
	InputOrigImSize,
	InputMaskInput,
	InputHasMaskInput,
}

// DefaultMaskColor 前景覆盖色
var DefaultMaskColor = color.RGBA{R: 0, G: 0x72, B: 0xBD, A: 0xFF}

// ClickPoint 原图像素坐标下的一次点击
type ClickPoint struct {
	X, Y  int
	Label Label
}

// Config 配置项
type Config struct {
	// 必填参数
	OnnxRuntimeLibPath string // onnxruntime.dll (或 .so, .dylib) 的路径
	DecodeModelPath    string // prompt encoder + mask decoder 模型

	// 可选参数
	UseCuda           bool       // (可选) 是否启用 CUDA
	NumThreads        int        // (可选) ONNX 线程数, 默认由CPU核心数决定
	EnableCpuMemArena bool       // (可选) 是否开启 ONNX 内存池, DefaultConfig 中默认开启
	MaskColor         color.RGBA // (可选) 前景覆盖色, 默认 DefaultMaskColor
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		OnnxRuntimeLibPath: segment.DefaultLibraryPath(),
		DecodeModelPath:    "./sam_weights/sam_onnx_quantized.onnx",
		EnableCpuMemArena:  true,
		MaskColor:          DefaultMaskColor,
	}
}
