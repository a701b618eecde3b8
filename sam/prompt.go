package sam

import (
	"gorgonia.org/tensor"
)

// Tensors 按输入/输出名索引的张量
type Tensors map[string]*tensor.Dense

// PromptTensorSet 解码模型的提示输入
type PromptTensorSet struct {
	PointCoords  []float32 // [1, N+1, 2]
	PointLabels  []float32 // [1, N+1]
	MaskInput    []float32 // [1, 1, 256, 256], 全零
	HasMaskInput float32   // 始终为 0
	OrigImSize   [2]float32
}

// NumPoints 含补位点在内的点数
func (p *PromptTensorSet) NumPoints() int {
	return len(p.PointLabels)
}

// BuildPrompt 根据完整点击列表构建提示张量
//
// # Params:
//
//	clicks: 原图坐标下的点击, 按到达顺序
//	scale: 当前图片的缩放信息
//	emb: 图片特征, 为空表示图片尚未编码
func BuildPrompt(clicks []ClickPoint, scale ImageScale, emb *Embedding) (*PromptTensorSet, error) {
	if emb == nil {
		return nil, stageErr(StagePrompt, ErrPrecondition, "图片特征不存在")
	}
	if err := emb.Validate(); err != nil {
		return nil, stageErr(StagePrompt, ErrPrecondition, "图片特征无效: %w", err)
	}
	n := len(clicks)
	if n == 0 {
		return nil, stageErr(StagePrompt, ErrPrecondition, "点击列表为空")
	}

	coords := make([]float32, 2*(n+1))
	labels := make([]float32, n+1)
	for i, c := range clicks {
		x, y := scale.Apply(c)
		if x < 0 || y < 0 || x > LongSideLength || y > LongSideLength {
			return nil, stageErr(StagePrompt, ErrPrecondition,
				"第 %d 个点缩放后越界: (%.1f, %.1f)", i, x, y)
		}
		coords[2*i] = x
		coords[2*i+1] = y
		if c.Label == LabelForeground {
			labels[i] = 1
		}
	}

	// 补位点 (0,0) / -1, 模型以此表示没有框选
	coords[2*n] = 0
	coords[2*n+1] = 0
	labels[n] = paddingLabel

	return &PromptTensorSet{
		PointCoords:  coords,
		PointLabels:  labels,
		MaskInput:    make([]float32, MaskInputSize*MaskInputSize),
		HasMaskInput: 0,
		OrigImSize:   [2]float32{float32(scale.OrigH), float32(scale.OrigW)},
	}, nil
}

// Tensors 组装模型的全部命名输入
func (p *PromptTensorSet) Tensors(emb *Embedding) Tensors {
	n := p.NumPoints()
	embShape := make([]int, len(emb.Shape))
	for i, d := range emb.Shape {
		embShape[i] = int(d)
	}
	return Tensors{
		InputImageEmbeddings: tensor.New(tensor.WithShape(embShape...), tensor.WithBacking(emb.Data)),
		InputPointCoords:     tensor.New(tensor.WithShape(1, n, 2), tensor.WithBacking(p.PointCoords)),
		InputPointLabels:     tensor.New(tensor.WithShape(1, n), tensor.WithBacking(p.PointLabels)),
		InputOrigImSize:      tensor.New(tensor.WithShape(2), tensor.WithBacking([]float32{p.OrigImSize[0], p.OrigImSize[1]})),
		InputMaskInput:       tensor.New(tensor.WithShape(1, 1, MaskInputSize, MaskInputSize), tensor.WithBacking(p.MaskInput)),
		InputHasMaskInput:    tensor.New(tensor.WithShape(1), tensor.WithBacking([]float32{p.HasMaskInput})),
	}
}

// CheckShapes 校验输入形状与模型声明是否一致, -1 表示动态维度
func CheckShapes(declared map[string][]int64, inputs Tensors) error {
	for name, want := range declared {
		t, ok := inputs[name]
		if !ok {
			return stageErr(StagePrompt, ErrShapeMismatch, "缺少输入 %s", name)
		}
		got := t.Shape()
		if len(got) != len(want) {
			return stageErr(StagePrompt, ErrShapeMismatch,
				"输入 %s 维度不匹配: 期望 %v, 实际 %v", name, want, []int(got))
		}
		for i, d := range want {
			if d >= 0 && int64(got[i]) != d {
				return stageErr(StagePrompt, ErrShapeMismatch,
					"输入 %s 形状不匹配: 期望 %v, 实际 %v", name, want, []int(got))
			}
		}
	}
	return nil
}
