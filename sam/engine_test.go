package sam

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
)

func TestFloat32Data(t *testing.T) {
	tests := []struct {
		name string
		t    *tensor.Dense
		want []float32
	}{
		{"slice", tensor.New(tensor.WithShape(2, 2), tensor.WithBacking([]float32{1, 2, 3, 4})), []float32{1, 2, 3, 4}},
		{"single", tensor.New(tensor.WithShape(1), tensor.WithBacking([]float32{3})), []float32{3}},
		{"scalar", tensor.New(tensor.FromScalar(float32(2))), []float32{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := float32Data(tt.t)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("数据不一致 (-want +got):\n%s", diff)
			}
		})
	}

	f64 := tensor.New(tensor.WithShape(2), tensor.WithBacking([]float64{1, 2}))
	if _, err := float32Data(f64); err == nil {
		t.Fatal("float64 张量应报错")
	}
}

func TestOrtInput(t *testing.T) {
	prompt, err := BuildPrompt([]ClickPoint{{X: 542, Y: 388, Label: LabelForeground}}, testScale(t), testEmbedding(t))
	if err != nil {
		t.Fatal(err)
	}
	inputs := prompt.Tensors(testEmbedding(t))

	want := map[string]ort.Shape{
		InputImageEmbeddings: {1, 4, 2, 2},
		InputPointCoords:     {1, 2, 2},
		InputPointLabels:     {1, 2},
		InputOrigImSize:      {2},
		InputMaskInput:       {1, 1, MaskInputSize, MaskInputSize},
		InputHasMaskInput:    {1},
	}
	for _, name := range RequiredInputs {
		shape, data, err := ortInput(inputs[name])
		if err != nil {
			t.Fatalf("%s 转换失败: %v", name, err)
		}
		if diff := cmp.Diff(want[name], shape); diff != "" {
			t.Fatalf("%s 形状不一致 (-want +got):\n%s", name, diff)
		}
		if int64(len(data)) != shape.FlattenedSize() {
			t.Fatalf("%s 数据长度(%d)与形状 %v 不符", name, len(data), shape)
		}
	}

	shape, data, err := ortInput(tensor.New(tensor.FromScalar(float32(1))))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ort.Shape{1}, shape); diff != "" || len(data) != 1 {
		t.Fatalf("标量应转为形状 (1) (-want +got):\n%s", diff)
	}

	if _, _, err := ortInput(tensor.New(tensor.WithShape(2), tensor.WithBacking([]int32{1, 2}))); err == nil {
		t.Fatal("非 float32 张量应报错")
	}
}

func TestToOrtTensorWithoutRuntime(t *testing.T) {
	if ort.IsInitialized() {
		t.Skip("ONNX Runtime 已初始化")
	}
	in := tensor.New(tensor.WithShape(1), tensor.WithBacking([]float32{0}))
	if _, err := toOrtTensor(in); !errors.Is(err, ort.NotInitializedError) {
		t.Fatalf("未初始化时应返回 NotInitializedError, 实际为 %v", err)
	}
}

func TestEngineDestroyed(t *testing.T) {
	e := &Engine{}
	if err := e.Destroy(); err != nil {
		t.Fatalf("重复释放不应报错: %v", err)
	}
	_, err := e.Infer(Tensors{})
	if !errors.Is(err, ErrInference) || StageOf(err) != StageInference {
		t.Fatalf("已销毁的引擎应返回 ErrInference, 实际为 %v", err)
	}
}
