package sam

import (
	"fmt"
	"slices"

	"github.com/getcharzp/go-segment"
	"github.com/up-zero/gotool/convertutil"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
)

// Invoker 执行一次解码推理
type Invoker interface {
	// InputShapes 模型声明的输入形状, -1 为动态维度
	InputShapes() map[string][]int64
	// Infer 单次前向推理, 返回 mask logits 张量
	Infer(inputs Tensors) (*tensor.Dense, error)
}

// Engine 持有 prompt encoder + mask decoder 的 ONNX Session
type Engine struct {
	session     *ort.DynamicAdvancedSession
	onnxConfig  *segment.OnnxConfig
	inputNames  []string
	inputShapes map[string][]int64
	outputNames []string
	config      Config
}

// NewEngine 初始化解码引擎
func NewEngine(cfg Config) (*Engine, error) {
	onnxConfig := new(segment.OnnxConfig)
	if err := convertutil.CopyProperties(cfg, onnxConfig); err != nil {
		return nil, fmt.Errorf("复制参数失败: %w", err)
	}
	// 初始化 ONNX
	if err := onnxConfig.New(); err != nil {
		return nil, err
	}

	inputInfo, outputInfo, err := ort.GetInputOutputInfo(cfg.DecodeModelPath)
	if err != nil {
		onnxConfig.Destroy()
		return nil, fmt.Errorf("读取模型输入输出信息失败: %w", err)
	}
	if len(outputInfo) == 0 {
		onnxConfig.Destroy()
		return nil, stageErr(StageInference, ErrDecode, "模型没有输出")
	}

	inputShapes := make(map[string][]int64, len(inputInfo))
	for _, info := range inputInfo {
		inputShapes[info.Name] = append([]int64(nil), info.Dimensions...)
	}
	for _, name := range RequiredInputs {
		if _, ok := inputShapes[name]; !ok {
			onnxConfig.Destroy()
			return nil, stageErr(StageInference, ErrShapeMismatch, "模型缺少输入 %s", name)
		}
	}

	// 只喂入必需的输入, 顺序固定
	inputNames := slices.Clone(RequiredInputs)
	outputNames := make([]string, len(outputInfo))
	for i, info := range outputInfo {
		outputNames[i] = info.Name
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.DecodeModelPath, inputNames, outputNames, onnxConfig.SessionOptions)
	if err != nil {
		onnxConfig.Destroy()
		return nil, fmt.Errorf("创建 Decoder ONNX 会话失败: %w", err)
	}

	declared := make(map[string][]int64, len(inputNames))
	for _, name := range inputNames {
		declared[name] = inputShapes[name]
	}

	return &Engine{
		session:     session,
		onnxConfig:  onnxConfig,
		inputNames:  inputNames,
		inputShapes: declared,
		outputNames: outputNames,
		config:      cfg,
	}, nil
}

// Destroy 释放相关资源
func (e *Engine) Destroy() error {
	if e.session != nil {
		if err := e.session.Destroy(); err != nil {
			return fmt.Errorf("销毁 Decoder ONNX 会话失败: %w", err)
		}
		e.session = nil
	}
	if e.onnxConfig != nil {
		e.onnxConfig.Destroy()
		e.onnxConfig = nil
	}
	return nil
}

func (e *Engine) InputShapes() map[string][]int64 {
	shapes := make(map[string][]int64, len(e.inputShapes))
	for k, v := range e.inputShapes {
		shapes[k] = slices.Clone(v)
	}
	return shapes
}

// OutputNames 模型声明的输出名, 第一个为 mask logits
func (e *Engine) OutputNames() []string {
	return slices.Clone(e.outputNames)
}

// Infer 执行一次解码推理
func (e *Engine) Infer(inputs Tensors) (*tensor.Dense, error) {
	if e.session == nil {
		return nil, stageErr(StageInference, ErrInference, "引擎已销毁")
	}

	values := make([]ort.Value, 0, len(e.inputNames))
	defer func() {
		for _, v := range values {
			v.Destroy()
		}
	}()
	for _, name := range e.inputNames {
		t, ok := inputs[name]
		if !ok {
			return nil, stageErr(StageInference, ErrShapeMismatch, "缺少输入 %s", name)
		}
		v, err := toOrtTensor(t)
		if err != nil {
			return nil, stageErr(StageInference, ErrInference, "创建输入 %s 失败: %w", name, err)
		}
		values = append(values, v)
	}

	outputs := make([]ort.Value, len(e.outputNames))
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	// Decoder 推理
	if err := e.session.Run(values, outputs); err != nil {
		return nil, stageErr(StageInference, ErrInference, "decoder 推理失败: %w", err)
	}

	masks, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, stageErr(StageDecode, ErrDecode, "输出 %s 不是 float32 张量", e.outputNames[0])
	}

	// 拷贝一份, 原生缓冲随 outputs 一起释放
	shape := masks.GetShape()
	dims := make([]int, len(shape))
	for i, d := range shape {
		dims[i] = int(d)
	}
	data := slices.Clone(masks.GetData())
	if int64(len(data)) != shape.FlattenedSize() {
		return nil, stageErr(StageDecode, ErrDecode, "输出长度(%d)与形状 %v 不匹配", len(data), shape)
	}
	return tensor.New(tensor.WithShape(dims...), tensor.WithBacking(data)), nil
}

// toOrtTensor 将 float32 稠密张量转为 ONNX 张量
func toOrtTensor(t *tensor.Dense) (*ort.Tensor[float32], error) {
	shape, data, err := ortInput(t)
	if err != nil {
		return nil, err
	}
	return ort.NewTensor(shape, data)
}

// ortInput 取出 ONNX 张量所需的形状与数据, 标量按形状 (1) 处理
func ortInput(t *tensor.Dense) (ort.Shape, []float32, error) {
	data, err := float32Data(t)
	if err != nil {
		return nil, nil, err
	}
	shape := ort.NewShape(1)
	if dims := t.Shape(); len(dims) > 0 {
		shape = make(ort.Shape, len(dims))
		for i, d := range dims {
			shape[i] = int64(d)
		}
	}
	if shape.FlattenedSize() != int64(len(data)) {
		return nil, nil, fmt.Errorf("张量形状 %v 与数据长度(%d)不匹配", shape, len(data))
	}
	return shape, data, nil
}

// float32Data 取出张量数据, 形状为 (1) 的张量可能以标量形式返回
func float32Data(t *tensor.Dense) ([]float32, error) {
	switch v := t.Data().(type) {
	case []float32:
		return v, nil
	case float32:
		return []float32{v}, nil
	}
	return nil, fmt.Errorf("不支持的数据类型 %v", t.Dtype())
}
