package sam

import (
	"fmt"
	"io"
	"os"

	"github.com/sbinet/npyio"
)

// Embedding 图片特征, 由上游 encoder 预先计算, 会话内只读
type Embedding struct {
	Shape []int64
	Data  []float32
}

// NewEmbedding 校验形状后创建特征
func NewEmbedding(shape []int64, data []float32) (*Embedding, error) {
	emb := &Embedding{
		Shape: append([]int64(nil), shape...),
		Data:  data,
	}
	if err := emb.Validate(); err != nil {
		return nil, err
	}
	return emb, nil
}

// Validate 检查形状与数据长度是否一致
func (e *Embedding) Validate() error {
	if len(e.Shape) < 2 {
		return fmt.Errorf("特征维度至少为 2, 实际为 %d", len(e.Shape))
	}
	size := int64(1)
	for _, d := range e.Shape {
		if d <= 0 {
			return fmt.Errorf("特征形状非法: %v", e.Shape)
		}
		size *= d
	}
	if size != int64(len(e.Data)) {
		return fmt.Errorf("特征数据长度(%d)与形状 %v 不匹配", len(e.Data), e.Shape)
	}
	return nil
}

// ReadEmbedding 从 .npy 数据流读取特征 (float32, C 顺序)
func ReadEmbedding(r io.Reader) (*Embedding, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("解析 npy 头失败: %w", err)
	}
	descr := nr.Header.Descr
	if descr.Fortran {
		return nil, fmt.Errorf("不支持 Fortran 顺序的 npy 数据")
	}
	if descr.Type != "<f4" && descr.Type != "f4" {
		return nil, fmt.Errorf("不支持的 npy 数据类型: %s", descr.Type)
	}

	shape := make([]int64, len(descr.Shape))
	size := 1
	for i, d := range descr.Shape {
		shape[i] = int64(d)
		size *= d
	}
	data := make([]float32, size)
	if err := nr.Read(&data); err != nil {
		return nil, fmt.Errorf("读取 npy 数据失败: %w", err)
	}
	return NewEmbedding(shape, data)
}

// LoadEmbedding 从 .npy 文件加载特征
func LoadEmbedding(path string) (*Embedding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开特征文件失败: %w", err)
	}
	defer f.Close()
	return ReadEmbedding(f)
}
