package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rushteam/shopkit/feature"
)

// LRModel 实现了逻辑回归 (Logistic Regression) 排序模型。
// 它是点击率预估 (CTR) 最基础也最经典的算法。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * Feature_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 最终输出值 P 代表相关概率，范围在 (0, 1) 之间。
// artifact 以 JSON 序列化，作为带版本的可替换工件由 core.ModelStore 存取。
type LRModel struct {
	Bias      float64   `json:"bias"`
	Weights   []float64 `json:"weights"` // 长度等于 feature.Size
	Version   int       `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
}

// DecodeLRModel 从 artifact 字节解码模型，并校验特征维度。
func DecodeLRModel(data []byte) (*LRModel, error) {
	var m LRModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if len(m.Weights) != feature.Size {
		return nil, fmt.Errorf("model artifact has %d weights, want %d", len(m.Weights), feature.Size)
	}
	return &m, nil
}

// Encode 把模型序列化为 artifact 字节。
func (m *LRModel) Encode() ([]byte, error) {
	return json.Marshal(m)
}

func (m *LRModel) Name() string { return "lr" }

func (m *LRModel) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Weights) {
		return 0, fmt.Errorf("feature vector has %d dims, model expects %d", len(features), len(m.Weights))
	}
	z := m.Bias
	for i, v := range features {
		z += m.Weights[i] * v
	}
	return 1 / (1 + math.Exp(-z)), nil
}
