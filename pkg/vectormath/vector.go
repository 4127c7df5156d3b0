// Package vectormath 提供嵌入向量的基础数值运算。
// 推荐链路中所有向量计算统一走这里，避免各模块重复实现。
package vectormath

import "math"

// Cosine 计算两个向量的余弦相似度，取值范围 [-1, 1]。
// 约定：任一向量为零向量或两者维度不一致时返回 0，不作为错误处理。
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MoveToward 返回 v 向 target 移动 rate 步长后的新向量：v + rate × (target − v)。
// rate 为负时即远离 target。不修改输入向量。
// 维度不一致时返回 v 的副本。
func MoveToward(v, target []float64, rate float64) []float64 {
	out := Copy(v)
	if len(v) != len(target) {
		return out
	}
	for i := range out {
		out[i] += rate * (target[i] - out[i])
	}
	return out
}

// Copy 返回向量的副本；nil 输入返回 nil。
func Copy(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
