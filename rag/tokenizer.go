package rag

import (
	"fmt"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenTokenizer 基于 tiktoken 编码表的精确分词器。
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer 创建 tiktoken 分词器。
// model 指定编码对应的模型（如 "gpt-4o", "gpt-3.5-turbo"）。
func NewTiktokenTokenizer(model string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("create tiktoken encoding for %q: %w", model, err)
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

// CountTokens 返回文本的 token 数。
func (t *TiktokenTokenizer) CountTokens(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Encode 将文本转换为 token ID 列表。
func (t *TiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// EstimatorTokenizer 无需编码数据下载的估算分词器（CJK 感知）。
// CJK 字符按 1 token 计，其余按 4 字符 1 token 估算。
type EstimatorTokenizer struct{}

// NewEstimatorTokenizer 创建估算分词器。
func NewEstimatorTokenizer() *EstimatorTokenizer { return &EstimatorTokenizer{} }

// CountTokens 估算文本的 token 数。
func (t *EstimatorTokenizer) CountTokens(text string) int {
	cjk := 0
	other := 0
	for _, r := range text {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			cjk++
		} else {
			other++
		}
	}
	count := cjk + (other+3)/4
	if count == 0 && len(text) > 0 {
		count = 1
	}
	return count
}

// Encode 返回伪 token ID 序列，仅用于长度估算。
func (t *EstimatorTokenizer) Encode(text string) []int {
	result := make([]int, t.CountTokens(text))
	for i := range result {
		result[i] = i
	}
	return result
}
