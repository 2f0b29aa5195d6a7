package rag

import (
	"regexp"
	"strings"
)

// QueryVerdict 查询安全检查结论
type QueryVerdict int

const (
	VerdictOK            QueryVerdict = iota // 正常查询
	VerdictInjection                         // 提示注入尝试
	VerdictInappropriate                     // 不当请求
	VerdictOffTopic                          // 与文档无关的通用闲聊
)

// String returns a stable label for logs and result metadata.
func (v QueryVerdict) String() string {
	switch v {
	case VerdictInjection:
		return "injection"
	case VerdictInappropriate:
		return "inappropriate"
	case VerdictOffTopic:
		return "off_topic"
	default:
		return "ok"
	}
}

// 提示注入特征。宁可误杀通用指令句式，也不把注入放进模型上下文。
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(ignore|disregard)\s+(all\s+|the\s+)?(above|previous)\s+(instructions|prompt)`),
	regexp.MustCompile(`(?i)pretend\s+to\s+be`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+`),
	regexp.MustCompile(`(?i)act\s+as\s+`),
	regexp.MustCompile(`(?i)forget\s+all\s+previous\s+instructions`),
	regexp.MustCompile(`(?i)repeat\s+after\s+me`),
	regexp.MustCompile(`(?i)\b(shutdown|reset|override|bypass)\b`),
	regexp.MustCompile(`(?i)i'?m\s+testing\s+for\s+prompt\s+injection`),
	regexp.MustCompile(`(?i)as\s+an\s+ai\s+language\s+model`),
}

var inappropriatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)generate\s.*harmful\s.*content`),
	regexp.MustCompile(`(?i)create\s.*offensive\s.*material`),
	regexp.MustCompile(`(?i)help\s.*illegal\s.*activity`),
}

// 与任何文档都无关的常见闲聊句式，直接短路不做检索
var genericOffTopicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)what.*time.*is.*it`),
	regexp.MustCompile(`(?i)what.*weather.*like`),
	regexp.MustCompile(`(?i)tell.*me.*joke`),
	regexp.MustCompile(`(?i)how.*are.*you.*today`),
}

// CheckQuery 对用户查询做检索前的安全筛查
func CheckQuery(query string) QueryVerdict {
	q := strings.TrimSpace(query)
	if q == "" {
		return VerdictOK
	}

	for _, p := range injectionPatterns {
		if p.MatchString(q) {
			return VerdictInjection
		}
	}
	for _, p := range inappropriatePatterns {
		if p.MatchString(q) {
			return VerdictInappropriate
		}
	}
	for _, p := range genericOffTopicPatterns {
		if p.MatchString(q) {
			return VerdictOffTopic
		}
	}
	return VerdictOK
}
