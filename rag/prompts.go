package rag

import (
	"fmt"
	"strings"
)

// Canned responses returned without calling the model.
const (
	// InjectionResponse 检测到提示注入时的固定回复
	InjectionResponse = "I'm here to help you understand my content. Please ask me questions about what I contain."

	// OffTopicResponse 查询与文档无关时的固定回复
	OffTopicResponse = "I'm afraid I don't know much about that. I only contain information related to my specific content."

	// ErrorResponse 生成失败时的兜底回复
	ErrorResponse = "I'm sorry, I encountered an error while trying to answer your question. Please try rephrasing it."
)

// SystemPrompt 文档第一人称系统提示
const SystemPrompt = "You are a helpful AI assistant that represents a document. " +
	"Respond in first person as if you are the document itself. " +
	"Answer only from the provided context. If the context does not contain the answer, say so honestly."

// ChatTurn 一轮历史对话
type ChatTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// BuildQAPrompt 组装主问答提示：检索上下文、相似度统计、对话历史与当前问题。
func BuildQAPrompt(result *RetrievalResult, history []ChatTurn, question string) string {
	var b strings.Builder

	b.WriteString("I am answering as the document itself, in first person.\n\n")

	if result != nil && len(result.Documents) > 0 {
		fmt.Fprintf(&b, "Best Similarity Distance: %.3f\n", result.Metrics.MinDistance)
		fmt.Fprintf(&b, "Average Similarity Distance: %.3f\n\n", result.Metrics.AverageDistance)

		b.WriteString("Retrieved Context:\n")
		for i, doc := range result.Documents {
			fmt.Fprintf(&b, "[%d] (distance %.3f)\n%s\n\n", i+1, doc.Distance, doc.Document.Content)
		}
	}

	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", turn.Question, turn.Answer)
		}
		b.WriteString("\n")
	}

	b.WriteString("Instructions:\n")
	b.WriteString("- Speak as \"I\", the document, never as an external assistant.\n")
	b.WriteString("- Use only the retrieved context above; do not invent facts.\n")
	b.WriteString("- If the context is insufficient, say that I do not contain that information.\n\n")

	fmt.Fprintf(&b, "User Question: %s", question)

	return b.String()
}

// BuildSummaryPrompt 组装文档自我介绍提示
func BuildSummaryPrompt(result *RetrievalResult) string {
	var b strings.Builder

	b.WriteString("I am a document that wants to introduce myself to a reader.\n\n")
	if result != nil {
		b.WriteString("Representative passages from my content:\n")
		for i, doc := range result.Documents {
			fmt.Fprintf(&b, "[%d] %s\n\n", i+1, doc.Document.Content)
		}
	}
	b.WriteString("Write a short first-person introduction: what I am about, ")
	b.WriteString("what topics I cover, and what kinds of questions I can answer.")

	return b.String()
}
