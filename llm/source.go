package llm

import (
	"context"
	"io"

	"github.com/docquill/docquill/stream"
)

// ChunkSource 把 Provider.Stream 返回的分片通道适配为 stream.Source，
// 使 LLM 流式输出可以直接接入减震器流水线。通道关闭映射为 io.EOF
// （隐式耗尽），分片携带的错误原样上抛并终止流。
func ChunkSource(ch <-chan StreamChunk) stream.Source {
	return stream.SourceFunc(func(ctx context.Context) (stream.SourceEvent, error) {
		select {
		case <-ctx.Done():
			return stream.SourceEvent{}, ctx.Err()
		case chunk, ok := <-ch:
			if !ok {
				return stream.SourceEvent{}, io.EOF
			}
			if chunk.Err != nil {
				return stream.SourceEvent{}, chunk.Err
			}
			return stream.SourceEvent{Text: chunk.Delta.Content}, nil
		}
	})
}
