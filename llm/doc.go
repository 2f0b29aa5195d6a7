// Copyright 2025-2026 DocQuill Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
包 llm 提供统一的大语言模型接入层，屏蔽不同模型服务商在接口、
鉴权、错误语义和流式协议上的差异。

# 概述

DocQuill 以"文档第一人称"生成回答，底层可以接入任何 OpenAI 兼容的
聊天补全服务（OpenAI、Mistral、Ollama 等）。本包定义统一的请求与
响应模型，以及把流式分片接入 stream 减震器的适配器。

# 核心接口

  - [Provider]：LLM 提供者接口，提供 Completion / Stream / HealthCheck / Name
  - [ChatRequest] / [ChatResponse]：聊天请求与响应
  - [StreamChunk]：流式输出分片
  - [Error]：统一错误结构，携带错误码、HTTP 状态与可重试标记
  - [ChunkSource]：把 StreamChunk 通道适配为 stream.Source

# 相关子包

- llm/providers/openaicompat：OpenAI 兼容服务商的通用实现。
- llm/embedding：文本嵌入 Provider 接口与实现。
*/
package llm
