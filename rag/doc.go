// Copyright 2025-2026 DocQuill Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

Package rag 提供 DocQuill 的检索增强生成实现：文档以第一人称回答
关于自身内容的提问。

该包覆盖管线的全部阶段：文档加载、递归分块、向量存储、相似度检索、
查询安全检查和流式问答引擎，并提供工厂函数从全局配置一键创建后端。

# 核心接口/类型

  - VectorStore — 向量数据库统一接口（AddDocuments / Search / Delete / Update / Count）
  - Tokenizer — 分块专用分词器接口（tiktoken 或字符估算）
  - DocumentChunker — 递归分块器，在段落/句子边界分割
  - Retriever — 相似度检索器，附带 SimilarityMetrics 相关性统计
  - DocumentRAG — 问答引擎，Query 同步返回，QueryStream 返回
    stream.Source 以接入减震器流水线

# 主要能力

  - 文档分块：递归与固定大小两种策略，token 计数基于 tiktoken
  - 向量存储后端：InMemory / Qdrant（REST API）
  - 安全检查：提示注入与离题模式检测，在检索之前短路
  - 相关性分级：按余弦距离分为 high / medium / low 三档
  - 流式问答：LLM 流式输出直接作为 stream.Source 暴露，完成信号
    携带答案全文、来源块和相似度指标
*/
package rag
