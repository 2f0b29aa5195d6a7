// Copyright 2025-2026 DocQuill Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
包 embedding 提供统一的文本嵌入接口与多服务商实现，用于将文档分块
与查询转换为向量表示，支撑语义检索。

# 概述

不同嵌入服务商在 API 格式、认证方式与输入类型语义上存在差异。
本包通过 Provider 接口屏蔽这些差异，使检索层可以在不修改调用
代码的前提下切换底层嵌入服务。

# 核心接口

  - Provider：统一嵌入接口，定义 Embed、EmbedQuery、EmbedDocuments 等方法。
  - EmbeddingRequest / EmbeddingResponse：标准化的请求与响应模型。
  - BaseProvider：公共基类，封装 HTTP 请求、错误映射与批量辅助方法。

# 主要能力

  - 多服务商支持：内置 OpenAI 与 Mistral 两种实现。
  - 缓存包装：CachedProvider 以内容哈希为键缓存向量，重复嵌入零开销。
  - 安全 HTTP：通过 tlsutil.SecureHTTPClient 建立安全连接。
*/
package embedding
