// Copyright 2025-2026 DocQuill Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖 LLM、嵌入、
检索、摄取与缓存五个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制。所有指标按 namespace 隔离，支持多维度 label 分组。

# 主要能力

  - LLM 指标：请求总数、请求耗时、Token 用量（prompt/completion），
    按 provider/model 分组。
  - 嵌入指标：请求总数、请求耗时、嵌入文本数，按 provider 分组。
  - 检索指标：查询总数（按结论分组）、检索耗时、命中文档数。
  - 摄取指标：文档数与块数计数。
  - 缓存指标：命中与未命中计数，按 cache_type 分组。

输出节流流水线的指标由 stream 包自行注册。
*/
package metrics
