// Copyright 2025-2026 DocQuill Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package main 提供 DocQuill 命令行程序入口。

# 概述

cmd/docquill 把文档变成可以对话的第一人称问答体：加载文档、
分块嵌入入库，然后在终端里以打字机节奏流式回答问题。

# 主要能力

  - 子命令：chat（交互式问答）、ask（单次提问）、summary（文档自我
    介绍）、version
  - 配置：YAML 文件 + DOCQUILL_ 环境变量，支持热重载
  - 输出节流：回答经过减震器流水线按字符/单词限速输出，
    数学表达式整体成段显示
  - 结构化日志（zap）、OpenTelemetry 追踪、Prometheus 指标
*/
package main
