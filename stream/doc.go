// Copyright 2025-2026 DocQuill Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package stream 实现"减震器"流水线：在快速、突发的 LLM 流式输出与
固定节奏的显示层之间解耦生产速率与消费速率。

# 概述

上游 LLM 以不可预测的速率产生文本片段，而显示层需要以人类可读的
节奏（逐字符或逐词）渲染。本包用一条有界 FIFO 通道连接单一生产者
与单一消费者，生产端在通道满时有界等待后丢弃（有损背压），消费端
以轮询+整体截止时间的方式消费，保证永不悬挂。

# 核心类型

  - Config — 流水线配置（节奏单位、延迟、队列容量、超时与截止时间）。
  - Source — 拉取式片段源接口，io.EOF 表示无显式完成信号的耗尽。
  - Sink — 显示回调，每次节奏化发射调用一次，携带当前完整显示文本。
  - Pipeline — 生产者任务 + 消费循环的组合入口（Run）。
  - Result — 唯一的终止结果：全文、已显示文本、完成元数据与错误。

# 主要能力

  - 有损背压：入队有界等待 EnqueueTimeout，超时丢弃片段并计数，绝不死锁。
  - 数学表达式缓冲：$...$ 与 $$...$$ 内的文本被整体扣留，完整后原子发射，
    显示层永远不会看到残缺的公式；流结束时未闭合内容原样冲出。
  - 节奏控制：character / word / instant 三种发射粒度，逐单位延迟 UnitDelay。
  - 截止时间：OverallDeadline 内未完成则合成 ErrDeadlineExceeded 终止，
    已渲染的部分文本随结果一并返回。
*/
package stream
