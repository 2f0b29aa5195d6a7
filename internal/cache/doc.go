// Copyright 2025-2026 DocQuill Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
包 cache 提供基于 Redis 的缓存管理。

# 概述

Manager 封装 go-redis 客户端，提供字符串与 JSON 两种读写接口，
统一 TTL 与错误语义。DocQuill 用它缓存嵌入向量，避免对同一文本
重复调用嵌入服务。

# 主要能力

  - Get/Set：字符串读写，未命中返回 ErrCacheMiss。
  - GetJSON/SetJSON：任意可序列化值的读写。
  - Delete/Ping/Close：生命周期管理。

测试使用 miniredis，无需真实 Redis 实例。
*/
package cache
