// Copyright 2025-2026 DocQuill Authors. All rights reserved.
// Use of this source code is governed by the project license.

// Package config 提供 DocQuill 的统一配置加载。
//
// 配置优先级：默认值 → YAML 文件 → 环境变量（前缀 DOCQUILL）。
//
// 使用方法：
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("docquill.yaml").
//	    Load()
//
// Watcher 提供基于轮询的配置文件变更监听，用于热重载。
package config
