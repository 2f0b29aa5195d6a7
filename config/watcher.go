// 配置文件变更监听。
//
// 基于修改时间轮询，带去抖，变更后重新加载并通知回调。
package config

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReloadCallback 在配置成功重载后被调用
type ReloadCallback func(old, new *Config)

// Watcher 轮询配置文件并在内容变更时热重载
type Watcher struct {
	loader       *Loader
	path         string
	pollInterval time.Duration
	logger       *zap.Logger

	mu        sync.RWMutex
	current   *Config
	callbacks []ReloadCallback
	lastMod   time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher 创建监听器并完成首次加载
func NewWatcher(loader *Loader, path string, pollInterval time.Duration, logger *zap.Logger) (*Watcher, error) {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := loader.WithConfigPath(path).Load()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		loader:       loader,
		path:         path,
		pollInterval: pollInterval,
		logger:       logger,
		current:      cfg,
	}
	if info, err := os.Stat(path); err == nil {
		w.lastMod = info.ModTime()
	}
	return w, nil
}

// Current 返回当前配置
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnReload 注册重载回调
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start 启动后台轮询。重复调用无效。
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.loop(ctx)
}

// Stop 停止轮询并等待后台协程退出
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	done := w.done
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.checkOnce()
		}
	}
}

func (w *Watcher) checkOnce() {
	info, err := os.Stat(w.path)
	if err != nil {
		return
	}

	w.mu.RLock()
	unchanged := !info.ModTime().After(w.lastMod)
	w.mu.RUnlock()
	if unchanged {
		return
	}

	cfg, err := w.loader.Load()
	if err != nil {
		// 保留旧配置，等待下一次修改
		w.logger.Warn("config reload failed, keeping previous config",
			zap.String("path", w.path), zap.Error(err))
		return
	}

	w.mu.Lock()
	old := w.current
	w.current = cfg
	w.lastMod = info.ModTime()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Info("config reloaded", zap.String("path", w.path))
	for _, cb := range callbacks {
		cb(old, cfg)
	}
}
