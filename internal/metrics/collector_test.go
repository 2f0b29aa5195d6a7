package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

// promauto 注册到全局 Registry，用唯一 namespace 避免测试间冲突
func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.llmRequestsTotal)
	assert.NotNil(t, collector.embedRequestsTotal)
	assert.NotNil(t, collector.queriesTotal)
	assert.NotNil(t, collector.documentsIngested)
	assert.NotNil(t, collector.cacheHits)
}

func TestCollector_RecordLLMRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordLLMRequest("openai", "gpt-4o-mini", "success", 500*time.Millisecond, 100, 50)

	assert.Greater(t, testutil.CollectAndCount(collector.llmRequestsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.llmTokensUsed), 0)
}

func TestCollector_RecordEmbeddingRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordEmbeddingRequest("openai-embedding", "success", 100*time.Millisecond, 32)

	assert.Greater(t, testutil.CollectAndCount(collector.embedRequestsTotal), 0)
	assert.InDelta(t, 32,
		testutil.ToFloat64(collector.embedTextsTotal.WithLabelValues("openai-embedding")), 1e-9)
}

func TestCollector_RecordQuery(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordQuery("ok")
	collector.RecordQuery("ok")
	collector.RecordQuery("injection")

	assert.InDelta(t, 2, testutil.ToFloat64(collector.queriesTotal.WithLabelValues("ok")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(collector.queriesTotal.WithLabelValues("injection")), 1e-9)
}

func TestCollector_RecordIngest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordIngest(12)
	collector.RecordIngest(3)

	assert.InDelta(t, 2, testutil.ToFloat64(collector.documentsIngested), 1e-9)
	assert.InDelta(t, 15, testutil.ToFloat64(collector.chunksIngested), 1e-9)
}

func TestCollector_RecordCache(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordCacheHit("embedding")
	collector.RecordCacheMiss("embedding")
	collector.RecordCacheMiss("embedding")

	assert.InDelta(t, 1, testutil.ToFloat64(collector.cacheHits.WithLabelValues("embedding")), 1e-9)
	assert.InDelta(t, 2, testutil.ToFloat64(collector.cacheMisses.WithLabelValues("embedding")), 1e-9)
}
