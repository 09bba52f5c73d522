package cache

// NoopMetrics discards every signal. It is the default when no
// observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()              {}
func (NoopMetrics) Miss()             {}
func (NoopMetrics) Evict(EvictReason) {}
func (NoopMetrics) Resize(int, int64) {}

var _ Metrics = NoopMetrics{}
