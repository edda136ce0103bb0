// Package metrics provides per-invocation metrics collection.
//
// The Collector accumulates counters during a single stax invocation.
// It is a leaf package with no internal dependencies; callers absorb
// per-script outcomes at completion rather than recording them live.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after
// creation.
type Snapshot struct {
	// Script lifecycle
	ScriptsStarted   int64
	ScriptsSucceeded int64
	ScriptsFailed    int64
	ScriptsKilled    int64

	// Process launches
	LaunchSuccess int64
	LaunchFailure int64

	// Package cache
	CacheHits       int64
	CacheMisses     int64
	PackagesFetched int64

	// Notification
	NotifySuccess int64
	NotifyFailure int64

	// Dimensions (informational, set at construction)
	RunID   string
	Project string
}

// Collector accumulates metrics during a single invocation.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver
// safe, so instrumented code paths need no collector-presence checks.
type Collector struct {
	mu sync.Mutex

	scriptsStarted   int64
	scriptsSucceeded int64
	scriptsFailed    int64
	scriptsKilled    int64

	launchSuccess int64
	launchFailure int64

	cacheHits       int64
	cacheMisses     int64
	packagesFetched int64

	notifySuccess int64
	notifyFailure int64

	runID   string
	project string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(runID, project string) *Collector {
	return &Collector{runID: runID, project: project}
}

// --- Script lifecycle ---

// IncScriptStarted records a script run start.
func (c *Collector) IncScriptStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.scriptsStarted++
	c.mu.Unlock()
}

// IncScriptSucceeded records a clean script completion.
func (c *Collector) IncScriptSucceeded() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.scriptsSucceeded++
	c.mu.Unlock()
}

// IncScriptFailed records a script that completed with errors.
func (c *Collector) IncScriptFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.scriptsFailed++
	c.mu.Unlock()
}

// IncScriptKilled records a script terminated by signal.
func (c *Collector) IncScriptKilled() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.scriptsKilled++
	c.mu.Unlock()
}

// --- Process launches ---

// IncLaunchSuccess records a successful interpreter launch.
func (c *Collector) IncLaunchSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.launchSuccess++
	c.mu.Unlock()
}

// IncLaunchFailure records a failed interpreter launch.
func (c *Collector) IncLaunchFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.launchFailure++
	c.mu.Unlock()
}

// --- Package cache ---

// IncCacheHit records a package served from the local cache.
func (c *Collector) IncCacheHit() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.cacheHits++
	c.mu.Unlock()
}

// IncCacheMiss records a package absent from the local cache.
func (c *Collector) IncCacheMiss() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.cacheMisses++
	c.mu.Unlock()
}

// IncPackageFetched records a package downloaded from its channel.
func (c *Collector) IncPackageFetched() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.packagesFetched++
	c.mu.Unlock()
}

// --- Notification ---

// IncNotifySuccess records a delivered webhook notification.
func (c *Collector) IncNotifySuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.notifySuccess++
	c.mu.Unlock()
}

// IncNotifyFailure records a webhook notification that exhausted its
// retries.
func (c *Collector) IncNotifyFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.notifyFailure++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all counters.
// The returned Snapshot is safe to read concurrently; the Collector
// can continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		ScriptsStarted:   c.scriptsStarted,
		ScriptsSucceeded: c.scriptsSucceeded,
		ScriptsFailed:    c.scriptsFailed,
		ScriptsKilled:    c.scriptsKilled,

		LaunchSuccess: c.launchSuccess,
		LaunchFailure: c.launchFailure,

		CacheHits:       c.cacheHits,
		CacheMisses:     c.cacheMisses,
		PackagesFetched: c.packagesFetched,

		NotifySuccess: c.notifySuccess,
		NotifyFailure: c.notifyFailure,

		RunID:   c.runID,
		Project: c.project,
	}
}
