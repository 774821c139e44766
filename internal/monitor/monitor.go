// Package monitor collects in-memory usage statistics for the question
// answering service.
package monitor

import (
	"sort"
	"sync"
	"time"
)

// latencyWindow bounds how many recent response times feed the average.
const latencyWindow = 1000

const hourBucket = "2006-01-02T15"

// topQueryLimit caps the ranked query list.
const topQueryLimit = 10

// Sample describes one handled request. Citations holds the cited
// document names, one entry per citation.
type Sample struct {
	Query     string
	Latency   time.Duration
	Citations []string
	IsError   bool
}

// Stats is the aggregate view returned by Snapshot.
type Stats struct {
	TotalRequests       int            `json:"totalRequests"`
	RequestsByHour      map[string]int `json:"requestsByHour"`
	AverageResponseTime float64        `json:"averageResponseTime"`
	ErrorRate           float64        `json:"errorRate"`
	TopQueries          []QueryCount   `json:"topQueries"`
	CitationsUsed       map[string]int `json:"citationsUsed"`
}

// QueryCount pairs a query string with how often it was asked.
type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// Collector accumulates samples. All methods are safe for concurrent use.
type Collector struct {
	mu         sync.Mutex
	total      int
	errors     int
	citations  map[string]int
	byHour     map[string]int
	topQueries []QueryCount
	latencies  []time.Duration

	now func() time.Time
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		citations: make(map[string]int),
		byHour:    make(map[string]int),
		now:       time.Now,
	}
}

// Record folds one sample into the aggregates.
func (c *Collector) Record(s Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	c.byHour[c.now().UTC().Format(hourBucket)]++
	if s.Query != "" {
		c.bumpQuery(s.Query)
	}
	if s.IsError {
		c.errors++
	}
	for _, doc := range s.Citations {
		c.citations[doc]++
	}

	c.latencies = append(c.latencies, s.Latency)
	if len(c.latencies) > latencyWindow {
		c.latencies = c.latencies[len(c.latencies)-latencyWindow:]
	}
}

// bumpQuery upserts the query into the ranked list, re-sorts, and
// truncates to the cap. The list itself is the storage: a query pushed
// out of the top ten loses its count and starts over at one if asked
// again. Caller holds the lock.
func (c *Collector) bumpQuery(query string) {
	found := false
	for i := range c.topQueries {
		if c.topQueries[i].Query == query {
			c.topQueries[i].Count++
			found = true
			break
		}
	}
	if !found {
		c.topQueries = append(c.topQueries, QueryCount{Query: query, Count: 1})
	}
	// Stable sort keeps insertion order on ties, so a fresh query never
	// displaces an established one with the same count.
	sort.SliceStable(c.topQueries, func(i, j int) bool {
		return c.topQueries[i].Count > c.topQueries[j].Count
	})
	if len(c.topQueries) > topQueryLimit {
		c.topQueries = c.topQueries[:topQueryLimit]
	}
}

// Snapshot returns the current aggregates. Maps and the query list are
// copies, safe to serialize after further recording.
func (c *Collector) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	byHour := make(map[string]int, len(c.byHour))
	for k, v := range c.byHour {
		byHour[k] = v
	}
	citations := make(map[string]int, len(c.citations))
	for k, v := range c.citations {
		citations[k] = v
	}
	topQueries := make([]QueryCount, len(c.topQueries))
	copy(topQueries, c.topQueries)

	stats := Stats{
		TotalRequests:  c.total,
		RequestsByHour: byHour,
		TopQueries:     topQueries,
		CitationsUsed:  citations,
	}
	if len(c.latencies) > 0 {
		var sum time.Duration
		for _, d := range c.latencies {
			sum += d
		}
		stats.AverageResponseTime = float64(sum.Milliseconds()) / float64(len(c.latencies))
	}
	if c.total > 0 {
		stats.ErrorRate = float64(c.errors) / float64(c.total)
	}
	return stats
}

// Reset discards all accumulated samples.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total = 0
	c.errors = 0
	c.citations = make(map[string]int)
	c.byHour = make(map[string]int)
	c.topQueries = nil
	c.latencies = nil
}
