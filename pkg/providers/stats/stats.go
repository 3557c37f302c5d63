// Package stats 记录补全调用的次数、耗时、令牌与错误分布
package stats

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// PurposeStats 某一用途的累计统计
type PurposeStats struct {
	Purpose            string           `json:"purpose"`
	TotalRequests      int64            `json:"total_requests"`
	SuccessfulRequests int64            `json:"successful_requests"`
	FailedRequests     int64            `json:"failed_requests"`
	TotalTokensIn      int64            `json:"total_tokens_in"`
	TotalTokensOut     int64            `json:"total_tokens_out"`
	MinLatency         time.Duration    `json:"min_latency"`
	MaxLatency         time.Duration    `json:"max_latency"`
	TotalLatency       time.Duration    `json:"total_latency"`
	ErrorTypes         map[string]int64 `json:"error_types"`
	LastRequestTime    time.Time        `json:"last_request_time"`
}

// AverageLatency 平均耗时
func (ps PurposeStats) AverageLatency() time.Duration {
	if ps.TotalRequests == 0 {
		return 0
	}
	return ps.TotalLatency / time.Duration(ps.TotalRequests)
}

// SuccessRate 成功率（百分比）
func (ps PurposeStats) SuccessRate() float64 {
	if ps.TotalRequests == 0 {
		return 0
	}
	return float64(ps.SuccessfulRequests) / float64(ps.TotalRequests) * 100
}

// RequestResult 单次请求结果
type RequestResult struct {
	Success   bool
	Latency   time.Duration
	TokensIn  int
	TokensOut int
	ErrorType string
}

// Recorder 并发安全的统计收集器
type Recorder struct {
	mu    sync.RWMutex
	stats map[string]*PurposeStats
	now   func() time.Time
}

// NewRecorder 创建统计收集器
func NewRecorder() *Recorder {
	return &Recorder{
		stats: make(map[string]*PurposeStats),
		now:   time.Now,
	}
}

// Record 记录请求结果
func (r *Recorder) Record(purpose string, result RequestResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ps, exists := r.stats[purpose]
	if !exists {
		ps = &PurposeStats{Purpose: purpose, ErrorTypes: make(map[string]int64)}
		r.stats[purpose] = ps
	}

	ps.TotalRequests++
	if result.Success {
		ps.SuccessfulRequests++
		ps.TotalTokensIn += int64(result.TokensIn)
		ps.TotalTokensOut += int64(result.TokensOut)
	} else {
		ps.FailedRequests++
		errType := result.ErrorType
		if errType == "" {
			errType = "unknown"
		}
		ps.ErrorTypes[errType]++
	}

	if ps.MinLatency == 0 || result.Latency < ps.MinLatency {
		ps.MinLatency = result.Latency
	}
	if result.Latency > ps.MaxLatency {
		ps.MaxLatency = result.Latency
	}
	ps.TotalLatency += result.Latency
	ps.LastRequestTime = r.now()
}

// Snapshot 返回按用途排序的统计副本
func (r *Recorder) Snapshot() []PurposeStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PurposeStats, 0, len(r.stats))
	for _, ps := range r.stats {
		cp := *ps
		cp.ErrorTypes = make(map[string]int64, len(ps.ErrorTypes))
		for k, v := range ps.ErrorTypes {
			cp.ErrorTypes[k] = v
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Purpose < out[j].Purpose })
	return out
}

// WriteTable 以表格形式输出统计
func (r *Recorder) WriteTable(w io.Writer) {
	snapshot := r.Snapshot()
	if len(snapshot) == 0 {
		fmt.Fprintln(w, "No statistics available.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Purpose", "Requests", "Success%", "Failed", "Avg Latency", "Tokens In", "Tokens Out"})
	for _, ps := range snapshot {
		t.AppendRow(table.Row{
			ps.Purpose,
			ps.TotalRequests,
			fmt.Sprintf("%.1f%%", ps.SuccessRate()),
			ps.FailedRequests,
			ps.AverageLatency().Round(time.Millisecond),
			ps.TotalTokensIn,
			ps.TotalTokensOut,
		})
	}
	t.Render()
}
