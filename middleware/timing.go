package middleware

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gomarten/spur"
)

// Metric names one Server-Timing entry. An empty Desc omits the desc
// parameter.
type Metric struct {
	Name string
	Desc string
}

// Timing is a compiled set of Server-Timing metrics.
type Timing struct {
	metrics []Metric
	index   map[string]int
	// prefix holds the fixed text written before each duration.
	prefix []string
	key    spur.Key[*TimingRecord]
}

var timingSeq atomic.Int64

// NewTiming compiles a metric set. The entries keep the declared order.
func NewTiming(metrics ...Metric) *Timing {
	t := &Timing{
		metrics: append([]Metric(nil), metrics...),
		index:   make(map[string]int, len(metrics)),
		prefix:  make([]string, len(metrics)),
		key:     spur.NewKey[*TimingRecord]("spur.timing." + strconv.FormatInt(timingSeq.Add(1), 10)),
	}
	for i, m := range metrics {
		t.index[m.Name] = i
		p := m.Name
		if m.Desc != "" {
			p += ";desc=" + strconv.Quote(m.Desc)
		}
		t.prefix[i] = p + ";dur="
	}
	return t
}

// New starts an empty record.
func (t *Timing) New() *TimingRecord {
	return &TimingRecord{
		t:     t,
		start: make([]time.Time, len(t.metrics)),
		dur:   make([]time.Duration, len(t.metrics)),
		done:  make([]bool, len(t.metrics)),
	}
}

// Record returns the record of the current request, created by Plug.
func (t *Timing) Record(c *spur.Ctx) *TimingRecord {
	return t.key.Get(c)
}

// Plug gives every later-declared route a record and writes the
// Server-Timing header once the handler has answered.
func (t *Timing) Plug(app *spur.App) {
	app.Action(spur.Set(t.key, func(*spur.Ctx) *TimingRecord { return t.New() }))
	app.Defer(func(_ *spur.Response, c *spur.Ctx) *spur.Response {
		if r := t.key.Get(c); r != nil {
			r.Set(c)
		}
		return nil
	})
}

// TimingRecord measures the metrics of one request. It is not safe for
// concurrent use.
type TimingRecord struct {
	t     *Timing
	start []time.Time
	dur   []time.Duration
	done  []bool
}

// Start begins measuring name. Unknown names are ignored.
func (r *TimingRecord) Start(name string) {
	if i, ok := r.t.index[name]; ok {
		r.start[i] = time.Now()
	}
}

// End stops measuring name.
func (r *TimingRecord) End(name string) {
	if i, ok := r.t.index[name]; ok && !r.start[i].IsZero() {
		r.dur[i] = time.Since(r.start[i])
		r.done[i] = true
	}
}

// Add records a duration measured elsewhere.
func (r *TimingRecord) Add(name string, d time.Duration) {
	if i, ok := r.t.index[name]; ok {
		r.dur[i] = d
		r.done[i] = true
	}
}

// String formats the recorded metrics as a Server-Timing value. Metrics
// that were never ended are left out.
func (r *TimingRecord) String() string {
	var b strings.Builder
	for i, ok := range r.done {
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(r.t.prefix[i])
		b.WriteString(strconv.FormatFloat(float64(r.dur[i])/float64(time.Millisecond), 'f', -1, 64))
	}
	return b.String()
}

// Set writes the Server-Timing header.
func (r *TimingRecord) Set(c *spur.Ctx) {
	if v := r.String(); v != "" {
		c.SetHeader("Server-Timing", v)
	}
}
