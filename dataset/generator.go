// Package dataset generates deterministic synthetic event logs shaped for
// toon.EventSchema.
package dataset

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Neumenon/toon/toon"
)

// Value pools. Weighted pools list (value, weight) pairs in a fixed order so
// generation is reproducible.
var (
	Services = []string{"auth-service", "payment-service", "data-pipeline", "web-server", "notification-service"}
	Regions  = []string{"us-east-1", "us-west-2", "eu-central-1", "ap-northeast-1"}
	Types    = []string{"auth", "payment", "system", "network", "job"}
	TagsPool = []string{"auth", "payment", "infra", "edge", "batch", "critical"}

	envWeights      = []weighted[string]{{"prod", 0.70}, {"staging", 0.20}, {"dev", 0.10}}
	statusWeights   = []weighted[string]{{"success", 0.60}, {"failed", 0.25}, {"warning", 0.15}}
	severityWeights = []weighted[int64]{{1, 0.1}, {2, 0.25}, {3, 0.3}, {4, 0.25}, {5, 0.1}}
	outcomes        = []string{"completed", "failed", "retrying"}
)

type weighted[T any] struct {
	value  T
	weight float64
}

// Metadata is the nested part of an Event.
type Metadata struct {
	RequestID  string   `json:"request_id"`
	UserID     string   `json:"user_id"`
	Region     string   `json:"region"`
	RetryCount int64    `json:"retry_count"`
	LatencyMS  float64  `json:"latency_ms"`
	Tags       []string `json:"tags"`
}

// Event is one synthetic log record.
type Event struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	Service   string   `json:"service"`
	Env       string   `json:"env"`
	Type      string   `json:"type"`
	Status    string   `json:"status"`
	Severity  int64    `json:"severity"`
	Source    string   `json:"source"`
	Metadata  Metadata `json:"metadata"`
	Message   string   `json:"message"`
}

// Record converts the event into a codec record.
func (e Event) Record() toon.Record {
	tags := make([]string, len(e.Metadata.Tags))
	copy(tags, e.Metadata.Tags)
	return toon.Record{
		"id":        e.ID,
		"timestamp": e.Timestamp,
		"service":   e.Service,
		"env":       e.Env,
		"type":      e.Type,
		"status":    e.Status,
		"severity":  e.Severity,
		"source":    e.Source,
		"metadata": map[string]any{
			"request_id":  e.Metadata.RequestID,
			"user_id":     e.Metadata.UserID,
			"region":      e.Metadata.Region,
			"retry_count": e.Metadata.RetryCount,
			"latency_ms":  e.Metadata.LatencyMS,
			"tags":        tags,
		},
		"message": e.Message,
	}
}

// Records converts a slice of events.
func Records(events []Event) []toon.Record {
	out := make([]toon.Record, len(events))
	for i, e := range events {
		out[i] = e.Record()
	}
	return out
}

// Options configures a Generator.
type Options struct {
	Seed  uint64
	Count int

	// Now anchors the 7-day timestamp window. Zero means time.Now().
	Now time.Time
}

// DefaultOptions returns the reference seed and size.
func DefaultOptions() Options {
	return Options{Seed: 42, Count: 200}
}

// Generator produces events from a seeded source.
type Generator struct {
	opts Options
	src  *rand.ChaCha8
	rng  *rand.Rand
	end  time.Time
}

// NewGenerator creates a generator. Two generators with the same options
// produce identical output.
func NewGenerator(opts Options) *Generator {
	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:8], opts.Seed)
	src := rand.NewChaCha8(seed)

	end := opts.Now
	if end.IsZero() {
		end = time.Now()
	}

	return &Generator{
		opts: opts,
		src:  src,
		rng:  rand.New(src),
		end:  end.UTC().Truncate(time.Second),
	}
}

// Generate returns Count events sorted by timestamp, then id.
func (g *Generator) Generate() ([]Event, error) {
	events := make([]Event, 0, g.opts.Count)
	for i := 0; i < g.opts.Count; i++ {
		e, err := g.Event()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

// Event generates a single event.
func (g *Generator) Event() (Event, error) {
	id, err := uuid.NewRandomFromReader(g.src)
	if err != nil {
		return Event{}, fmt.Errorf("dataset: generate id: %w", err)
	}

	env := pick(g.rng, envWeights)
	status := pick(g.rng, statusWeights)
	severity := pick(g.rng, severityWeights)

	tags := g.sample(TagsPool, g.rng.IntN(4))
	sort.Strings(tags)

	var retries int64
	if status == "failed" {
		retries = int64(g.rng.IntN(6))
	}

	return Event{
		ID:        id.String(),
		Timestamp: g.timestamp(),
		Service:   g.choice(Services),
		Env:       env,
		Type:      g.choice(Types),
		Status:    status,
		Severity:  severity,
		Source:    fmt.Sprintf("%s/instance-%d", g.choice(Regions), 1000+g.rng.IntN(9000)),
		Metadata: Metadata{
			RequestID:  fmt.Sprintf("req-%08x", g.rng.Uint32()),
			UserID:     fmt.Sprintf("usr-%d", 1000+g.rng.IntN(9000)),
			Region:     g.choice(Regions),
			RetryCount: retries,
			LatencyMS:  math.Round((10+g.rng.Float64()*4990)*100) / 100,
			Tags:       tags,
		},
		Message: fmt.Sprintf("Operation %s for %s environment.", g.choice(outcomes), env),
	}, nil
}

// timestamp returns a second-aligned RFC 3339 time within 7 days before end.
func (g *Generator) timestamp() string {
	const window = 7 * 24 * 60 * 60
	offset := time.Duration(g.rng.IntN(window+1)) * time.Second
	return g.end.Add(-window * time.Second).Add(offset).Format(time.RFC3339)
}

func (g *Generator) choice(pool []string) string {
	return pool[g.rng.IntN(len(pool))]
}

func (g *Generator) sample(pool []string, n int) []string {
	idx := g.rng.Perm(len(pool))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}

func pick[T any](rng *rand.Rand, choices []weighted[T]) T {
	var total float64
	for _, c := range choices {
		total += c.weight
	}
	r := rng.Float64() * total
	for _, c := range choices {
		if r < c.weight {
			return c.value
		}
		r -= c.weight
	}
	return choices[len(choices)-1].value
}
