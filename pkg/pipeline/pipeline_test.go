package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/flat/pkg/aggregate"
	"github.com/matzehuels/flat/pkg/cache"
	"github.com/matzehuels/flat/pkg/chart"
	"github.com/matzehuels/flat/pkg/dataset"
	"github.com/matzehuels/flat/pkg/errors"
	"github.com/matzehuels/flat/pkg/observability"
	"github.com/matzehuels/flat/pkg/source/mongo"
)

const animals = `{"headers": ["animal", "weight"], "rows": [
  ["whale", 40000], ["shark", 120], ["shark", 80],
  ["tiger", 200], ["tiger", 180], ["tiger", 220]
]}`

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "animals.json")
	if err := os.WriteFile(path, []byte(animals), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOptionsSetDefaults(t *testing.T) {
	var o Options
	o.SetDefaults()
	if o.Kind != DefaultKind {
		t.Errorf("Kind = %q, want %q", o.Kind, DefaultKind)
	}
	if o.Logger == nil {
		t.Error("Logger should default to a discarding logger")
	}
	if o.Chart.Width != chart.DefaultWidth {
		t.Errorf("Chart.Width = %d, want %d", o.Chart.Width, chart.DefaultWidth)
	}
}

func TestOptionsValidate(t *testing.T) {
	d, _ := dataset.New("animal")
	mongoCfg := &mongo.Config{URI: "mongodb://localhost", Database: "zoo", Collection: "animals", Fields: []string{"animal"}}

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"path", Options{Path: "zoo.json", Kind: "bar"}, ""},
		{"dataset", Options{Dataset: d, Kind: "DAG"}, ""},
		{"dataset wins over path", Options{Dataset: d, Path: "zoo.json", Kind: "path"}, ""},
		{"mongo", Options{Mongo: mongoCfg, Kind: "histogram"}, ""},
		{"no source", Options{Kind: "bar"}, errors.ErrCodeInvalidInput},
		{"two sources", Options{Path: "zoo.json", Mongo: mongoCfg, Kind: "bar"}, errors.ErrCodeInvalidInput},
		{"bad path", Options{Path: "zoo\x00.json", Kind: "bar"}, errors.ErrCodeInvalidPath},
		{"bad mongo", Options{Mongo: &mongo.Config{URI: "mongodb://localhost"}, Kind: "bar"}, errors.ErrCodeInvalidInput},
		{"unknown kind", Options{Path: "zoo.json", Kind: "pie"}, errors.ErrCodeInvalidInput},
		{"negative workers", Options{Path: "zoo.json", Kind: "bar", Workers: -1}, errors.ErrCodeInvalidInput},
		{"negative width", Options{Path: "zoo.json", Kind: "bar", Chart: chart.Options{Width: -1}}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.code == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("Validate() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestOptionsValidateNormalizesKind(t *testing.T) {
	o := Options{Path: "zoo.json", Kind: " Dag "}
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if o.Kind != chart.KindDag {
		t.Errorf("Kind = %q, want %q", o.Kind, chart.KindDag)
	}
}

func TestChartKeyOpts(t *testing.T) {
	o := Options{
		Kind:  chart.KindDag,
		Roles: dataset.RoleNames{Primary: "animal", Value: "weight"},
		Chart: chart.Options{Aggregate: aggregate.Average, Width: 80},
	}
	got := o.ChartKeyOpts()
	if got.Kind != "dag" || got.Primary != "animal" || got.Value != "weight" || got.Aggregate != "average" || got.Width != 80 {
		t.Errorf("ChartKeyOpts() = %+v", got)
	}

	keyer := cache.NewDefaultKeyer()
	other := o
	other.Chart.Aggregate = aggregate.Max
	if keyer.ChartKey("h", o.ChartKeyOpts()) == keyer.ChartKey("h", other.ChartKeyOpts()) {
		t.Error("different aggregates should produce different chart keys")
	}
}

func TestExecute(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	result, err := runner.Execute(context.Background(), Options{
		Path:  writeDataset(t),
		Roles: dataset.RoleNames{Display: []string{"animal"}},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := strings.Join([]string{
		"animal  |Sum(Count)",
		"shark   |**",
		"tiger   |***",
		"whale   |*",
	}, "\n")
	if result.Chart != want {
		t.Errorf("Chart =\n%s\nwant\n%s", result.Chart, want)
	}
	if result.Stats.Rows != 6 {
		t.Errorf("Stats.Rows = %d, want 6", result.Stats.Rows)
	}
	if result.Stats.Summary.Count != 6 || result.Stats.Summary.Sum != 6 {
		t.Errorf("Stats.Summary = %+v, want 6 counted records", result.Stats.Summary)
	}
	if len(result.DatasetHash) != 64 {
		t.Errorf("DatasetHash = %q, want a sha256 hex digest", result.DatasetHash)
	}
	if result.CacheInfo.ChartHit {
		t.Error("NullCache should never hit")
	}
}

func TestExecuteMeasured(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	result, err := runner.Execute(context.Background(), Options{
		Path:  writeDataset(t),
		Roles: dataset.RoleNames{Primary: "animal", Value: "weight"},
		Chart: chart.Options{Aggregate: aggregate.Max, ShowAggregate: true},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := result.Stats.Summary.Result(aggregate.Max); got != 40000 {
		t.Errorf("Summary max = %v, want 40000", got)
	}
	header := strings.SplitN(result.Chart, "\n", 2)[0]
	if !strings.HasPrefix(header, "animal Max") || !strings.HasSuffix(header, "|Max(weight)") {
		t.Errorf("Chart =\n%s\nwant a Max(weight) header", result.Chart)
	}
}

func TestExecuteCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	ctx := context.Background()
	opts := Options{Path: writeDataset(t), Kind: chart.KindDag}

	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if first.CacheInfo.ChartHit {
		t.Error("first run should miss")
	}

	second, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !second.CacheInfo.ChartHit {
		t.Error("second run should hit")
	}
	if second.Chart != first.Chart {
		t.Errorf("cached Chart =\n%s\nwant\n%s", second.Chart, first.Chart)
	}

	opts.Refresh = true
	third, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if third.CacheInfo.ChartHit {
		t.Error("refresh should bypass the cache")
	}

	opts.Refresh = false
	opts.Chart.Width = 60
	fourth, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if fourth.CacheInfo.ChartHit {
		t.Error("changed options should miss")
	}
}

func TestExecuteCacheSeparatesValueTypes(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	floats, _ := dataset.New("latency")
	ints, _ := dataset.New("latency")
	for i := range 10 {
		if err := floats.Add(float64(i)); err != nil {
			t.Fatal(err)
		}
		if err := ints.Add(int64(i)); err != nil {
			t.Fatal(err)
		}
	}

	ctx := context.Background()
	opts := Options{Kind: chart.KindHistogram, Chart: chart.Options{Bins: 5}}

	opts.Dataset = floats
	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute(floats) error = %v", err)
	}
	opts.Dataset = ints
	second, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute(ints) error = %v", err)
	}

	if second.CacheInfo.ChartHit {
		t.Error("an integer dataset should not hit the chart of a float dataset")
	}
	if first.DatasetHash == second.DatasetHash {
		t.Errorf("DatasetHash = %s for both value types", first.DatasetHash)
	}
	if !strings.Contains(first.Chart, "[0, 1.8)") {
		t.Errorf("float Chart =\n%s\nwant exact bin widths", first.Chart)
	}
	if !strings.Contains(second.Chart, "[0, 2)") || !strings.Contains(second.Chart, "[8, 10]") {
		t.Errorf("integer Chart =\n%s\nwant whole-number bin widths", second.Chart)
	}
}

func TestHashDataset(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b any
		same bool
	}{
		{"equal ints", int64(3), int64(3), true},
		{"int and float", int64(3), float64(3), false},
		{"time and text", when, when.Format(time.RFC3339), false},
		{"bool and text", true, "true", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := dataset.New("v")
			b, _ := dataset.New("v")
			if err := a.Add(tt.a); err != nil {
				t.Fatal(err)
			}
			if err := b.Add(tt.b); err != nil {
				t.Fatal(err)
			}
			if got := HashDataset(a) == HashDataset(b); got != tt.same {
				t.Errorf("HashDataset(%v) == HashDataset(%v) is %v, want %v", tt.a, tt.b, got, tt.same)
			}
		})
	}
}

func TestExecuteInMemory(t *testing.T) {
	d, _ := dataset.New("latency")
	for _, v := range []int64{12, 18, 25, 31, 33} {
		if err := d.Add(v); err != nil {
			t.Fatal(err)
		}
	}

	result, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		Dataset: d,
		Kind:    chart.KindHistogram,
		Chart:   chart.Options{Bins: 3},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := strings.Join([]string{
		"latency   |Sum(Count)",
		"[12, 19)  |**",
		"[19, 26)  |*",
		"[26, 33]  |**",
	}, "\n")
	if result.Chart != want {
		t.Errorf("Chart =\n%s\nwant\n%s", result.Chart, want)
	}
}

func TestExecuteErrors(t *testing.T) {
	path := writeDataset(t)

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing file", Options{Path: filepath.Join(t.TempDir(), "missing.json")}, errors.ErrCodeFileNotFound},
		{"unknown column", Options{Path: path, Roles: dataset.RoleNames{Primary: "colour"}}, errors.ErrCodeInvalidColumn},
		{"non-numeric histogram", Options{Path: path, Kind: chart.KindHistogram}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(nil, nil, nil).Execute(context.Background(), tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("Execute() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	d, _ := dataset.New("v")
	for i := 1; i <= 10000; i++ {
		_ = d.Add(i)
	}
	v, err := d.Reflective()
	if err != nil {
		t.Fatalf("Reflective() error = %v", err)
	}

	acc, err := Summarize(context.Background(), v, 4)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if acc.Count != 10000 || acc.Sum != 50005000 || acc.Min != 1 || acc.Max != 10000 {
		t.Errorf("Summarize() = %+v", acc)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) record(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnLoadStart(context.Context, string) { h.record("load") }
func (h *recordingHooks) OnLoadComplete(_ context.Context, _ string, rows int, _ time.Duration, err error) {
	h.record("loaded")
}
func (h *recordingHooks) OnRenderStart(context.Context, string, int) { h.record("render") }
func (h *recordingHooks) OnRenderComplete(context.Context, string, time.Duration, error) {
	h.record("rendered")
}

func TestExecuteHooks(t *testing.T) {
	observability.Reset()
	defer observability.Reset()

	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)

	if _, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{Path: writeDataset(t)}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := []string{"load", "loaded", "render", "rendered"}
	if strings.Join(hooks.events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", hooks.events, want)
	}
}
