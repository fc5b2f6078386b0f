package neo4j

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	neo4jdrv "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/matzehuels/taxoview/pkg/dataset"
	"github.com/matzehuels/taxoview/pkg/errors"
)

var columns = []string{"child", "parent", "relation", "child_label", "parent_label"}

type fakeRunner struct {
	rows   [][]any
	err    error
	query  string
	params map[string]any
}

func (f *fakeRunner) Run(_ context.Context, query string, params map[string]any) (*neo4jdrv.EagerResult, error) {
	f.query, f.params = query, params
	if f.err != nil {
		return nil, f.err
	}
	res := &neo4jdrv.EagerResult{Keys: columns}
	for _, row := range f.rows {
		res.Records = append(res.Records, &neo4jdrv.Record{Keys: columns, Values: row})
	}
	return res, nil
}

func TestLoaderLoad(t *testing.T) {
	runner := &fakeRunner{rows: [][]any{
		{"Q7377", "Q729", "P279", "mammal", "animal"},
		{"Q144", "Q7377", "SUBCLASS_OF", "dog", "mammal"},
		{"Q5", "Q7377", nil, nil, nil},
		{nil, "Q729", "P279", nil, "animal"},
	}}
	l := &Loader{Runner: runner, Params: map[string]any{"limit": 10}}

	d, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if runner.query != DefaultQuery {
		t.Errorf("query = %q, want DefaultQuery", runner.query)
	}
	if runner.params["limit"] != 10 {
		t.Errorf("params not passed through: %v", runner.params)
	}

	wantHierarchy := [][]string{
		{"Q7377", "P279", "Q729"},
		{"Q144", "SUBCLASS_OF", "Q7377"},
		{"Q5", "", "Q7377"},
	}
	if diff := cmp.Diff(wantHierarchy, d.Hierarchy); diff != "" {
		t.Errorf("Hierarchy mismatch (-want +got):\n%s", diff)
	}
	wantLabels := []dataset.Label{
		{ID: "Q7377", Label: "mammal"},
		{ID: "Q729", Label: "animal"},
		{ID: "Q144", Label: "dog"},
	}
	if diff := cmp.Diff(wantLabels, d.Labels); diff != "" {
		t.Errorf("Labels mismatch (-want +got):\n%s", diff)
	}

	g := d.Graph()
	if got := g.Label("Q5"); got != "Q5" {
		t.Errorf("Label(Q5) = %q, want id fallback", got)
	}
}

func TestLoaderLoad_Errors(t *testing.T) {
	t.Run("no runner", func(t *testing.T) {
		_, err := (&Loader{}).Load(context.Background())
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Load() error = %v, want %s", err, errors.ErrCodeInvalidInput)
		}
	})

	t.Run("runner error", func(t *testing.T) {
		cause := errors.Wrap(errors.ErrCodeNetwork, fmt.Errorf("refused"), "neo4j query")
		_, err := (&Loader{Runner: &fakeRunner{err: cause}}).Load(context.Background())
		if !errors.Is(err, errors.ErrCodeNetwork) {
			t.Errorf("Load() error = %v, want %s", err, errors.ErrCodeNetwork)
		}
	})

	t.Run("custom query and root", func(t *testing.T) {
		runner := &fakeRunner{rows: [][]any{{"a", "b", "P361", nil, nil}}}
		d, err := (&Loader{Runner: runner, Query: "MATCH ...", Root: "b"}).Load(context.Background())
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if runner.query != "MATCH ..." {
			t.Errorf("query = %q", runner.query)
		}
		if got := d.Graph().RootID(); got != "b" {
			t.Errorf("RootID() = %q, want b", got)
		}
	})
}
