package cli

import (
	"testing"

	"github.com/matzehuels/taxoview/pkg/engine"
	"github.com/matzehuels/taxoview/pkg/ontology"
)

// animals is
//
//	entity -> animal -> mammal -> {dog, house cat, human}
//	          animal -> bird -> parrot
//	entity -> person -> human
func animals() *ontology.Graph {
	return ontology.Build([]ontology.Edge{
		{Child: "Q729", Parent: "Q35120"},
		{Child: "Q7377", Parent: "Q729"},
		{Child: "Q5113", Parent: "Q729"},
		{Child: "Q144", Parent: "Q7377"},
		{Child: "Q146", Parent: "Q7377"},
		{Child: "Q5", Parent: "Q7377"},
		{Child: "Q5", Parent: "Q215627"},
		{Child: "Q215627", Parent: "Q35120"},
		{Child: "Q26745", Parent: "Q5113"},
	}, map[string]string{
		"Q35120": "entity", "Q729": "animal", "Q7377": "mammal", "Q5113": "bird",
		"Q144": "dog", "Q146": "house cat", "Q5": "human", "Q215627": "person",
		"Q26745": "parrot",
	})
}

func newTestView(t *testing.T, rootID string, depth int) (*engine.Engine, *engine.View) {
	t.Helper()
	eng := engine.New(animals())
	v, err := eng.NewView(rootID, depth)
	if err != nil {
		t.Fatalf("NewView(%s, %d) error = %v", rootID, depth, err)
	}
	return eng, v
}
