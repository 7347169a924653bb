package dissect

import (
	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/protocol/llmnr"
)

// Report is the serializable form of a Result, shared by the CLI json/yaml
// output and the HTTP API.
type Report struct {
	Outcome string        `json:"outcome" yaml:"outcome"`
	Error   string        `json:"error,omitempty" yaml:"error,omitempty"`
	Layers  []LayerReport `json:"layers" yaml:"layers"`
}

// LayerReport describes one decoded layer.
type LayerReport struct {
	Name    string     `json:"name" yaml:"name"`
	Depth   int        `json:"depth" yaml:"depth"`
	Offset  int        `json:"offset" yaml:"offset"`
	Length  int        `json:"length" yaml:"length"`
	Summary string     `json:"summary,omitempty" yaml:"summary,omitempty"`
	Fields  []FieldRow `json:"fields,omitempty" yaml:"fields,omitempty"`
	Names   []string   `json:"names,omitempty" yaml:"names,omitempty"`
}

// FieldRow is one rendered field. Nested fields are indented by two spaces
// per level in Field.
type FieldRow struct {
	Field string `json:"field" yaml:"field"`
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// NewReport renders r. Nested layers owned by an outer struct (the body of a
// header) are listed once, under their own node, so the outer layer lists
// only its own fields up to the body.
func NewReport(r *Result) *Report {
	rep := &Report{Outcome: r.Outcome, Layers: make([]LayerReport, 0, len(r.Layers))}
	if r.Err != nil {
		rep.Error = r.Err.Error()
	}
	for i := range r.Layers {
		n := &r.Layers[i]
		lr := LayerReport{Name: n.Name, Depth: n.Depth, Offset: n.Offset, Length: n.Length}
		if s := n.Struct(); s != nil {
			lr.Fields = ownRows(s)
		} else {
			lr.Summary = binstruct.Human(n.Value)
		}
		if msg, ok := n.Detail.(*llmnr.Message); ok {
			for _, q := range msg.Questions {
				lr.Names = append(lr.Names, q.Name.String())
			}
		}
		rep.Layers = append(rep.Layers, lr)
	}
	return rep
}

// ownRows lists the fields of s, stopping before a nested body struct,
// which has a node of its own.
func ownRows(s *binstruct.Struct) []FieldRow {
	var rows []FieldRow
	for _, row := range binstruct.Rows(s) {
		if row[0] == "body" {
			if _, nested := s.Get("body").(*binstruct.Struct); nested {
				break
			}
		}
		rows = append(rows, FieldRow{Field: row[0], Type: row[1], Value: row[2]})
	}
	return rows
}
