package dissect

import "github.com/marmos91/smbwire/pkg/binstruct"

// SchemaField describes one declared field of a schema.
type SchemaField struct {
	Name        string `json:"name" yaml:"name"`
	Conditional bool   `json:"conditional,omitempty" yaml:"conditional,omitempty"`
	Computed    bool   `json:"computed,omitempty" yaml:"computed,omitempty"`
}

// SchemaInfo describes a registered schema. Template lists the fields of a
// freshly constructed instance with their defaults.
type SchemaInfo struct {
	Name     string        `json:"name" yaml:"name"`
	Fields   []SchemaField `json:"fields" yaml:"fields"`
	Template []FieldRow    `json:"template" yaml:"template"`
}

// DescribeSchema renders schema for the API and the CLI.
func DescribeSchema(schema *binstruct.Schema) SchemaInfo {
	info := SchemaInfo{Name: schema.Name()}
	for _, f := range schema.Fields() {
		info.Fields = append(info.Fields, SchemaField{
			Name:        f.Name,
			Conditional: f.Present != nil,
			Computed:    f.Builder != nil,
		})
	}
	for _, row := range binstruct.Rows(schema.New()) {
		info.Template = append(info.Template, FieldRow{Field: row[0], Type: row[1], Value: row[2]})
	}
	return info
}
