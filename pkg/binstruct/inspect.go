package binstruct

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Inspect writes a field table of s: one row per present field, nested
// structs, arrays and choices indented below their parent. Integers carrying
// bit-fields show their set flags and raw value.
func Inspect(w io.Writer, s *Struct) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Type", "Value"})

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	table.AppendBulk(inspectRows(s, 0))
	table.Render()
	return nil
}

// Rows returns the rows Inspect renders, without the header.
func Rows(s *Struct) [][]string { return inspectRows(s, 0) }

func inspectRows(s *Struct, depth int) [][]string {
	indent := strings.Repeat("  ", depth)
	p := s.newPass()
	var rows [][]string
	for i, f := range s.schema.fields {
		if !p.isPresent(i) {
			continue
		}
		v := s.values[i]
		value := Human(v)
		if l := s.schema.layouts[f.Name]; l != nil {
			u := v.(*Int)
			value = fmt.Sprintf("%s (%#0*x)", l.Describe(u.Uint()), 2+2*u.Width(), u.Uint())
		}
		rows = append(rows, []string{indent + f.Name, typeName(v), value})
		rows = append(rows, nestedRows(v, depth+1)...)
	}
	return rows
}

func nestedRows(v Value, depth int) [][]string {
	switch n := v.(type) {
	case *Struct:
		return inspectRows(n, depth)
	case *Array:
		var rows [][]string
		for i, e := range n.elems {
			if st, ok := e.(*Struct); ok {
				rows = append(rows, []string{fmt.Sprintf("%s[%d]", strings.Repeat("  ", depth), i), st.schema.name, ""})
				rows = append(rows, inspectRows(st, depth+1)...)
			}
		}
		return rows
	case *Choice:
		if st, ok := n.active.(*Struct); ok {
			return inspectRows(st, depth)
		}
	}
	return nil
}

func typeName(v Value) string {
	switch n := v.(type) {
	case *Struct:
		return n.schema.name
	case *Int:
		var b strings.Builder
		if n.signed {
			b.WriteString("Int")
		} else {
			b.WriteString("UInt")
		}
		fmt.Fprintf(&b, "%d", 8*n.width)
		if n.width > 1 {
			b.WriteString(n.order.String())
		}
		if n.enum != nil {
			b.WriteString("Enum")
		}
		return b.String()
	case *Choice:
		return "Choice<" + n.selected + ">"
	default:
		name := fmt.Sprintf("%T", v)
		return name[strings.LastIndex(name, ".")+1:]
	}
}
