package prompt

import (
	"github.com/manifoldco/promptui"
)

// SelectOption is one entry of a selection list.
type SelectOption struct {
	Label       string
	Value       string
	Description string
}

// selector runs a selection. Tests replace it to avoid a terminal.
var selector = func(s *promptui.Select) (int, error) {
	i, _, err := s.Run()
	return i, err
}

// Select asks the user to pick one option and returns its Value. The
// cursor starts on the option whose Value equals current.
func Select(label string, options []SelectOption, current string) (string, error) {
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label | white }}",
		Selected: "* {{ .Label | green }}",
	}
	if len(options) > 0 && options[0].Description != "" {
		templates.Details = `
{{ "Description:" | faint }}	{{ .Description }}`
	}

	cursor := 0
	for i, o := range options {
		if o.Value == current {
			cursor = i
		}
	}
	s := &promptui.Select{
		Label:     label,
		Items:     options,
		Templates: templates,
		Size:      10,
		CursorPos: cursor,
	}

	i, err := selector(s)
	if err != nil {
		return "", wrapError(err)
	}
	return options[i].Value, nil
}
