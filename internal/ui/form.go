package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldPicker
	fieldList
	fieldToggle
)

// formField is one row of a form. Text and list rows own a text input; list
// rows also render the entries added so far.
type formField struct {
	label   string
	kind    fieldKind
	input   textinput.Model
	options []string // picker values
	labels  []string // picker display text, parallel to options
	choice  int
	entries []string
	on      bool
}

func textField(label, value, placeholder string) formField {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = 120
	in.SetValue(value)
	return formField{label: label, kind: fieldText, input: in}
}

func listField(label string, entries []string, placeholder string) formField {
	f := textField(label, "", placeholder)
	f.kind = fieldList
	f.entries = entries
	return f
}

func pickerField(label string, options, labels []string, value string) formField {
	f := formField{label: label, kind: fieldPicker, options: options, labels: labels}
	for i, o := range options {
		if o == value {
			f.choice = i
		}
	}
	return f
}

func toggleField(label string, on bool) formField {
	return formField{label: label, kind: fieldToggle, on: on}
}

func (f formField) value() string {
	switch f.kind {
	case fieldPicker:
		if len(f.options) == 0 {
			return ""
		}
		return f.options[f.choice]
	default:
		return f.input.Value()
	}
}

func (f formField) display() string {
	switch f.kind {
	case fieldPicker:
		if len(f.options) == 0 {
			return ""
		}
		if f.choice < len(f.labels) {
			return f.labels[f.choice]
		}
		return f.options[f.choice]
	case fieldToggle:
		return checkbox(f.on)
	default:
		return f.input.View()
	}
}

func (f formField) editsText() bool {
	return f.kind == fieldText || f.kind == fieldList
}

// form is a vertical list of fields with one focused row.
type form struct {
	fields []formField
	focus  int
}

func newForm(fields ...formField) form {
	f := form{fields: fields}
	f.setFocus(0)
	return f
}

func (f *form) focused() *formField {
	return &f.fields[f.focus]
}

func (f *form) setFocus(i int) {
	if len(f.fields) == 0 {
		return
	}
	i = (i + len(f.fields)) % len(f.fields)
	f.fields[f.focus].input.Blur()
	f.focus = i
	if f.fields[i].editsText() {
		f.fields[i].input.Focus()
	}
}

// handleKey moves focus, cycles pickers, flips toggles, and otherwise feeds
// the key to the focused text input. Submission and list entries are left
// to the owner.
func (f *form) handleKey(msg tea.KeyMsg, keys keyMap) tea.Cmd {
	switch {
	case key.Matches(msg, keys.NextField):
		f.setFocus(f.focus + 1)
		return nil
	case key.Matches(msg, keys.PrevField):
		f.setFocus(f.focus - 1)
		return nil
	}

	field := f.focused()
	switch field.kind {
	case fieldPicker:
		n := len(field.options)
		if n == 0 {
			return nil
		}
		switch msg.String() {
		case "left", "h":
			field.choice = (field.choice - 1 + n) % n
		case "right", "l", " ":
			field.choice = (field.choice + 1) % n
		}
		return nil
	case fieldToggle:
		if msg.String() == " " {
			field.on = !field.on
		}
		return nil
	default:
		var cmd tea.Cmd
		field.input, cmd = field.input.Update(msg)
		return cmd
	}
}

func (f form) view(styles Styles, labelWidth int) string {
	var b strings.Builder
	for i, field := range f.fields {
		marker := "  "
		label := styles.MutedText.Render(padRight(field.label, labelWidth))
		if i == f.focus {
			marker = styles.AccentText.Render("› ")
			label = styles.AccentText.Bold(true).Render(padRight(field.label, labelWidth))
		}
		b.WriteString(marker)
		b.WriteString(label)
		value := field.display()
		if field.kind == fieldPicker {
			value = "‹ " + value + " ›"
		}
		b.WriteString(styles.Text.Render(value))
		b.WriteString("\n")
		if field.kind == fieldList {
			b.WriteString(strings.Repeat(" ", labelWidth+2))
			b.WriteString(styles.InfoText.Render(chips(field.entries, "none")))
			b.WriteString("\n")
		}
	}
	return b.String()
}
