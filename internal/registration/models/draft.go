package models

import (
	"fmt"
	"slices"
	"strings"
)

// FormDraft maps field name to the in-progress value: a string for text and
// radio controls, a bool for the terms checkbox. It is overwritten on every
// input event and removed on successful submission or reset.
type FormDraft map[string]any

// NormalizeDraft keeps only fields known to the form and coerces each value to
// the type its control stores. Values are not validated.
func NormalizeDraft(in map[string]any) FormDraft {
	out := make(FormDraft, len(in))
	for name, raw := range in {
		ctl, ok := LookupControl(name)
		if !ok {
			continue
		}
		if ctl.Kind == ControlCheckbox {
			out[name] = asBool(raw)
			continue
		}
		out[name] = asString(raw)
	}
	return out
}

// Text returns the string value of a field, or "" when absent.
func (d FormDraft) Text(field string) string {
	return asString(d[field])
}

// Checked returns the boolean value of a field, or false when absent.
func (d FormDraft) Checked(field string) bool {
	return asBool(d[field])
}

// Control is the restored state of one form control.
type Control struct {
	Name    string      `json:"name"`
	Kind    ControlKind `json:"kind"`
	Value   string      `json:"value,omitempty"`
	Checked bool        `json:"checked,omitempty"`
	Options []string    `json:"options,omitempty"`
}

// RestoreControls populates every schema control from draft. Radio controls
// select the stored value only when it is one of their options, checkbox
// controls take the stored boolean, all others take the raw value. A nil
// draft yields empty controls.
func RestoreControls(draft FormDraft) []Control {
	controls := make([]Control, 0, len(Schema))
	for _, ctl := range Schema {
		c := Control{Name: ctl.Name, Kind: ctl.Kind, Options: ctl.Options}
		raw, ok := draft[ctl.Name]
		if ok {
			switch ctl.Kind {
			case ControlRadio:
				if v := asString(raw); slices.Contains(ctl.Options, v) {
					c.Value = v
				}
			case ControlCheckbox:
				c.Checked = asBool(raw)
			default:
				c.Value = asString(raw)
			}
		}
		controls = append(controls, c)
	}
	return controls
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(t) {
		case "true", "on", "1", "yes":
			return true
		}
	}
	return false
}
