package models

// Field names match the form control names posted by the browser.
const (
	FieldName   = "name"
	FieldEmail  = "email"
	FieldPhone  = "phone"
	FieldBitsID = "bitsId"
	FieldHostel = "hostel"
	FieldSize   = "size"
	FieldTerms  = "terms"
)

// ControlKind decides how a stored draft value is restored into a control.
type ControlKind string

const (
	ControlText     ControlKind = "text"
	ControlRadio    ControlKind = "radio"
	ControlCheckbox ControlKind = "checkbox"
)

// SizeOptions are the radio values offered for the size field.
var SizeOptions = []string{"XS", "S", "M", "L", "XL", "XXL"}

// ControlSpec describes one control of the registration form.
type ControlSpec struct {
	Name    string
	Kind    ControlKind
	Options []string
}

// Schema lists the registration form controls in display order.
var Schema = []ControlSpec{
	{Name: FieldName, Kind: ControlText},
	{Name: FieldEmail, Kind: ControlText},
	{Name: FieldPhone, Kind: ControlText},
	{Name: FieldBitsID, Kind: ControlText},
	{Name: FieldHostel, Kind: ControlText},
	{Name: FieldSize, Kind: ControlRadio, Options: SizeOptions},
	{Name: FieldTerms, Kind: ControlCheckbox},
}

// LookupControl returns the schema entry for a field name.
func LookupControl(name string) (ControlSpec, bool) {
	for _, c := range Schema {
		if c.Name == name {
			return c, true
		}
	}
	return ControlSpec{}, false
}

// ErrorID is the display identifier for a field's error message.
func ErrorID(field string) string {
	return field + "-error"
}
