package models

import (
	"strings"

	"regdesk/internal/registration/validate"
)

// Submission is an accepted registration. It is created only after every
// field check passes and is never mutated afterwards.
type Submission struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	BitsID string `json:"bitsId"`
	Hostel string `json:"hostel"`
	Size   string `json:"size"`
	Terms  bool   `json:"terms"`
}

// Ledger is the ordered, append-only list of submissions accepted from one device.
type Ledger []Submission

// HasConflict reports whether any entry shares the email OR the institution ID.
// A match on either field alone is a conflict.
func (l Ledger) HasConflict(email, institutionID string) bool {
	for _, s := range l {
		if s.Email == email || s.BitsID == institutionID {
			return true
		}
	}
	return false
}

// SubmitRequest carries the form values at the moment of submission.
type SubmitRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	BitsID string `json:"bitsId"`
	Hostel string `json:"hostel"`
	Size   string `json:"size"`
	Terms  bool   `json:"terms"`
}

// Normalize trims the free-text fields. Selection fields are kept as sent.
func (r *SubmitRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.BitsID = strings.TrimSpace(r.BitsID)
}

// Validate runs every field check independently and returns all failures.
// An empty result means the request may become a Submission.
func (r *SubmitRequest) Validate() FieldErrors {
	errs := FieldErrors{}
	if r == nil {
		r = &SubmitRequest{}
	}
	if !validate.NameLength(r.Name) {
		errs.Add(FieldName, "Name must be 5-50 characters")
	}
	if !validate.Email(r.Email) {
		errs.Add(FieldEmail, "Invalid BITS email")
	}
	if !validate.Phone(r.Phone) {
		errs.Add(FieldPhone, "Invalid Indian phone number")
	}
	if !validate.InstitutionID(r.BitsID) {
		errs.Add(FieldBitsID, "Invalid BITS ID")
	}
	if r.Hostel == "" {
		errs.Add(FieldHostel, "Please select a hostel")
	}
	if r.Size == "" {
		errs.Add(FieldSize, "Please select a size")
	}
	if !r.Terms {
		errs.Add(FieldTerms, "You must agree to terms")
	}
	return errs
}

// Submission converts a validated request.
func (r *SubmitRequest) Submission() Submission {
	return Submission{
		Name:   r.Name,
		Email:  r.Email,
		Phone:  r.Phone,
		BitsID: r.BitsID,
		Hostel: r.Hostel,
		Size:   r.Size,
		Terms:  r.Terms,
	}
}

// FieldErrors maps an error display identifier (<field>-error) to its message.
type FieldErrors map[string]string

// Add records msg for field under its display identifier.
func (e FieldErrors) Add(field, msg string) {
	e[ErrorID(field)] = msg
}

// Empty reports whether no check failed.
func (e FieldErrors) Empty() bool {
	return len(e) == 0
}
