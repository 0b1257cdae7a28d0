package contact

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// DefaultSubject is used when the visitor leaves the subject empty.
const DefaultSubject = "General Inquiry"

var (
	nameRe  = regexp.MustCompile(`^[a-zA-Z\s\-'\.]+$`)
	phoneRe = regexp.MustCompile(`^[\+]?[\s\-\(\)]*([0-9][\s\-\(\)]*){10,14}$`)
)

// Form is a contact form submission.
type Form struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Subject       string `json:"subject"`
	TruckInterest string `json:"truckInterest"`
	Message       string `json:"message"`
}

// Normalize trims every field and lowercases the email address.
func (f *Form) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Phone = strings.TrimSpace(f.Phone)
	f.Subject = strings.TrimSpace(f.Subject)
	f.TruckInterest = strings.TrimSpace(f.TruckInterest)
	f.Message = strings.TrimSpace(f.Message)
}

// Validate implements validation.Validatable. It does not check that a
// contact method is present; see HasContactMethod.
func (f Form) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name,
			validation.Required.Error("Name must be between 2 and 100 characters"),
			validation.RuneLength(2, 100).Error("Name must be between 2 and 100 characters"),
			validation.Match(nameRe).Error("Name contains invalid characters"),
		),
		validation.Field(&f.Email,
			is.EmailFormat.Error("Please provide a valid email address"),
			validation.Length(0, 254).Error("Email address is too long"),
		),
		validation.Field(&f.Phone, validation.Match(phoneRe).Error("Please provide a valid phone number")),
		validation.Field(&f.Subject, validation.RuneLength(0, 200).Error("Subject is too long")),
		validation.Field(&f.TruckInterest, validation.RuneLength(0, 500).Error("Truck interest field is too long")),
		validation.Field(&f.Message,
			validation.Required.Error("Message must be between 10 and 2000 characters"),
			validation.RuneLength(10, 2000).Error("Message must be between 10 and 2000 characters"),
		),
	)
}

// HasContactMethod reports whether an email address or a phone number was given.
func (f *Form) HasContactMethod() bool {
	return f.Email != "" || f.Phone != ""
}
