package enums

import "fmt"

// ContactPreference is how the buyer wants the agent to reach out.
type ContactPreference string

const (
	ContactPreferencePhone  ContactPreference = "phone"
	ContactPreferenceEmail  ContactPreference = "email"
	ContactPreferenceChat   ContactPreference = "chat"
	ContactPreferenceEither ContactPreference = "either"
)

var validContactPreferences = []ContactPreference{
	ContactPreferencePhone,
	ContactPreferenceEmail,
	ContactPreferenceChat,
	ContactPreferenceEither,
}

// String implements fmt.Stringer.
func (c ContactPreference) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ContactPreference.
func (c ContactPreference) IsValid() bool {
	for _, candidate := range validContactPreferences {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseContactPreference converts raw input into a ContactPreference.
func ParseContactPreference(value string) (ContactPreference, error) {
	for _, candidate := range validContactPreferences {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid contact preference %q", value)
}
