package domain

// StaffRecord models a staff member as held by the staff directory.
// Credential fields never leave the process in JSON form.
type StaffRecord struct {
	EmployeeID   string `json:"employee_id"`
	DisplayName  string `json:"display_name"`
	Role         string `json:"role"`
	Store        string `json:"store"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Salt         string `json:"-"`
	IsAdmin      bool   `json:"is_admin"`
}

// HasLegacyCredential reports whether the record still uses the unsalted format.
func (s *StaffRecord) HasLegacyCredential() bool {
	return s.Salt == ""
}

// Public returns a copy with credential material cleared.
func (s StaffRecord) Public() StaffRecord {
	s.PasswordHash = ""
	s.Salt = ""
	return s
}
