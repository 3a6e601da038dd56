package model

type Patient struct {
	Base
	Name      string `db:"name" json:"name"`
	Phone     string `db:"phone" json:"phone"`
	BirthDate *Date  `db:"birth_date" json:"birth_date,omitempty"`
	City      string `db:"city" json:"city"`
	Condition string `db:"clinical_condition" json:"condition"`
	Diagnosis string `db:"diagnosis" json:"diagnosis"`
	Notes     string `db:"notes" json:"notes"`
}

type CreatePatientRequest struct {
	Name      string `json:"name" binding:"required,max=200"`
	Phone     string `json:"phone" binding:"max=30"`
	BirthDate string `json:"birth_date" binding:"omitempty,isodate"`
	City      string `json:"city" binding:"max=120"`
	Condition string `json:"condition"`
	Diagnosis string `json:"diagnosis"`
	Notes     string `json:"notes"`
	// EntryDate dates the waiting-list entry opened at intake; today when empty.
	EntryDate string `json:"entry_date" binding:"omitempty,isodate"`
}

type UpdatePatientRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=200"`
	Phone     *string `json:"phone" binding:"omitempty,max=30"`
	BirthDate *string `json:"birth_date" binding:"omitempty,isodate"`
	City      *string `json:"city" binding:"omitempty,max=120"`
	Condition *string `json:"condition"`
	Diagnosis *string `json:"diagnosis"`
	Notes     *string `json:"notes"`
}

type PatientFilters struct {
	Search string
	City   string
}

// PatientIntake is what registering a patient produces.
type PatientIntake struct {
	Patient *Patient          `json:"patient"`
	Entry   *WaitingListEntry `json:"waiting_list_entry"`
}
