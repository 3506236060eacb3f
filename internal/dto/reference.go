package dto

// ReferenceStudent is the compact student entry used by pickers.
type ReferenceStudent struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Registration string  `json:"registration"`
	ClassID      *string `json:"classId,omitempty"`
	ClassName    *string `json:"className,omitempty"`
}

// ReferenceClass is the compact class entry.
type ReferenceClass struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ReferenceTemplate is the compact template entry.
type ReferenceTemplate struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Code     string  `json:"code"`
	Type     string  `json:"type"`
	SchoolID *string `json:"schoolId,omitempty"`
}

// ReferenceData bundles the lookup lists the client needs to build forms.
type ReferenceData struct {
	Students  []ReferenceStudent  `json:"students"`
	Classes   []ReferenceClass    `json:"classes"`
	Templates []ReferenceTemplate `json:"templates"`
}
