package model

type Contact struct {
	ID           string `json:"id"`
	DepartmentID string `json:"department_id"`
	JobTitle     string `json:"job_title"`
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

type Department struct {
	ID       string    `json:"id"`
	BranchID string    `json:"branch_id"`
	Name     string    `json:"name"`
	Notes    string    `json:"notes,omitempty"`
	Hours    WeekHours `json:"hours"`
	Contacts []Contact `json:"contacts"`
}

type WeekHours struct {
	Monday    string `json:"monday,omitempty"`
	Tuesday   string `json:"tuesday,omitempty"`
	Wednesday string `json:"wednesday,omitempty"`
	Thursday  string `json:"thursday,omitempty"`
	Friday    string `json:"friday,omitempty"`
	Saturday  string `json:"saturday,omitempty"`
	Sunday    string `json:"sunday,omitempty"`
}

type Branch struct {
	ID          string       `json:"id"`
	BranchID    string       `json:"branch_id"`
	BranchName  string       `json:"branch_name"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	Address     string       `json:"address"`
	Phone       string       `json:"phone"`
	Fax         string       `json:"fax,omitempty"`
	Toll        string       `json:"toll,omitempty"`
	ITPhone     string       `json:"it_phone,omitempty"`
	Timezone    string       `json:"timezone"`
	Departments []Department `json:"departments"`
	Ctime       int64        `json:"ctime"`
	Mtime       int64        `json:"mtime"`
}
