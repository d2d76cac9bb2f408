package models

// CandidateReport describes one teacher's standing for a make-up session.
type CandidateReport struct {
	TeacherID       string   `json:"teacher_id"`
	FullName        string   `json:"full_name"`
	Eligible        bool     `json:"eligible"`
	Rank            int      `json:"rank,omitempty"`
	Load            int      `json:"load"`
	Capacity        int      `json:"capacity"`
	ExperienceYears int      `json:"experience_years"`
	Reasons         []string `json:"reasons,omitempty"`
}

// AssignmentOutcome reports what happened to one session during an assignment run.
type AssignmentOutcome struct {
	MakeupClassID string   `json:"makeup_class_id"`
	TeacherID     string   `json:"teacher_id,omitempty"`
	TeacherName   string   `json:"teacher_name,omitempty"`
	Assigned      bool     `json:"assigned"`
	Reasons       []string `json:"reasons,omitempty"`
}

// AutoAssignResult aggregates the outcomes of a batch run.
type AutoAssignResult struct {
	Requested  int                 `json:"requested"`
	Assigned   int                 `json:"assigned"`
	Unassigned int                 `json:"unassigned"`
	Outcomes   []AssignmentOutcome `json:"outcomes"`
}
