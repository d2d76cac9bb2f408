package dto

// BulkWorkShiftRequest rosters every teacher on every date for every shift.
type BulkWorkShiftRequest struct {
	TeacherIDs []string `json:"teacher_ids" validate:"required,min=1,dive,required"`
	Dates      []string `json:"dates" validate:"required,min=1,max=62,dive,datetime=2006-01-02"`
	ShiftIDs   []string `json:"shift_ids" validate:"required,min=1,dive,required"`
	Note       *string  `json:"note" validate:"omitempty,max=500"`
}

// BulkWorkShiftDuplicate identifies a combination that already existed.
type BulkWorkShiftDuplicate struct {
	TeacherID string `json:"teacher_id"`
	Date      string `json:"date"`
	ShiftID   string `json:"shift_id"`
}

// BulkWorkShiftResult reports what a bulk roster request did.
type BulkWorkShiftResult struct {
	Requested  int                      `json:"requested"`
	Created    int                      `json:"created"`
	Duplicates []BulkWorkShiftDuplicate `json:"duplicates"`
}

// AvailabilityQuery asks which teachers are free for a window.
type AvailabilityQuery struct {
	Date           string `form:"date" validate:"required,datetime=2006-01-02"`
	StartTime      string `form:"startTime" validate:"required,hhmm"`
	EndTime        string `form:"endTime" validate:"required,hhmm"`
	SubjectLevelID string `form:"subjectLevelId"`
}

// AvailableTeacher is one teacher free for the requested window.
type AvailableTeacher struct {
	TeacherID       string `json:"teacher_id"`
	FullName        string `json:"full_name"`
	Load            int    `json:"load"`
	Capacity        int    `json:"capacity"`
	ExperienceYears int    `json:"experience_years"`
}

// AvailabilityResponse lists available teachers for a window.
type AvailabilityResponse struct {
	Date      string             `json:"date"`
	StartTime string             `json:"start_time"`
	EndTime   string             `json:"end_time"`
	Teachers  []AvailableTeacher `json:"teachers"`
}
