package dto

// ProblemProgress reports grading progress for one problem location.
type ProblemProgress struct {
	Location    string `json:"location"`
	ProblemName string `json:"problem_name"`
	NumGraded   int64  `json:"num_graded"`
	NumPending  int64  `json:"num_pending"`
	NumRequired int64  `json:"num_required"`
	MinForML    int    `json:"min_for_ml"`
}

// ProblemListResponse wraps the per-problem progress for a course.
type ProblemListResponse struct {
	ProblemList []ProblemProgress `json:"problem_list"`
}

// NotificationsResponse summarises pending grading work for a course.
type NotificationsResponse struct {
	StaffNeedsToGrade       bool `json:"staff_needs_to_grade"`
	StudentNeedsToPeerGrade bool `json:"student_needs_to_peer_grade"`
	FlaggedSubmissionsExist bool `json:"flagged_submissions_exist"`
	OverallNeedToCheck      bool `json:"overall_need_to_check"`
}
