package model

// AdminStats is a point-in-time count over all profiles.
type AdminStats struct {
	TotalUsers     int64 `json:"total_users"`
	AdminUsers     int64 `json:"admin_users"`
	BannedUsers    int64 `json:"banned_users"`
	UsersToday     int64 `json:"users_today"`
	UsersThisWeek  int64 `json:"users_this_week"`
	UsersThisMonth int64 `json:"users_this_month"`
}

// SignupDataPoint is the number of profiles created on one calendar day.
type SignupDataPoint struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}

// Result is the uniform outcome of a privileged mutation.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func OK() Result { return Result{Success: true} }

func Fail(msg string) Result { return Result{Success: false, Error: msg} }
