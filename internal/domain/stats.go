package domain

type ReportStats struct {
	Pending    int `json:"pending"`
	Verified   int `json:"verified"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Total      int `json:"total"`
}
