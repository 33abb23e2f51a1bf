package models

// Pagination describes one page of a larger result set. TotalCount lets the
// caller compute page counts.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
}

// AuditPageResponse is one page of audit records
type AuditPageResponse struct {
	Records    []AuditRecord `json:"records"`
	Pagination Pagination    `json:"pagination"`
}

// MemberPageResponse is one page of members
type MemberPageResponse struct {
	Members    []Member   `json:"members"`
	Pagination Pagination `json:"pagination"`
}

// RequestPageResponse is one page of registration requests
type RequestPageResponse struct {
	Requests   []RegistrationRequest `json:"requests"`
	Pagination Pagination            `json:"pagination"`
}

// ZoneWithCount is a zone annotated with its member count
type ZoneWithCount struct {
	Zone
	MemberCount int64 `json:"memberCount"`
}

// DashboardResponse aggregates registry counts for the admin landing page
type DashboardResponse struct {
	TotalMembers    int64           `json:"totalMembers"`
	ActiveMembers   int64           `json:"activeMembers"`
	PendingRequests int64           `json:"pendingRequests"`
	TotalZones      int64           `json:"totalZones"`
	ZoneCounts      []ZoneWithCount `json:"zoneCounts"`
	RecentActivity  []AuditRecord   `json:"recentActivity"`
}
