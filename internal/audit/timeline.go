package audit

import "time"

// Entry is one recorded administrative mutation.
type Entry struct {
	ID         int64          `json:"id,omitempty"`
	ActorID    string         `json:"actorId"`
	ActorEmail string         `json:"actorEmail"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entityId"`
	Meta       map[string]any `json:"meta,omitempty"`
	At         time.Time      `json:"at"`
}

// Actions recorded by the services.
const (
	ActionCreate         = "CREATE"
	ActionUpdate         = "UPDATE"
	ActionDelete         = "DELETE"
	ActionSetPermissions = "SET_PERMISSIONS"
	ActionSetPassword    = "SET_PASSWORD"
)

// Entities recorded by the services.
const (
	EntityUser       = "user"
	EntityRole       = "role"
	EntityPermission = "permission"
)

// TimelineFilters holds the basic filters for the audit timeline.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	Actor    string
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// PagingInfo stores simple pagination metadata.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasNext  bool `json:"hasNext"`
	PrevPage int  `json:"prevPage,omitempty"`
	NextPage int  `json:"nextPage,omitempty"`
}

// Result wraps a timeline page.
type Result struct {
	Rows   []Entry    `json:"rows"`
	Paging PagingInfo `json:"paging"`
}
