package models

// SessionState is the transient per-client UI state kept server-side so a
// client can resume its timeline view: selection, filters, collapsed
// sectors, zoom. No persistence guarantee beyond the repository TTL.
type SessionState struct {
	SessionID        string   `json:"session_id"`
	SelectedIDs      []string `json:"selected_ids,omitempty"`
	SelectedSectors  []string `json:"selected_sectors,omitempty"`
	SelectedStatuses []string `json:"selected_statuses,omitempty"`
	CollapsedSectors []string `json:"collapsed_sectors,omitempty"`
	SearchQuery      string   `json:"search_query,omitempty"`
	Zoom             float64  `json:"zoom,omitempty"`
}
