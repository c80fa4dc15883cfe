package order

// QueryOrdersModel represents filter parameters for querying orders
type QueryOrdersModel struct {
	Ids             []string `json:"ids,omitempty"`
	PhoneNormalized string   `json:"phoneNormalized,omitempty"`
	Status          Status   `json:"status,omitempty"`
	Limit           int      `json:"limit,omitempty"`
	Offset          int      `json:"offset,omitempty"`
}
