package entity

// Step is one stage of a workflow template. Orders start at 1 and are
// contiguous within a kind; codes are unique within a kind.
type Step struct {
	Order           int    `json:"order"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	ResponsibleRole string `json:"responsible_role"`
	Description     string `json:"description"`
}
