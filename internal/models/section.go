package models

// Section is a named grouping of channels, rendered as a category tab.
// IsActive is a pointer so a record that never set the flag still counts
// as active; only an explicit false hides the section.
type Section struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Order       int     `json:"order,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Active reports whether the section should be rendered.
func (s Section) Active() bool {
	return s.IsActive == nil || *s.IsActive
}

// SortOrder returns the ordering key, treating an unset order as 1.
func (s Section) SortOrder() int {
	if s.Order == 0 {
		return 1
	}
	return s.Order
}
