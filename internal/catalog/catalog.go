// Package catalog stores the browsable technology catalog: the tools a
// stack may reference and the known cloud providers. It is
// administrator-writer, everyone-reader, cached for the process lifetime.
package catalog

import "time"

type Tool struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category,omitempty"`
	Providers []string `json:"providers,omitempty"`
}

type Document struct {
	Tools     []Tool    `json:"tools"`
	Providers []string  `json:"providers"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (d *Document) HasTool(id string) bool {
	for _, t := range d.Tools {
		if t.ID == id {
			return true
		}
	}
	return false
}
