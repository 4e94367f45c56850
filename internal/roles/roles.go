// Package roles stores who may administer the platform and who may edit
// each project, and answers the two capability questions every mutating
// operation asks: IsAdmin and IsEditor.
package roles

import (
	"encoding/json"
	"strings"
)

// Entry identifies a person in the roles document. Older documents stored
// bare subject ids as plain strings; newer ones store {subject, email}.
// Both shapes unmarshal into Entry.
type Entry struct {
	Subject string `json:"subject"`
	Email   string `json:"email,omitempty"`
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		e.Subject = legacy
		e.Email = ""
		return nil
	}

	type entry Entry
	var full entry
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	*e = Entry(full)
	return nil
}

// Document is the stored roles record. Admins implicitly hold editor
// rights on every project.
type Document struct {
	Admins  []Entry            `json:"admins"`
	Editors map[string][]Entry `json:"editors"`
}

func (d *Document) HasAdmin(subject string) bool {
	return containsSubject(d.Admins, subject)
}

func (d *Document) HasEditor(projectID, subject string) bool {
	if d.Editors == nil {
		return false
	}
	return containsSubject(d.Editors[projectID], subject)
}

func containsSubject(entries []Entry, subject string) bool {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return false
	}
	for _, e := range entries {
		if e.Subject == subject {
			return true
		}
	}
	return false
}
