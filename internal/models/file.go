package models

import "time"

// FileRecord is one uploaded template: immutable HTML source plus the
// mutable, ordered annotation collection. Records live inside a session and
// die with it.
type FileRecord struct {
	ID          string       `json:"id"`
	Filename    string       `json:"filename"`
	HTML        string       `json:"html_content"`
	Annotations []Annotation `json:"annotations"`
	UploadedAt  time.Time    `json:"uploaded_at"`
}

// SessionData is the server-side payload for one editing session.
type SessionData struct {
	ID        string       `json:"id"`
	Files     []FileRecord `json:"files"`
	CreatedAt time.Time    `json:"created_at"`
}

// File returns the record with the given id, or nil.
func (s *SessionData) File(fileID string) *FileRecord {
	for i := range s.Files {
		if s.Files[i].ID == fileID {
			return &s.Files[i]
		}
	}
	return nil
}
