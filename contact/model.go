// contact/model.go
package contact

import "time"

// Submission is a contact-form submission as received from the client.
// It is stored exactly as submitted; no trimming or normalization happens
// on the way to the database.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Record is a stored submission together with its database identity.
// Records are written exactly once and never updated or deleted.
type Record struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
