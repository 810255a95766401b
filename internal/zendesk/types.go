package zendesk

import "time"

// RoleEndUser is the role of external requesters; every other role is staff.
const RoleEndUser = "end-user"

type Ticket struct {
	ID             int64     `json:"id"`
	Subject        string    `json:"subject"`
	Status         string    `json:"status"`
	RequesterID    int64     `json:"requester_id"`
	OrganizationID *int64    `json:"organization_id"`
	Tags           []string  `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
}

type Comment struct {
	ID          int64        `json:"id"`
	Type        string       `json:"type"`
	AuthorID    int64        `json:"author_id"`
	Body        string       `json:"body"`
	HTMLBody    string       `json:"html_body"`
	PlainBody   string       `json:"plain_body"`
	Public      bool         `json:"public"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   time.Time    `json:"created_at"`
}

type Attachment struct {
	ID          int64  `json:"id"`
	FileName    string `json:"file_name"`
	ContentURL  string `json:"content_url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Inline      bool   `json:"inline"`
}

type User struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Role           string         `json:"role"`
	OrganizationID *int64         `json:"organization_id"`
	UserFields     map[string]any `json:"user_fields"`
}

// IsEndUser reports whether the user is an external requester.
func (u User) IsEndUser() bool {
	return u.Role == RoleEndUser
}

type Identity struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Type     string `json:"type"`
	Value    string `json:"value"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

type Organization struct {
	ID                 int64          `json:"id"`
	Name               string         `json:"name"`
	Notes              string         `json:"notes"`
	Details            string         `json:"details"`
	Tags               []string       `json:"tags"`
	OrganizationFields map[string]any `json:"organization_fields"`
}

// CommentInput is the comment half of a ticket update.
type CommentInput struct {
	Body     string `json:"body,omitempty"`
	HTMLBody string `json:"html_body,omitempty"`
	Public   bool   `json:"public"`
	AuthorID *int64 `json:"author_id,omitempty"`
}

type TicketUpdate struct {
	Comment CommentInput `json:"comment"`
}
