package clerk

import "encoding/json"

type WebhookEvent struct {
	Data   json.RawMessage `json:"data"`
	Object string          `json:"object"`
	Type   string          `json:"type"`
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type UserData struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	ImageURL       string         `json:"image_url"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
	Deleted        bool           `json:"deleted"`
}

// DisplayName picks the username, falling back to the full name and then the email local part.
func (u UserData) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if name := u.FirstName + u.LastName; name != "" {
		return name
	}
	if len(u.EmailAddresses) > 0 {
		addr := u.EmailAddresses[0].EmailAddress
		for i, r := range addr {
			if r == '@' {
				return addr[:i]
			}
		}
		return addr
	}
	return ""
}
