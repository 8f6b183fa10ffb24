package upstream

import (
	"context"
	"encoding/json"
	"net/http"
)

// UserProfile is the backend's account record.
type UserProfile struct {
	ID          string `json:"-"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	UserType    string `json:"user_type"`
	PhoneNumber string `json:"phone_number"`
}

// UnmarshalJSON accepts numeric and string ids.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	type alias UserProfile
	aux := struct {
		*alias
		ID interface{} `json:"id"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.ID = idString(aux.ID)
	return nil
}

// Registration is the account creation payload.
type Registration struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	UserType    string `json:"user_type"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// CurrentUser fetches the account behind creds.
func (c *Client) CurrentUser(ctx context.Context, creds *Credentials) (UserProfile, error) {
	var profile UserProfile
	err := c.Do(ctx, creds, Request{
		Method: http.MethodGet,
		Path:   "auth/users/me/",
		Label:  "auth.me",
	}, &profile)
	return profile, err
}

// Register creates an account. No credentials are sent.
func (c *Client) Register(ctx context.Context, reg Registration) (UserProfile, error) {
	var profile UserProfile
	err := c.Do(ctx, nil, Request{
		Method: http.MethodPost,
		Path:   "auth/users/",
		Body:   reg,
		Label:  "auth.register",
	}, &profile)
	return profile, err
}
