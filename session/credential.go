package session

import (
	"encoding/json"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-task-client/users"
	"golang.org/x/oauth2"
)

// Identity is who the access token belongs to
type Identity struct {
	ID       string         `json:"id"`
	Username string         `json:"username,omitempty"`
	Email    string         `json:"email,omitempty"`
	Role     users.RoleType `json:"role"`
}

// UnmarshalJSON accepts either "id" or the document-style "_id".
func (i *Identity) UnmarshalJSON(data []byte) error {
	type plain Identity
	var raw struct {
		plain
		DocID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = Identity(raw.plain)
	if i.ID == "" {
		i.ID = raw.DocID
	}
	return nil
}

func (i Identity) IsAdmin() bool {
	return i.Role == users.RoleAdmin
}

// Credential is the access token together with its identity. It is either
// fully present or absent; see Valid.
type Credential struct {
	AccessToken string   `json:"accessToken"`
	User        Identity `json:"user"`
}

// Valid reports whether both the token and the identity are set
func (c Credential) Valid() bool {
	return c.AccessToken != "" && c.User.ID != ""
}

// Expiry returns the exp claim when the access token is a JWT. Opaque tokens
// report ok=false. The signature is not checked; the server remains the judge
// of validity.
func (c Credential) Expiry() (exp time.Time, ok bool) {
	token, _, err := jwtlib.NewParser().ParseUnverified(c.AccessToken, jwtlib.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	date, err := token.Claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}

// Expired reports whether the token carries an exp claim that is at or before now
func (c Credential) Expired(now time.Time) bool {
	exp, ok := c.Expiry()
	return ok && !now.Before(exp)
}

// OAuth2Token converts the credential to a bearer token
func (c Credential) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken: c.AccessToken,
		TokenType:   "Bearer",
	}
	if exp, ok := c.Expiry(); ok {
		tok.Expiry = exp
	}
	return tok
}
