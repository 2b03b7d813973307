package alexaapi

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Session holds the authenticated Alexa web session cookie. Obtaining
// and refreshing the cookie is out of scope here; the auth command
// captures one and stores it with Save.
type Session struct {
	Cookie string
}

// Version of the session that we marshal/unmarshal
type sessionMarshal struct {
	Cookie string `json:"cookie"`
}

func NewSession(cookie string) Session {
	return Session{Cookie: cookie}
}

// CSRF extracts the anti-forgery token the API expects as a header; it
// is embedded in the session cookie as the csrf field.
func (s Session) CSRF() string {
	for _, part := range strings.Split(s.Cookie, ";") {
		part = strings.TrimSpace(part)
		if v, ok := strings.CutPrefix(part, "csrf="); ok {
			return v
		}
	}

	return ""
}

func hashOf(s string) string {
	sum := sha1.Sum([]byte(s))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// obfuscate the cookie when stringified
func (s Session) String() string {
	return fmt.Sprintf("cookie [%s]", hashOf(s.Cookie))
}

func (s *Session) Save(fileName string) error {
	sm := sessionMarshal{
		Cookie: s.Cookie,
	}

	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrapf(err, "opening session state %s for write", fileName)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(sm); err != nil {
		return errors.Wrapf(err, "saving session state to %s", fileName)
	}

	return nil
}

func (s *Session) Load(fileName string) error {
	sm := sessionMarshal{}

	file, err := os.Open(fileName)
	if err != nil {
		return errors.Wrapf(err, "opening session state %s for read", fileName)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&sm); err != nil {
		return errors.Wrapf(err, "reading session state from %s", fileName)
	}

	s.Cookie = sm.Cookie
	return nil
}
