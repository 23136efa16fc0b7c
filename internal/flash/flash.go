// Package flash carries one-shot messages across a redirect in a short
// lived cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

const cookieName = "flash"

const (
	KindSuccess = "success"
	KindError   = "error"
)

type Message struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Set stores a message for the next request.
func Set(w http.ResponseWriter, kind, text string) {
	b, _ := json.Marshal(Message{Kind: kind, Text: text})
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func Success(w http.ResponseWriter, text string) { Set(w, KindSuccess, text) }
func Error(w http.ResponseWriter, text string)   { Set(w, KindError, text) }

// Pop reads and clears the pending message. It returns nil when there is
// none or the cookie is unreadable.
func Pop(w http.ResponseWriter, r *http.Request) *Message {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:    cookieName,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil || m.Text == "" {
		return nil
	}
	return &m
}
