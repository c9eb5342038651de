package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/goliatone/go-admingen/components/actions"
)

// FlashCookie holds the message shown on the next page.
const FlashCookie = "admingen_flash"

func setFlash(w http.ResponseWriter, _ *http.Request, f actions.Flash) {
	if f.Message == "" {
		return
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func notice(w http.ResponseWriter, r *http.Request, message string) {
	setFlash(w, r, actions.Flash{Kind: actions.FlashNotice, Message: message})
}

// takeFlash reads and clears the pending message.
func takeFlash(w http.ResponseWriter, r *http.Request) *actions.Flash {
	cookie, err := r.Cookie(FlashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: FlashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var f actions.Flash
	if err := json.Unmarshal(raw, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}
