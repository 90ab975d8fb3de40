package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
)

// handleRoomQR renders a QR code PNG pointing at a room's join link, for
// sharing rooms at in-person community events.
func (h *Handlers) handleRoomQR(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")

	if _, err := h.Rooms.RoomByExternalID(externalID); err != nil {
		respondError(w, h.serviceError(err))
		return
	}

	baseURL := h.Settings.BaseURL(r.Context())
	if baseURL == "" {
		// fall back to the request host
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		baseURL = scheme + "://" + r.Host
	}

	png, err := qrcode.Encode(baseURL+"/join/"+externalID, qrcode.Medium, 256)
	if err != nil {
		respondError(w, h.serviceError(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}
