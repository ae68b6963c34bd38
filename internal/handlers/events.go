package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/greenbox-lable/share-plate/internal/middleware"
	viewsync "github.com/greenbox-lable/share-plate/internal/sync"
)

// Events streams role-shaped snapshots over server-sent events: one
// on connect, then one after every committed write to the tables the
// role watches. The synchronizer's feed subscription lives exactly as
// long as this request.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := middleware.Identity(h.Store, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	snapshots := make(chan viewsync.Snapshot, 1)
	done := make(chan error, 1)
	go func() {
		done <- h.Sync.Run(ctx, role, userID, snapshots)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-done:
			if err != nil && ctx.Err() == nil {
				log.Printf("event stream for %s: %v", userID, err)
			}
			return
		case snap := <-snapshots:
			data, err := json.Marshal(snap)
			if err != nil {
				log.Printf("marshal snapshot: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
