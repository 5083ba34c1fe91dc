package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mwhitfield/wishlist-backend/api/responses"
	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
	"github.com/mwhitfield/wishlist-backend/pkg/feed"
	"github.com/mwhitfield/wishlist-backend/pkg/logger"
)

// FeedStream pushes collection-change hints as server-sent events. Clients
// re-fetch whatever changed; the stream never carries record payloads.
func FeedStream(subscriber *feed.Subscriber, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if subscriber == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feed unavailable"))
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		changes, err := subscriber.Listen(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe to feed"))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case change, open := <-changes:
				if !open {
					return
				}
				payload, err := json.Marshal(change)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
				flusher.Flush()
			}
		}
	}
}
