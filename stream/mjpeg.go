package stream

import (
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"go.uber.org/zap"
)

// Boundary separates the parts of the multipart stream.
const Boundary = "frame"

// MJPEGHandler serves the hub as a multipart/x-mixed-replace stream, one
// image part per published frame, until the client goes away or the hub
// closes. A hub close ends the body with the closing boundary.
func MJPEGHandler(hub *Hub, logger *zap.SugaredLogger) http.Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		frames, cancel := hub.Subscribe()
		defer cancel()

		mw := multipart.NewWriter(w)
		if err := mw.SetBoundary(Boundary); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+Boundary)
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Connection", "close")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		if flusher != nil {
			flusher.Flush()
		}

		sent := 0
		defer func() {
			logger.Debugw("stream client left", "remote", r.RemoteAddr, "frames", sent)
		}()
		for {
			select {
			case <-r.Context().Done():
				return
			case frame, ok := <-frames:
				if !ok {
					_ = mw.Close()
					return
				}
				header := textproto.MIMEHeader{}
				header.Set("Content-Type", frame.Format.ContentType())
				header.Set("Content-Length", strconv.Itoa(len(frame.Data)))
				part, err := mw.CreatePart(header)
				if err != nil {
					return
				}
				if _, err := part.Write(frame.Data); err != nil {
					return
				}
				sent++
				if flusher != nil {
					flusher.Flush()
				}
			}
		}
	})
}
