package blgw

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/beolink-bridge/internal/catalog"
	"github.com/nerrad567/beolink-bridge/internal/hip"
)

// mjpegBoundary separates frames in the multipart stream. B&O
// webviews expect this exact boundary token.
const mjpegBoundary = "myboundary"

// findCamera resolves a camera resource by its protocol name.
func (s *Server) findCamera(ctx context.Context, name string) (*catalog.Resource, error) {
	snap, err := s.builder.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Find(hip.TypeCamera, name), nil
}

// handleCameraSnapshot serves a single JPEG frame.
func (s *Server) handleCameraSnapshot(w http.ResponseWriter, r *http.Request) {
	res, err := s.findCamera(r.Context(), param(r, "name"))
	if err != nil {
		s.logger.Error("snapshot for camera lookup failed", "error", err)
		writeInternalError(w, "backend enumeration failed")
		return
	}
	if res == nil {
		writeNotFound(w, "unknown camera")
		return
	}

	img, err := s.gw.CameraImage(r.Context(), res.EntityID)
	if err != nil {
		s.logger.Warn("camera image fetch failed", "camera", res.Name, "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeBackend, "camera image fetch failed")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(img) //nolint:errcheck // Best-effort write; peer may have gone
}

// handleCameraMJPEG streams frames as multipart/x-mixed-replace until
// the peer disconnects or the backend stops producing images. The
// server's write timeout is lifted for this response; streams are
// bounded only by the client.
func (s *Server) handleCameraMJPEG(w http.ResponseWriter, r *http.Request) {
	res, err := s.findCamera(r.Context(), param(r, "name"))
	if err != nil {
		s.logger.Error("snapshot for camera lookup failed", "error", err)
		writeInternalError(w, "backend enumeration failed")
		return
	}
	if res == nil {
		writeNotFound(w, "unknown camera")
		return
	}

	rc := http.NewResponseController(w)
	//nolint:errcheck // not all writers support deadlines; stream regardless
	rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mjpegBoundary)
	w.WriteHeader(http.StatusOK)

	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		img, err := s.gw.CameraImage(r.Context(), res.EntityID)
		if err != nil {
			s.logger.Warn("camera stream fetch failed", "camera", res.Name, "error", err)
			return
		}

		if err := writeFrame(w, img); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeFrame(w http.ResponseWriter, img []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", mjpegBoundary, len(img)); err != nil {
		return err
	}
	if _, err := w.Write(img); err != nil {
		return err
	}
	_, err := w.Write([]byte("\r\n"))
	return err
}
