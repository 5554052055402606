// Package classify exposes the synchronous matching endpoint.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"fitmatch/internal/dispatch"
	"fitmatch/internal/httputil"
	"fitmatch/internal/logging"
	"fitmatch/internal/matcher"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
	Data []struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"data"`
}

type item struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Matched     bool    `json:"matched"`
	CandidateID int     `json:"candidateId,omitempty"`
	Deviation   float64 `json:"deviation,omitempty"`
}

type response struct {
	Data []item `json:"data"`
}

func NewHandler(cfg *Config, classifier dispatch.Classifier) (http.Handler, error) {
	return &handler{
		cfg:        cfg,
		classifier: classifier,
	}, nil
}

type handler struct {
	classifier dispatch.Classifier
	cfg        *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	if len(req.Data) > h.cfg.MaxDataItemsLen {
		httputil.RespBadRequest(ctx, w, `{"error": "data items is too large, max allowed len is %d"}`, h.cfg.MaxDataItemsLen)
		return
	}

	// responses keep the order of the request items
	respData := make([]item, len(req.Data))
	errGrp := errgroup.Group{}
	for i, dat := range req.Data {
		i, dat := i, dat
		errGrp.Go(func() error {
			result, err := h.classifier.Classify(matcher.Observation{X: dat.X, Y: dat.Y})
			if err != nil {
				return fmt.Errorf("classify error: %v", err)
			}
			respData[i] = item{
				X:           dat.X,
				Y:           dat.Y,
				Matched:     result.Matched,
				CandidateID: result.CandidateID,
				Deviation:   result.Deviation,
			}
			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "classify processing error, %v"}`, err)
		return
	}

	bytes, err := json.Marshal(response{Data: respData})
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}
