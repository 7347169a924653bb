package handlers

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/marmos91/smbwire/internal/logger"
	"github.com/marmos91/smbwire/pkg/bufpool"
	"github.com/marmos91/smbwire/pkg/dissect"
)

// DissectRequest is the JSON form of a dissection request. Exactly one of
// Hex and Base64 carries the message.
type DissectRequest struct {
	Hex    string `json:"hex,omitempty"`
	Base64 string `json:"base64,omitempty"`
	Layer  string `json:"layer,omitempty"`
}

// DissectHandler decodes uploaded messages.
type DissectHandler struct {
	dissector *dissect.Dissector
	maxBody   int64
}

// NewDissectHandler returns a handler that reads at most maxBody bytes of
// request body.
func NewDissectHandler(d *dissect.Dissector, maxBody int64) *DissectHandler {
	return &DissectHandler{dissector: d, maxBody: maxBody}
}

// Dissect handles POST /api/v1/dissect.
//
// A JSON body is decoded as DissectRequest; any other content type is the
// raw message. The layer query parameter overrides the body's layer.
//
// Returns 200 with the report when at least the outermost layer decoded,
// even if a nested layer failed (the report carries the error), 400 for bad
// input, 413 for oversized input and 422 when nothing could be decoded.
func (h *DissectHandler) Dissect(w http.ResponseWriter, r *http.Request) {
	if h.dissector == nil {
		writeError(w, http.StatusServiceUnavailable, "dissector not initialized")
		return
	}

	body, err := bufpool.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody), h.maxBody)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, bufpool.ErrLimit) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer bufpool.Put(body)

	data, layerName, err := decodeBody(r, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q := r.URL.Query().Get("layer"); q != "" {
		layerName = q
	}
	layer, err := dissect.ParseLayer(layerName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.dissector.Dissect(r.Context(), data, layer)
	if err != nil {
		logger.DebugCtx(r.Context(), "dissection failed", logger.Err(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, okResponse(dissect.NewReport(res)))
}

// Layers handles GET /api/v1/layers.
func (h *DissectHandler) Layers(w http.ResponseWriter, r *http.Request) {
	names := make([]string, len(dissect.Layers))
	for i, l := range dissect.Layers {
		names[i] = string(l)
	}
	writeJSON(w, http.StatusOK, okResponse(names))
}

func decodeBody(r *http.Request, body []byte) ([]byte, string, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "application/json" {
		return body, "", nil
	}

	var req DissectRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, "", errors.New("invalid request body")
	}
	switch {
	case req.Hex != "" && req.Base64 != "":
		return nil, "", errors.New("hex and base64 are mutually exclusive")
	case req.Hex != "":
		data, err := hex.DecodeString(strings.Join(strings.Fields(req.Hex), ""))
		if err != nil {
			return nil, "", errors.New("invalid hex payload")
		}
		return data, req.Layer, nil
	case req.Base64 != "":
		data, err := base64.StdEncoding.DecodeString(req.Base64)
		if err != nil {
			return nil, "", errors.New("invalid base64 payload")
		}
		return data, req.Layer, nil
	}
	return nil, req.Layer, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dissect.ErrEmpty), errors.Is(err, dissect.ErrUnknownLayer):
		return http.StatusBadRequest
	case errors.Is(err, dissect.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusUnprocessableEntity
	}
}
