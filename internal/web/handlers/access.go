package handlers

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/facegate/internal/access"
	"github.com/kozaktomas/facegate/internal/actuator"
	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/facematch"
)

const errTooFast = "faces arrive faster than the recognition interval"

// AccessHandler serves the operator state surface and the face ingress.
type AccessHandler struct {
	controller *access.Controller
	clock      access.Clock
	interval   time.Duration

	mu        sync.Mutex
	lastFace  time.Time
	evaluated bool
}

// NewAccessHandler creates an access handler. Faces submitted closer together
// than interval are refused without evaluation.
func NewAccessHandler(ctrl *access.Controller, clock access.Clock, interval time.Duration) *AccessHandler {
	if clock == nil {
		clock = access.SystemClock{}
	}
	return &AccessHandler{controller: ctrl, clock: clock, interval: interval}
}

// StatusResponse is the operator view of the lock.
type StatusResponse struct {
	Lock                     access.LockState    `json:"lock"`
	UnlockRemainingSeconds   float64             `json:"unlock_remaining_seconds"`
	InCooldown               bool                `json:"in_cooldown"`
	CooldownRemainingSeconds float64             `json:"cooldown_remaining_seconds"`
	LastDecision             *facematch.Decision `json:"last_decision,omitempty"`
	LastDecisionAt           *time.Time          `json:"last_decision_at,omitempty"`
	Threshold                float64             `json:"threshold"`
	GallerySize              int                 `json:"gallery_size"`
	Actuator                 actuator.Health     `json:"actuator"`
}

func newStatusResponse(s access.Snapshot) StatusResponse {
	resp := StatusResponse{
		Lock:                     s.Lock,
		UnlockRemainingSeconds:   s.UnlockRemaining.Seconds(),
		InCooldown:               s.CooldownRemaining > 0,
		CooldownRemainingSeconds: s.CooldownRemaining.Seconds(),
		LastDecision:             s.LastDecision,
		Threshold:                s.Threshold,
		GallerySize:              s.GallerySize,
		Actuator:                 s.Actuator,
	}
	if s.LastDecision != nil {
		at := s.LastDecisionAt
		resp.LastDecisionAt = &at
	}
	return resp
}

// FaceResponse is the result of one evaluated face.
type FaceResponse struct {
	Outcome       access.Kind         `json:"outcome"`
	Decision      *facematch.Decision `json:"decision,omitempty"`
	Relocked      bool                `json:"relocked"`
	Command       bool                `json:"command"`
	ActuatorError string              `json:"actuator_error,omitempty"`
	At            time.Time           `json:"at"`
	Status        StatusResponse      `json:"status"`
}

// Status runs a no-face cycle, so an expired unlock is re-locked, then
// returns the state.
func (h *AccessHandler) Status(w http.ResponseWriter, r *http.Request) {
	out := h.controller.Tick(r.Context())
	respondJSON(w, http.StatusOK, newStatusResponse(out.State))
}

// SubmitFace evaluates one face region. The body is either the raw image or
// a multipart form with an "image" file. Optional x, y, w, h query
// parameters select the face region within the image.
func (h *AccessHandler) SubmitFace(w http.ResponseWriter, r *http.Request) {
	if wait := h.throttled(); wait > 0 {
		tooFast(w, wait)
		return
	}

	crop, err := parseCrop(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	body, err := imageBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer body.Close()

	face, err := facematch.DecodeImage(body)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.Is(err, facematch.ErrImageTooLarge) || errors.As(err, &maxBytes) {
			respondError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if crop != nil {
		if face, err = face.Crop(*crop); err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	// Two requests may both pass the early check while decoding.
	if wait := h.claim(); wait > 0 {
		tooFast(w, wait)
		return
	}

	out := h.controller.Process(r.Context(), face)
	respondJSON(w, http.StatusOK, FaceResponse{
		Outcome:       out.Kind,
		Decision:      out.Decision,
		Relocked:      out.Relocked,
		Command:       out.Command,
		ActuatorError: out.ActuatorError,
		At:            out.At,
		Status:        newStatusResponse(out.State),
	})
}

func tooFast(w http.ResponseWriter, wait time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	respondError(w, http.StatusTooManyRequests, errTooFast)
}

// throttled returns how long the caller must wait before the next face.
func (h *AccessHandler) throttled() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.evaluated {
		return 0
	}
	return h.interval - h.clock.Now().Sub(h.lastFace)
}

// claim takes the evaluation slot, or returns the remaining wait.
func (h *AccessHandler) claim() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.clock.Now()
	if h.evaluated {
		if wait := h.interval - now.Sub(h.lastFace); wait > 0 {
			return wait
		}
	}
	h.lastFace = now
	h.evaluated = true
	return 0
}

func imageBody(r *http.Request) (io.ReadCloser, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.Body, nil
	}
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, errors.New("missing image file")
	}
	return file, nil
}

// parseCrop reads the optional face region. Either all of x, y, w, h are
// given or none.
func parseCrop(r *http.Request) (*facematch.Rect, error) {
	q := r.URL.Query()
	keys := []string{"x", "y", "w", "h"}
	var present int
	for _, k := range keys {
		if q.Has(k) {
			present++
		}
	}
	if present == 0 {
		return nil, nil
	}
	if present != len(keys) {
		return nil, errors.New("face region needs all of x, y, w, h")
	}

	var vals [4]int
	for i, k := range keys {
		n, err := strconv.Atoi(q.Get(k))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q", k, q.Get(k))
		}
		vals[i] = n
	}
	if vals[2] <= 0 || vals[3] <= 0 {
		return nil, errors.New("face region must have positive width and height")
	}
	if vals[0] > math.MaxInt-vals[2] || vals[1] > math.MaxInt-vals[3] {
		return nil, errors.New("face region is out of range")
	}
	return &facematch.Rect{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}, nil
}
