package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/hostsub/internal/hostservice"
	"github.com/starford/hostsub/internal/monitor"
	"github.com/starford/hostsub/internal/privilege"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Handler holds API route handlers.
type Handler struct {
	svc *hostservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *hostservice.Service) *Handler {
	return &Handler{svc: svc}
}

func page(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func mutationBody(name string, res privilege.Result) MutationResponse {
	return MutationResponse{Hostname: name, Elevated: res.Elevated, Replaced: res.Matched}
}

// ListHosts handles GET /api/hosts.
//
//	@Summary		List active hosts mappings
//	@Tags			hosts
//	@Produce		json
//	@Success		200	{object}	HostListResponse
//	@Failure		500	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hosts [get]
func (h *Handler) ListHosts(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Entries(r.Context())
	if err != nil {
		writeError(w, "list hosts", err)
		return
	}
	writeJSON(w, http.StatusOK, HostListResponse{
		Path:     h.svc.HostsPath(),
		Elevated: h.svc.IsElevated(),
		Entries:  entries,
	})
}

// RawHosts handles GET /api/hosts/raw.
//
//	@Summary		Hosts file content without comment lines
//	@Tags			hosts
//	@Produce		json
//	@Success		200	{object}	RawHostsResponse
//	@Security		BearerAuth
//	@Router			/hosts/raw [get]
func (h *Handler) RawHosts(w http.ResponseWriter, r *http.Request) {
	content, err := h.svc.Read(r.Context())
	if err != nil {
		writeError(w, "read hosts", err)
		return
	}
	writeJSON(w, http.StatusOK, RawHostsResponse{Path: h.svc.HostsPath(), Content: content})
}

// GetHost handles GET /api/hosts/{name}.
//
//	@Summary		Mappings whose hostname or alias equals name
//	@Tags			hosts
//	@Produce		json
//	@Param			name	path		string	true	"Hostname"
//	@Success		200		{object}	HostListResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hosts/{name} [get]
func (h *Handler) GetHost(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.Lookup(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, "get host", err)
		return
	}
	writeJSON(w, http.StatusOK, HostListResponse{
		Path:     h.svc.HostsPath(),
		Elevated: h.svc.IsElevated(),
		Entries:  found,
	})
}

// CreateHost handles POST /api/hosts.
//
//	@Summary		Add or replace a mapping from a hosts line or fields
//	@Tags			hosts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateHostRequest	true	"Mapping"
//	@Success		200		{object}	MutationResponse
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hosts [post]
func (h *Handler) CreateHost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateHostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	set := hostservice.SetRequest{Hostname: req.Hostname, Addresses: req.Addresses}
	if req.Line != "" {
		line, err := hostservice.ParseHostLine(req.Line)
		if err != nil {
			writeError(w, "create host", err)
			return
		}
		set = line.Request()
	}

	res, err := h.svc.Set(r.Context(), set)
	if err != nil {
		writeError(w, "create host", err)
		return
	}
	writeJSON(w, http.StatusOK, mutationBody(set.Hostname, res))
}

// SetHost handles PUT /api/hosts/{name}.
//
//	@Summary		Replace the addresses mapped to name
//	@Tags			hosts
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string			true	"Hostname"
//	@Param			body	body		SetHostRequest	true	"Addresses"
//	@Success		200		{object}	MutationResponse
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hosts/{name} [put]
func (h *Handler) SetHost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SetHostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	name := chi.URLParam(r, "name")
	res, err := h.svc.Set(r.Context(), hostservice.SetRequest{Hostname: name, Addresses: req.Addresses})
	if err != nil {
		writeError(w, "set host", err)
		return
	}
	writeJSON(w, http.StatusOK, mutationBody(name, res))
}

// DeleteHost handles DELETE /api/hosts/{name}.
//
//	@Summary		Remove every active line containing name
//	@Tags			hosts
//	@Param			name	path	string	true	"Hostname"
//	@Success		204		"Mapping removed"
//	@Failure		404		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hosts/{name} [delete]
func (h *Handler) DeleteHost(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Remove(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, "delete host", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAddresses handles GET /api/addresses.
//
//	@Summary		Current routable addresses
//	@Tags			addresses
//	@Produce		json
//	@Success		200	{object}	AddressListResponse
//	@Security		BearerAuth
//	@Router			/addresses [get]
func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AddressListResponse{Addresses: h.svc.Addresses(r.Context())})
}

// DiffAddresses handles GET /api/addresses/diff.
//
//	@Summary		New or changed addresses since the last notification
//	@Tags			addresses
//	@Produce		json
//	@Success		200	{object}	DiffResponse
//	@Security		BearerAuth
//	@Router			/addresses/diff [get]
func (h *Handler) DiffAddresses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Diff(r.Context()))
}

// CheckAddresses handles POST /api/addresses/check.
//
//	@Summary		Run a detect-and-notify cycle now
//	@Tags			addresses
//	@Produce		json
//	@Success		200	{object}	monitor.Report
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/addresses/check [post]
func (h *Handler) CheckAddresses(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Check(r.Context())
	if errors.Is(err, monitor.ErrCycleInProgress) {
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
		return
	}
	if err != nil {
		writeError(w, "check addresses", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// ListMutations handles GET /api/history/mutations.
//
//	@Summary		Hosts edit audit log
//	@Tags			history
//	@Produce		json
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Param			hostname	query		string	false	"Filter by hostname"
//	@Success		200			{object}	MutationListResponse
//	@Security		BearerAuth
//	@Router			/history/mutations [get]
func (h *Handler) ListMutations(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	rows, total, err := h.svc.Mutations(r.Context(), limit, offset, r.URL.Query().Get("hostname"))
	if err != nil {
		writeError(w, "list mutations", err)
		return
	}
	writeJSON(w, http.StatusOK, MutationListResponse{Mutations: rows, Total: total})
}

// ListNotifications handles GET /api/history/notifications.
//
//	@Summary		Delivered address notifications
//	@Tags			history
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	NotificationListResponse
//	@Security		BearerAuth
//	@Router			/history/notifications [get]
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	rows, total, err := h.svc.Notifications(r.Context(), limit, offset)
	if err != nil {
		writeError(w, "list notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, NotificationListResponse{Notifications: rows, Total: total})
}
