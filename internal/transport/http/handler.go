package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/membership"
	"github.com/cwrk-planet/trome-service/internal/repository"
	"github.com/cwrk-planet/trome-service/internal/service"
	"github.com/cwrk-planet/trome-service/internal/transport/dto"
	httpmw "github.com/cwrk-planet/trome-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/trome-service/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	roomSvc    *service.RoomService
	memberSvc  *service.MemberService
	profileSvc *service.ProfileService
}

func NewHandler(room *service.RoomService, member *service.MemberService, profile *service.ProfileService) *Handler {
	return &Handler{
		roomSvc:    room,
		memberSvc:  member,
		profileSvc: profile,
	}
}

// mapErr: доменные ошибки в HTTP-статус.
func mapErr(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return http.StatusNotFound, "room not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	// ErrSessionClosed: LeaveRoom успел раньше, чем догрузился JoinRoom
	case errors.Is(err, domain.ErrNotInRoom), errors.Is(err, membership.ErrSessionClosed):
		return http.StatusNotFound, "user not in room"
	case errors.Is(err, domain.ErrAlreadySpeaker):
		return http.StatusConflict, "already a speaker"
	case errors.Is(err, domain.ErrInvalidRoom), errors.Is(err, domain.ErrInvalidProfile):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrInvalidCursor):
		return http.StatusBadRequest, "invalid_cursor"
	case errors.Is(err, domain.ErrInvalidRoomState):
		return http.StatusUnprocessableEntity, "invalid room state"
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable, "service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := mapErr(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "handler."+op+":", slog.Any("err", err))
	}
	httputil.Error(w, status, msg)
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := httpmw.UserIDFromCtx(r.Context())
	if id == "" {
		httputil.Error(w, http.StatusUnauthorized, "missing user id")
		return "", false
	}
	return id, true
}

func queryLimit(r *http.Request) int {
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return 0
}

func decode(w http.ResponseWriter, r *http.Request, op string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Debug("handler."+op+".Decode:", slog.Any("err", err))
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// POST /rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req CreateRoomRequest
	if !decode(w, r, "CreateRoom", &req) {
		return
	}

	room, err := h.roomSvc.CreateRoom(r.Context(), uid, service.CreateRoomInput{
		Title:         req.Title,
		Description:   req.Description,
		Topics:        req.Topics,
		ScheduledFor:  req.ScheduledFor,
		IsPrivate:     req.IsPrivate,
		RecordEnabled: req.RecordEnabled,
	})
	if err != nil {
		writeErr(w, r, "CreateRoom", err)
		return
	}

	httputil.JSON(w, http.StatusCreated, dto.Room(*room))
}

// GET /rooms?filter=&limit=&cursor=
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rooms, next, err := h.roomSvc.ListRooms(r.Context(), domain.ParseRoomFilter(q.Get("filter")), queryLimit(r), q.Get("cursor"))
	if err != nil {
		writeErr(w, r, "ListRooms", err)
		return
	}

	httputil.JSON(w, http.StatusOK, RoomsListResponse{Items: dto.Rooms(rooms), NextCursor: next})
}

// GET /rooms/search?q=&limit=
func (h *Handler) SearchRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.roomSvc.SearchRooms(r.Context(), r.URL.Query().Get("q"), queryLimit(r))
	if err != nil {
		writeErr(w, r, "SearchRooms", err)
		return
	}

	httputil.JSON(w, http.StatusOK, RoomsSearchResponse{Items: dto.Rooms(rooms)})
}

// GET /rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomSvc.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, "GetRoom", err)
		return
	}

	httputil.JSON(w, http.StatusOK, dto.Room(*room))
}

// POST /rooms/{id}/join
// ?wait=false: вернуть промежуточное представление, не дожидаясь профиля.
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	roomID := chi.URLParam(r, "id")

	var (
		view *domain.MembershipView
		err  error
	)
	if strings.EqualFold(r.URL.Query().Get("wait"), "false") {
		view, err = h.memberSvc.OpenRoom(r.Context(), roomID, uid)
	} else {
		view, err = h.memberSvc.JoinRoom(r.Context(), roomID, uid)
	}
	if err != nil {
		writeErr(w, r, "JoinRoom", err)
		return
	}

	httputil.JSON(w, http.StatusOK, dto.Membership(view))
}

// GET /rooms/{id}/membership
func (h *Handler) Membership(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	view, err := h.memberSvc.Membership(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		writeErr(w, r, "Membership", err)
		return
	}

	httputil.JSON(w, http.StatusOK, dto.Membership(view))
}

// POST /rooms/{id}/leave
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.memberSvc.LeaveRoom(r.Context(), chi.URLParam(r, "id"), uid); err != nil {
		writeErr(w, r, "LeaveRoom", err)
		return
	}

	httputil.JSON(w, http.StatusOK, StatusResponse{Status: "left"})
}

// POST /rooms/{id}/speak-request
func (h *Handler) RequestToSpeak(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.memberSvc.RequestToSpeak(r.Context(), chi.URLParam(r, "id"), uid); err != nil {
		writeErr(w, r, "RequestToSpeak", err)
		return
	}

	httputil.JSON(w, http.StatusAccepted, StatusResponse{Status: "requested"})
}

// GET /users/search?q=&limit=
func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.profileSvc.SearchUsers(r.Context(), r.URL.Query().Get("q"), queryLimit(r))
	if err != nil {
		writeErr(w, r, "SearchUsers", err)
		return
	}

	httputil.JSON(w, http.StatusOK, UsersSearchResponse{Items: dto.Users(users)})
}

// GET /users/{id}/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profileSvc.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, "GetProfile", err)
		return
	}

	httputil.JSON(w, http.StatusOK, dto.Profile(p))
}

// PUT /users/me/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !decode(w, r, "UpdateProfile", &req) {
		return
	}

	p, err := h.profileSvc.UpdateProfile(r.Context(), uid, domain.ProfilePatch{
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
		Bio:         req.Bio,
		Interests:   req.Interests,
	})
	if err != nil {
		writeErr(w, r, "UpdateProfile", err)
		return
	}

	httputil.JSON(w, http.StatusOK, dto.Profile(p))
}
