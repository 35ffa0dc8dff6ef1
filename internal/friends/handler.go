package friends

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/omeyang/hisab/pkg/context/xctx"
	"github.com/omeyang/hisab/pkg/observability/xlog"
)

// UserHeader 上游网关注入的已认证用户标识。
const UserHeader = "X-User-ID"

// maxBodyBytes 请求体上限
const maxBodyBytes = 64 << 10

// Authenticator 从 X-User-ID 读取用户并写入 xctx，缺失时返回 401。
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserHeader)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing "+UserHeader)
			return
		}
		ctx, err := xctx.WithUserID(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Handler 好友接口
type Handler struct {
	svc    *Service
	maxAge int
	logger xlog.Logger
}

// NewHandler 创建 Handler，响应头 max-age 取自 Service 的缓存 TTL。
func NewHandler(svc *Service, logger xlog.Logger) *Handler {
	if logger == nil {
		logger = xlog.Discard()
	}
	return &Handler{svc: svc, maxAge: int(svc.ttl.Seconds()), logger: logger}
}

// Register 注册路由，所有路由经过 Authenticator。
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/friends", Authenticator(http.HandlerFunc(h.list)))
	mux.Handle("POST /api/friends", Authenticator(http.HandlerFunc(h.add)))
	mux.Handle("GET /api/friends/{id}", Authenticator(http.HandlerFunc(h.get)))
	mux.Handle("DELETE /api/friends/{id}", Authenticator(http.HandlerFunc(h.remove)))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	fs, err := h.svc.List(r.Context(), xctx.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.cacheable(w)
	writeJSON(w, http.StatusOK, fs)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.Get(r.Context(), xctx.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.cacheable(w)
	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %w", ErrInvalid, err))
		return
	}
	f, err := h.svc.Add(r.Context(), xctx.UserID(r.Context()), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusCreated, f)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Remove(r.Context(), xctx.UserID(r.Context()), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cacheable(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", fmt.Sprintf("private, max-age=%d", h.maxAge))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "friends request failed", xlog.Err(err))
	}
	writeError(w, status, err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
