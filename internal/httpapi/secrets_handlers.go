package httpapi

import (
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/Achi00/jobs-server/internal/config"
	"github.com/Achi00/jobs-server/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config; read per request
	Store  SecretStore
}

type setSecretReq struct {
	Value    string `json:"value"`
	Password string `json:"password"`
}

func (h SecretsHandler) account(w http.ResponseWriter, r *http.Request) (string, bool) {
	kind, err := secrets.ParseKind(r.PathValue("kind"))
	if err != nil {
		WriteError(w, r, http.StatusNotFound, "not_found", err.Error())
		return "", false
	}
	acct := secrets.Account(kind, h.CfgVal.Load().(config.Config))
	if kind == secrets.IMAPPassword && strings.HasPrefix(acct, "jobs-server:imap:@") {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "set email.username before storing the IMAP password")
		return "", false
	}
	return acct, true
}

func (h SecretsHandler) Status(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"present": h.Store.Has(acct)})
}

func (h SecretsHandler) Set(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	var req setSecretReq
	if err := decodeJSON(r, &req, false); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	v := req.Value
	if v == "" {
		v = req.Password
	}
	if err := h.Store.Set(acct, v); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "failed to store secret: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	if err := h.Store.Delete(acct); err != nil {
		WriteErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
