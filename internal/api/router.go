package api

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"

	"istibyan/internal/middleware"
	"istibyan/internal/models"
	"istibyan/internal/services"
)

// Router exposes the whole survey API on one data endpoint plus a CSV export
// download. Every request is an independent read or a single mutating
// operation; there is no server-side workflow state.
type Router struct {
	directory *services.DirectoryService
	data      *services.DataService
	converter services.SurveyConverter
}

func NewRouter(store services.RecordStore, converter services.SurveyConverter) *Router {
	signer := services.TokenSigner(middleware.SignToken)
	return &Router{
		directory: services.NewDirectoryService(store, signer),
		data:      services.NewDataService(store),
		converter: converter,
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/data", rt.handleData)
	mux.HandleFunc("/api/export", rt.handleExport)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps service error codes onto the API's status contract.
// Gateway failures and owner_not_found both surface as 500 here: that is the
// shape clients of this endpoint have always seen.
func writeError(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		switch se.Code {
		case services.ErrorInvalid:
			writeErrorMsg(w, http.StatusBadRequest, se.Message)
		case services.ErrorUnauthorized:
			writeErrorMsg(w, http.StatusUnauthorized, se.Message)
		case services.ErrorNotFound:
			writeErrorMsg(w, http.StatusNotFound, se.Message)
		case services.ErrorConflict:
			writeErrorMsg(w, http.StatusConflict, se.Message)
		default:
			writeErrorMsg(w, http.StatusInternalServerError, se.Message)
		}
		return
	}
	log.Printf("api error: %v", err)
	writeErrorMsg(w, http.StatusInternalServerError, err.Error())
}

// creatorUsername resolves the creator identity: the x-username header wins,
// a bearer token (if the auth middleware attached claims) is the fallback.
func creatorUsername(r *http.Request) string {
	if u := r.Header.Get("x-username"); u != "" {
		return u
	}
	if u, ok := middleware.UsernameFromContext(r.Context()); ok {
		return u
	}
	return ""
}

func (rt *Router) handleData(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.handleGet(w, r)
	case http.MethodPost:
		rt.handlePost(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeErrorMsg(w, http.StatusMethodNotAllowed, "Method "+r.Method+" Not Allowed")
	}
}

func (rt *Router) handleGet(w http.ResponseWriter, r *http.Request) {
	// Creator dashboard: full aggregate, responses included. A token or
	// header naming an unknown user yields JSON null, not 404.
	if username := creatorUsername(r); username != "" {
		data, err := rt.data.FetchOrInit(username)
		if err != nil {
			if se, ok := services.AsServiceError(err); ok && se.Code == services.ErrorNotFound {
				writeJSON(w, http.StatusOK, nil)
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
		return
	}

	// Public survey view: never exposes responses.
	if surveyID := r.URL.Query().Get("id"); surveyID != "" {
		data, err := rt.data.FetchOrInit(surveyID)
		if err != nil {
			if se, ok := services.AsServiceError(err); ok && se.Code == services.ErrorNotFound {
				writeErrorMsg(w, http.StatusNotFound, "Survey not found")
				return
			}
			writeError(w, err)
			return
		}
		if data.Survey == nil {
			writeErrorMsg(w, http.StatusNotFound, "Survey not found")
			return
		}
		writeJSON(w, http.StatusOK, data.Public())
		return
	}

	writeErrorMsg(w, http.StatusBadRequest, "Username header or survey ID is required")
}

func (rt *Router) handlePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action  string          `json:"action"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Action {
	case "saveUser":
		rt.handleSaveUser(w, req.Payload)
	case "authenticateUser":
		rt.handleAuthenticateUser(w, req.Payload)
	case "saveData":
		rt.handleSaveData(w, r, req.Payload)
	case "addResponse":
		rt.handleAddResponse(w, req.Payload)
	case "createSurvey":
		rt.handleCreateSurvey(w, r, req.Payload)
	default:
		writeErrorMsg(w, http.StatusBadRequest, "Invalid action")
	}
}

func (rt *Router) handleSaveUser(w http.ResponseWriter, payload json.RawMessage) {
	var p struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(payload, &p); err != nil || p.Username == "" || p.Password == "" {
		writeErrorMsg(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if err := rt.directory.Register(p.Username, p.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

func (rt *Router) handleAuthenticateUser(w http.ResponseWriter, payload json.RawMessage) {
	var p struct {
		Username    string `json:"username"`
		PasswordRaw string `json:"password_raw"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid payload")
		return
	}
	res, err := rt.directory.Authenticate(p.Username, p.PasswordRaw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": res.Token})
}

func (rt *Router) handleSaveData(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	username := creatorUsername(r)
	if username == "" {
		writeErrorMsg(w, http.StatusBadRequest, "Username header is required")
		return
	}
	var data models.CreatorData
	if err := json.Unmarshal(payload, &data); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid data payload")
		return
	}
	if err := rt.data.Replace(username, &data); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (rt *Router) handleAddResponse(w http.ResponseWriter, payload json.RawMessage) {
	var p struct {
		OwnerUsername string                   `json:"ownerUsername"`
		Answers       map[string]models.Answer `json:"answers"`
	}
	if err := json.Unmarshal(payload, &p); err != nil || p.OwnerUsername == "" || len(p.Answers) == 0 {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid response payload")
		return
	}
	if _, err := rt.data.AppendResponse(p.OwnerUsername, p.Answers); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (rt *Router) handleCreateSurvey(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	var p struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(payload, &p); err != nil || p.Text == "" {
		writeErrorMsg(w, http.StatusBadRequest, "Survey text is required")
		return
	}
	if rt.converter == nil {
		writeErrorMsg(w, http.StatusInternalServerError, "conversion service not configured")
		return
	}
	survey, err := rt.converter.Convert(r.Context(), p.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

// GET /api/export — CSV download of the creator's responses.
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeErrorMsg(w, http.StatusMethodNotAllowed, "Method "+r.Method+" Not Allowed")
		return
	}
	username := creatorUsername(r)
	if username == "" {
		writeErrorMsg(w, http.StatusUnauthorized, "creator identity required")
		return
	}
	data, err := rt.data.FetchOrInit(username)
	if err != nil {
		writeError(w, err)
		return
	}
	if data.Survey == nil {
		writeErrorMsg(w, http.StatusNotFound, "Survey not found")
		return
	}
	b, err := services.ExportResponsesCSV(data.Survey, data.Responses)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", contentDisposition(services.ExportFilename(data.Survey)))
	_, _ = w.Write(b)
}

// contentDisposition builds an attachment header that stays within ASCII.
// Survey titles are usually Arabic, so the plain filename parameter gets an
// ASCII-sanitized name and the full UTF-8 name rides in the RFC 5987
// filename* form.
func contentDisposition(filename string) string {
	var b strings.Builder
	for _, r := range filename {
		if r > 32 && r < 127 && r != '"' && r != '\\' && r != ';' {
			b.WriteRune(r)
		}
	}
	fallback := b.String()
	if fallback == "" || fallback == "_responses.csv" {
		fallback = "survey_responses.csv"
	}
	if fallback == filename {
		return `attachment; filename="` + fallback + `"`
	}
	return `attachment; filename="` + fallback + `"; filename*=UTF-8''` + url.PathEscape(filename)
}
