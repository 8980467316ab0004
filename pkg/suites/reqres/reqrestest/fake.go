// Package reqrestest provides an in-process stand-in for the
// reqres.in demo API, for use with net/http/httptest.
package reqrestest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
)

const perPage = 6

// User is a demo user record.
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

// Resource is a demo colour resource.
type Resource struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Year         int    `json:"year"`
	Color        string `json:"color"`
	PantoneValue string `json:"pantone_value"`
}

var firstNames = []string{
	"George", "Janet", "Emma", "Eve", "Charles", "Tracey",
	"Michael", "Lindsay", "Tobias", "Byron", "George", "Rachel",
}

var lastNames = []string{
	"Bluth", "Weaver", "Wong", "Holt", "Morris", "Ramos",
	"Lawson", "Ferguson", "Funke", "Fields", "Edwards", "Howell",
}

// Users returns the twelve demo users.
func Users() []User {
	out := make([]User, len(firstNames))
	for i := range firstNames {
		id := i + 1
		out[i] = User{
			ID: id,
			Email: fmt.Sprintf("%s.%s@reqres.in",
				strings.ToLower(firstNames[i]), strings.ToLower(lastNames[i])),
			FirstName: firstNames[i],
			LastName:  lastNames[i],
			Avatar:    fmt.Sprintf("https://reqres.in/img/faces/%d-image.jpg", id),
		}
	}
	return out
}

// Resources returns the twelve demo resources.
func Resources() []Resource {
	names := []string{
		"cerulean", "fuchsia rose", "true red", "aqua sky",
		"tigerlily", "blue turquoise", "sand dollar", "chili pepper",
		"blue iris", "mimosa", "turquoise", "aqua",
	}
	out := make([]Resource, len(names))
	for i, n := range names {
		out[i] = Resource{
			ID:           i + 1,
			Name:         n,
			Year:         2000 + i,
			Color:        fmt.Sprintf("#%02X%02X%02X", 40+i*10, 100+i*5, 200-i*7),
			PantoneValue: fmt.Sprintf("%02d-%04d", 15+i, 4020+i*17),
		}
	}
	return out
}

var knownEmails = map[string]bool{
	"eve.holt@reqres.in": true,
}

// API is a configurable fake of the reqres.in endpoints used by
// the suite.
type API struct {
	// APIKey, when set, is required in the x-api-key header.
	APIKey string

	// DelayUnit scales the delay query parameter. reqres.in
	// uses seconds; tests usually shrink it.
	DelayUnit time.Duration

	requests atomic.Int64
}

// New returns a fake with a millisecond delay unit.
func New() *API {
	return &API{DelayUnit: time.Millisecond}
}

// Requests reports how many requests the fake has served.
func (a *API) Requests() int {
	return int(a.requests.Load())
}

// Handler returns the HTTP handler for the fake API.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users", a.listUsers)
	mux.HandleFunc("GET /api/users/{id}", a.singleUser)
	mux.HandleFunc("POST /api/users", a.createUser)
	mux.HandleFunc("PUT /api/users/{id}", a.updateUser)
	mux.HandleFunc("PATCH /api/users/{id}", a.updateUser)
	mux.Handle("DELETE /api/users/{id}", httphelpers.HandlerWithStatus(http.StatusNoContent))
	mux.Handle("GET /api/unknown", httphelpers.HandlerWithJSONResponse(
		page(1, Resources()), nil,
	))
	mux.HandleFunc("GET /api/unknown/{id}", a.singleResource)
	mux.HandleFunc("POST /api/register", a.register)
	mux.HandleFunc("POST /api/login", a.login)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.requests.Add(1)
		if a.APIKey != "" && r.Header.Get("x-api-key") != a.APIKey {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": "Missing API key",
			})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

type listing[T any] struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
	Data       []T `json:"data"`
}

func page[T any](n int, all []T) listing[T] {
	l := listing[T]{
		Page:       n,
		PerPage:    perPage,
		Total:      len(all),
		TotalPages: (len(all) + perPage - 1) / perPage,
		Data:       []T{},
	}
	start := (n - 1) * perPage
	if start >= 0 && start < len(all) {
		l.Data = all[start:min(start+perPage, len(all))]
	}
	return l
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if d, err := strconv.Atoi(q.Get("delay")); err == nil && d > 0 {
		select {
		case <-time.After(time.Duration(d) * a.DelayUnit):
		case <-r.Context().Done():
			return
		}
	}
	n := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		n = p
	}
	writeJSON(w, http.StatusOK, page(n, Users()))
}

func lookup[T any](w http.ResponseWriter, r *http.Request, all []T) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 || id > len(all) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("{}"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": all[id-1]})
}

func (a *API) singleUser(w http.ResponseWriter, r *http.Request) {
	lookup(w, r, Users())
}

func (a *API) singleResource(w http.ResponseWriter, r *http.Request) {
	lookup(w, r, Resources())
}

func decodeBody(r *http.Request) map[string]any {
	body := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	return body
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	body := decodeBody(r)
	body["id"] = strconv.Itoa(100 + int(a.requests.Load()))
	body["createdAt"] = time.Now().UTC().Format(time.RFC3339Nano)
	writeJSON(w, http.StatusCreated, body)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	body := decodeBody(r)
	body["updatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)
	writeJSON(w, http.StatusOK, body)
}

// credentials validates an auth body and writes the error
// response when it is incomplete.
func credentials(w http.ResponseWriter, r *http.Request) (string, bool) {
	body := decodeBody(r)
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)
	switch {
	case email == "":
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "Missing email or username",
		})
		return "", false
	case password == "":
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "Missing password",
		})
		return "", false
	}
	return email, true
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	email, ok := credentials(w, r)
	if !ok {
		return
	}
	if !knownEmails[email] {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "Note: Only defined users succeed registration",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    4,
		"token": "QpwL5tke4Pnpja7X4",
	})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	email, ok := credentials(w, r)
	if !ok {
		return
	}
	if !knownEmails[email] {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "user not found",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": "QpwL5tke4Pnpja7X4"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
