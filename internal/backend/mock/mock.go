// Package mock provides an in-memory fake of the backend API and its object
// storage, served over httptest, for use in tests.
package mock

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/lora-person/internal/backend"
)

// Op identifies a backend operation for failure injection and call recording.
type Op string

// Operations served by the fake.
const (
	OpCreatePerson Op = "create_person"
	OpListPersons  Op = "list_persons"
	OpGetPerson    Op = "get_person"
	OpDeletePerson Op = "delete_person"
	OpListPhotos   Op = "list_photos"
	OpPresign      Op = "presign"
	OpTransfer     Op = "transfer"
	OpComplete     Op = "complete"
	OpDeletePhoto  Op = "delete_photo"
	OpPhotoURL     Op = "photo_url"
	OpPreprocess   Op = "preprocess"
	OpLatestRun    Op = "latest_run"
)

// Defaults mirroring the real backend settings.
const (
	DefaultMaxPhotos    = 30
	DefaultMinPhotos    = 3
	DefaultMaxSizeBytes = 15 << 20
)

// Failure is an injected error response.
type Failure struct {
	Status int
	Detail string // sent as {"detail": ...}; empty sends no body
}

// Call records one request seen by the fake.
type Call struct {
	Op     Op
	Target string // filename for presign, object key for transfer/complete, photo ID for photo ops, person ID otherwise
}

type object struct {
	data        []byte
	contentType string
}

// Server is the fake backend. Create it with New and Close it when done.
type Server struct {
	*httptest.Server

	MaxPhotos    int
	MinPhotos    int
	MaxSizeBytes int64

	mu       sync.Mutex
	nextID   int64
	persons  map[int64]*backend.Person
	photos   map[int64][]*backend.Photo
	runs     map[int64]*backend.PreprocessRun
	objects  map[string]object
	failures map[Op]map[string]Failure
	calls    []Call
}

// New starts a fake backend. The client base URL is the server URL; API routes
// live under /v1 and uploads are accepted under /storage/.
func New() *Server {
	s := &Server{
		MaxPhotos:    DefaultMaxPhotos,
		MinPhotos:    DefaultMinPhotos,
		MaxSizeBytes: DefaultMaxSizeBytes,
		persons:      make(map[int64]*backend.Person),
		photos:       make(map[int64][]*backend.Photo),
		runs:         make(map[int64]*backend.PreprocessRun),
		objects:      make(map[string]object),
		failures:     make(map[Op]map[string]Failure),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/persons", s.createPerson)
	mux.HandleFunc("GET /v1/persons", s.listPersons)
	mux.HandleFunc("GET /v1/persons/{id}", s.getPerson)
	mux.HandleFunc("DELETE /v1/persons/{id}", s.deletePerson)
	mux.HandleFunc("GET /v1/persons/{id}/photos", s.listPhotos)
	mux.HandleFunc("POST /v1/persons/{id}/uploads/presign", s.presign)
	mux.HandleFunc("POST /v1/persons/{id}/photos/complete", s.complete)
	mux.HandleFunc("DELETE /v1/persons/{id}/photos/{photoId}", s.deletePhoto)
	mux.HandleFunc("GET /v1/persons/{id}/photos/{photoId}/url", s.photoURL)
	mux.HandleFunc("POST /v1/persons/{id}/preprocess", s.preprocess)
	mux.HandleFunc("GET /v1/persons/{id}/preprocess/latest", s.latestRun)
	mux.HandleFunc("PUT /storage/{key...}", s.putObject)
	mux.HandleFunc("GET /storage/{key...}", s.getObject)

	s.Server = httptest.NewServer(mux)
	return s
}

// Fail makes every future call of op against target answer with f.
// An empty target matches all calls of op.
func (s *Server) Fail(op Op, target string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures[op] == nil {
		s.failures[op] = make(map[string]Failure)
	}
	s.failures[op][target] = f
}

// ClearFailures removes all injected failures.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[Op]map[string]Failure)
}

// Calls returns the targets of all recorded calls of op, in order.
func (s *Server) Calls(op Op) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var targets []string
	for _, c := range s.calls {
		if c.Op == op {
			targets = append(targets, c.Target)
		}
	}
	return targets
}

// AddPerson seeds a person profile.
func (s *Server) AddPerson(name string, consentConfirmed, subjectIsAdult bool) backend.Person {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &backend.Person{
		ID:               s.newID(),
		Name:             name,
		ConsentConfirmed: consentConfirmed,
		SubjectIsAdult:   subjectIsAdult,
		CreatedAt:        now(),
	}
	s.persons[p.ID] = p
	return *p
}

// AddPhotos seeds n registered photos with the given status.
func (s *Server) AddPhotos(personID int64, n int, status backend.Status) []backend.Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := make([]backend.Photo, 0, n)
	for i := range n {
		key := fmt.Sprintf("uploads/%d/seed-%d.jpg", personID, i)
		s.objects[key] = object{data: []byte("seed"), contentType: backend.ContentTypeJPEG}
		photo := &backend.Photo{
			ID:          s.newID(),
			S3Key:       key,
			ContentType: backend.ContentTypeJPEG,
			SizeBytes:   4,
			Status:      status,
			CreatedAt:   now(),
		}
		s.photos[personID] = append(s.photos[personID], photo)
		added = append(added, *photo)
	}
	return added
}

// SetPhotoStatus changes the status of a photo, as backend processing would.
func (s *Server) SetPhotoStatus(personID, photoID int64, status backend.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.photos[personID] {
		if p.ID == photoID {
			p.Status = status
		}
	}
}

// SetLatestRun replaces the latest preprocess run of a person.
func (s *Server) SetLatestRun(personID int64, run backend.PreprocessRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.PersonID = personID
	s.runs[personID] = &run
}

// Photos returns the registered photos of a person in registration order.
func (s *Server) Photos(personID int64) []backend.Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]backend.Photo, 0, len(s.photos[personID]))
	for _, p := range s.photos[personID] {
		out = append(out, *p)
	}
	return out
}

// Object returns the stored bytes and content type of an uploaded object.
func (s *Server) Object(key string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	return obj.data, obj.contentType, ok
}

func (s *Server) newID() int64 {
	s.nextID++
	return s.nextID
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// record stores the call and answers with an injected failure if one matches.
// Returns true when the response has been written.
func (s *Server) record(w http.ResponseWriter, op Op, target string) bool {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Op: op, Target: target})
	f, ok := s.failures[op][target]
	if !ok {
		f, ok = s.failures[op][""]
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	if f.Detail == "" {
		w.WriteHeader(f.Status)
		return true
	}
	writeError(w, f.Status, f.Detail)
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeValidationError answers like the backend's request validation does.
func writeValidationError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{"loc": []string{"body"}, "msg": msg, "type": "value_error"}},
	})
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil
}

// lookupPerson resolves the {id} path value. Writes a 404 and returns nil when
// the person does not exist. Must be called with s.mu held.
func (s *Server) lookupPerson(w http.ResponseWriter, r *http.Request) *backend.Person {
	id, ok := pathID(r, "id")
	if !ok {
		writeValidationError(w, "person id must be an integer")
		return nil
	}
	p, ok := s.persons[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Person not found")
		return nil
	}
	return p
}

func consentError(consentConfirmed, subjectIsAdult bool) string {
	if !consentConfirmed {
		return "consent_confirmed must be true"
	}
	if !subjectIsAdult {
		return "subject_is_adult must be true"
	}
	return ""
}

func (s *Server) createPerson(w http.ResponseWriter, r *http.Request) {
	if s.record(w, OpCreatePerson, "") {
		return
	}
	var in backend.PersonCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeValidationError(w, "name is required")
		return
	}
	if msg := consentError(in.ConsentConfirmed, in.SubjectIsAdult); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	writeJSON(w, http.StatusCreated, s.AddPerson(in.Name, in.ConsentConfirmed, in.SubjectIsAdult))
}

func (s *Server) listPersons(w http.ResponseWriter, r *http.Request) {
	if s.record(w, OpListPersons, "") {
		return
	}
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	s.mu.Lock()
	ids := make([]int64, 0, len(s.persons))
	for id := range s.persons {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	persons := make([]backend.Person, 0, len(ids))
	for i, id := range ids {
		if i < skip || len(persons) >= limit {
			continue
		}
		persons = append(persons, *s.persons[id])
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, persons)
}

func (s *Server) getPerson(w http.ResponseWriter, r *http.Request) {
	if s.record(w, OpGetPerson, r.PathValue("id")) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.lookupPerson(w, r); p != nil {
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) deletePerson(w http.ResponseWriter, r *http.Request) {
	if s.record(w, OpDeletePerson, r.PathValue("id")) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.lookupPerson(w, r)
	if p == nil {
		return
	}
	for _, photo := range s.photos[p.ID] {
		delete(s.objects, photo.S3Key)
	}
	delete(s.photos, p.ID)
	delete(s.runs, p.ID)
	delete(s.persons, p.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listPhotos(w http.ResponseWriter, r *http.Request) {
	if s.record(w, OpListPhotos, r.PathValue("id")) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.lookupPerson(w, r)
	if p == nil {
		return
	}
	// Newest first, like the real backend
	photos := make([]backend.Photo, 0, len(s.photos[p.ID]))
	for i := len(s.photos[p.ID]) - 1; i >= 0; i-- {
		photos = append(photos, *s.photos[p.ID][i])
	}
	writeJSON(w, http.StatusOK, photos)
}

func (s *Server) presign(w http.ResponseWriter, r *http.Request) {
	var in backend.PresignRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	if s.record(w, OpPresign, in.Filename) {
		return
	}
	if !slices.Contains(backend.AllowedContentTypes, in.ContentType) {
		writeValidationError(w, "String should match pattern '^(image/jpeg|image/png|image/webp)$'")
		return
	}
	if in.SizeBytes <= 0 || in.SizeBytes > s.MaxSizeBytes {
		writeValidationError(w, fmt.Sprintf("size_bytes must be between 1 and %d", s.MaxSizeBytes))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.lookupPerson(w, r)
	if p == nil {
		return
	}
	count := 0
	for _, photo := range s.photos[p.ID] {
		if photo.Status != backend.StatusRejected {
			count++
		}
	}
	if count >= s.MaxPhotos {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Maximum %d photos allowed", s.MaxPhotos))
		return
	}

	key := fmt.Sprintf("uploads/%d/%s/%s", p.ID, uuid.NewString(), in.Filename)
	writeJSON(w, http.StatusOK, backend.UploadAuthorization{
		URL:         s.URL + "/storage/" + key,
		Method:      http.MethodPut,
		Key:         key,
		ContentType: in.ContentType,
	})
}

func (s *Server) putObject(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if s.record(w, OpTransfer, key) {
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.objects[key] = object{data: data, contentType: r.Header.Get("Content-Type")}
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) getObject(w http.ResponseWriter, r *http.Request) {
	data, contentType, ok := s.Object(r.PathValue("key"))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

func (s *Server) complete(w http.ResponseWriter, r *http.Request) {
	var in backend.CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	if s.record(w, OpComplete, in.Key) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.lookupPerson(w, r)
	if p == nil {
		return
	}
	if _, ok := s.objects[in.Key]; !ok {
		writeError(w, http.StatusBadRequest, "Uploaded object not found")
		return
	}
	photo := &backend.Photo{
		ID:          s.newID(),
		S3Key:       in.Key,
		ContentType: in.ContentType,
		SizeBytes:   in.SizeBytes,
		Status:      backend.StatusUploaded,
		CreatedAt:   now(),
	}
	s.photos[p.ID] = append(s.photos[p.ID], photo)
	writeJSON(w, http.StatusCreated, photo)
}

// findPhoto resolves the {photoId} path value for person p. Must be called with s.mu held.
func (s *Server) findPhoto(w http.ResponseWriter, r *http.Request, p *backend.Person) (int, bool) {
	photoID, ok := pathID(r, "photoId")
	if !ok {
		writeValidationError(w, "photo id must be an integer")
		return 0, false
	}
	idx := slices.IndexFunc(s.photos[p.ID], func(photo *backend.Photo) bool { return photo.ID == photoID })
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Photo not found")
		return 0, false
	}
	return idx, true
}

func (s *Server) deletePhoto(w http.ResponseWriter, r *http.Request) {
	if s.record(w, OpDeletePhoto, r.PathValue("photoId")) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.lookupPerson(w, r)
	if p == nil {
		return
	}
	idx, ok := s.findPhoto(w, r, p)
	if !ok {
		return
	}
	delete(s.objects, s.photos[p.ID][idx].S3Key)
	s.photos[p.ID] = slices.Delete(s.photos[p.ID], idx, idx+1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) photoURL(w http.ResponseWriter, r *http.Request) {
	if s.record(w, OpPhotoURL, r.PathValue("photoId")) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.lookupPerson(w, r)
	if p == nil {
		return
	}
	idx, ok := s.findPhoto(w, r, p)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": s.URL + "/storage/" + s.photos[p.ID][idx].S3Key})
}

func (s *Server) preprocess(w http.ResponseWriter, r *http.Request) {
	if s.record(w, OpPreprocess, r.PathValue("id")) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.lookupPerson(w, r)
	if p == nil {
		return
	}
	if msg := consentError(p.ConsentConfirmed, p.SubjectIsAdult); msg != "" {
		writeError(w, http.StatusBadRequest, "Cannot preprocess: "+msg)
		return
	}
	uploaded := 0
	for _, photo := range s.photos[p.ID] {
		if photo.Status == backend.StatusUploaded {
			uploaded++
		}
	}
	if uploaded < s.MinPhotos {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Minimum %d photos required", s.MinPhotos))
		return
	}

	run := &backend.PreprocessRun{
		ID:        s.newID(),
		PersonID:  p.ID,
		Status:    backend.RunPending,
		CreatedAt: now(),
	}
	s.runs[p.ID] = run
	writeJSON(w, http.StatusOK, backend.PreprocessStart{
		PreprocessRunID: run.ID,
		JobID:           s.newID(),
		Status:          run.Status,
	})
}

func (s *Server) latestRun(w http.ResponseWriter, r *http.Request) {
	if s.record(w, OpLatestRun, r.PathValue("id")) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.lookupPerson(w, r)
	if p == nil {
		return
	}
	run, ok := s.runs[p.ID]
	if !ok {
		writeError(w, http.StatusNotFound, "No preprocess run found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}
