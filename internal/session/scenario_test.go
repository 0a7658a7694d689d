package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"inkwell/internal/api"
	"inkwell/internal/cache"
	"inkwell/internal/confirm"
	"inkwell/internal/domain"
)

// fakeService implements the slice of the remote service the editing
// workflow touches, with the real version semantics: monotonic numbering
// per chapter and an automatic backup before every restore.
type fakeService struct {
	projects    map[int64]*domain.Project
	chapters    map[int64]*domain.Chapter
	versions    map[int64][]domain.Version
	nextID      int64
	nextVersion int64
}

func newFakeService() *fakeService {
	return &fakeService{
		projects: make(map[int64]*domain.Project),
		chapters: make(map[int64]*domain.Chapter),
		versions: make(map[int64][]domain.Version),
	}
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/projects", f.createProject)
	mux.HandleFunc("POST /api/chapters/{projectID}", f.createChapter)
	mux.HandleFunc("PUT /api/chapters/{chapterID}", f.updateChapter)
	// GET /api/chapters/single/{chapterID}, GET /api/chapters/version/{versionID}
	// and GET /api/chapters/{chapterID}/versions overlap in ways ServeMux
	// rejects at registration, so dispatch the two-segment GETs by hand.
	mux.HandleFunc("GET /api/chapters/{first}/{second}", func(w http.ResponseWriter, r *http.Request) {
		first, second := r.PathValue("first"), r.PathValue("second")
		switch {
		case first == "single":
			r.SetPathValue("chapterID", second)
			f.getChapter(w, r)
		case first == "version":
			r.SetPathValue("versionID", second)
			f.getVersion(w, r)
		case second == "versions":
			r.SetPathValue("chapterID", first)
			f.listVersions(w, r)
		default:
			notFound(w, "route")
		}
	})
	mux.HandleFunc("POST /api/chapters/{chapterID}/create-version", f.createVersion)
	mux.HandleFunc("POST /api/chapters/{chapterID}/restore-version/{versionID}", f.restoreVersion)
	return mux
}

func pathID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter, what string) {
	w.WriteHeader(http.StatusNotFound)
	writeJSON(w, map[string]string{"detail": what + " not found"})
}

func (f *fakeService) createProject(w http.ResponseWriter, r *http.Request) {
	var req api.CreateProjectRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.nextID++
	p := &domain.Project{
		ID:           f.nextID,
		Title:        req.Title,
		Description:  req.Description,
		IsOwnWriting: req.IsOwnWriting,
		CreatedAt:    time.Now(),
	}
	f.projects[p.ID] = p
	writeJSON(w, p)
}

func (f *fakeService) createChapter(w http.ResponseWriter, r *http.Request) {
	projectID := pathID(r, "projectID")
	if _, ok := f.projects[projectID]; !ok {
		notFound(w, "Project")
		return
	}
	var req api.CreateChapterRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.nextID++
	ch := &domain.Chapter{
		ID:            f.nextID,
		ProjectID:     projectID,
		ChapterNumber: req.ChapterNumber,
		Title:         req.Title,
		Content:       req.Content,
		Notes:         req.Notes,
		WordCount:     len(strings.Fields(req.Content)),
		CreatedAt:     time.Now(),
	}
	f.chapters[ch.ID] = ch
	f.projects[projectID].ChapterCount++
	writeJSON(w, ch)
}

func (f *fakeService) getChapter(w http.ResponseWriter, r *http.Request) {
	ch, ok := f.chapters[pathID(r, "chapterID")]
	if !ok {
		notFound(w, "Chapter")
		return
	}
	writeJSON(w, ch)
}

func (f *fakeService) updateChapter(w http.ResponseWriter, r *http.Request) {
	ch, ok := f.chapters[pathID(r, "chapterID")]
	if !ok {
		notFound(w, "Chapter")
		return
	}
	var req api.UpdateChapterRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Title != nil {
		ch.Title = req.Title
	}
	if req.Content != nil {
		ch.Content = *req.Content
		ch.WordCount = len(strings.Fields(*req.Content))
	}
	if req.Notes != nil {
		ch.Notes = req.Notes
	}
	now := time.Now()
	ch.UpdatedAt = &now
	writeJSON(w, ch)
}

func (f *fakeService) listVersions(w http.ResponseWriter, r *http.Request) {
	// Like the real service, list entries omit content.
	full := f.versions[pathID(r, "chapterID")]
	out := make([]domain.Version, len(full))
	for i, v := range full {
		v.Content = nil
		v.Notes = nil
		out[i] = v
	}
	writeJSON(w, out)
}

func (f *fakeService) getVersion(w http.ResponseWriter, r *http.Request) {
	versionID := pathID(r, "versionID")
	for _, versions := range f.versions {
		for _, v := range versions {
			if v.ID == versionID {
				writeJSON(w, v)
				return
			}
		}
	}
	notFound(w, "Version")
}

func (f *fakeService) snapshot(chapterID int64, summary string) (int, bool) {
	ch, ok := f.chapters[chapterID]
	if !ok {
		return 0, false
	}
	next := 0
	for _, v := range f.versions[chapterID] {
		if v.VersionNumber > next {
			next = v.VersionNumber
		}
	}
	next++
	f.nextVersion++
	content := ch.Content
	v := domain.Version{
		ID:            f.nextVersion,
		VersionNumber: next,
		WordCount:     ch.WordCount,
		CreatedAt:     time.Now(),
		Content:       &content,
		Notes:         ch.Notes,
	}
	if summary != "" {
		s := summary
		v.ChangeSummary = &s
	}
	f.versions[chapterID] = append(f.versions[chapterID], v)
	return next, true
}

func (f *fakeService) createVersion(w http.ResponseWriter, r *http.Request) {
	n, ok := f.snapshot(pathID(r, "chapterID"), r.URL.Query().Get("change_summary"))
	if !ok {
		notFound(w, "Chapter")
		return
	}
	writeJSON(w, map[string]any{"message": "Version created", "version_number": n})
}

func (f *fakeService) restoreVersion(w http.ResponseWriter, r *http.Request) {
	chapterID := pathID(r, "chapterID")
	versionID := pathID(r, "versionID")
	ch, ok := f.chapters[chapterID]
	if !ok {
		notFound(w, "Chapter")
		return
	}
	var target *domain.Version
	for i := range f.versions[chapterID] {
		if f.versions[chapterID][i].ID == versionID {
			target = &f.versions[chapterID][i]
			break
		}
	}
	if target == nil {
		notFound(w, "Version")
		return
	}

	targetContent := *target.Content
	targetNotes := target.Notes
	targetWords := target.WordCount
	if _, ok := f.snapshot(chapterID, fmt.Sprintf("Auto-backup before restoring to v%d", target.VersionNumber)); !ok {
		notFound(w, "Chapter")
		return
	}
	ch.Content = targetContent
	ch.Notes = targetNotes
	ch.WordCount = targetWords
	writeJSON(w, map[string]string{"message": fmt.Sprintf("Restored to version %d", target.VersionNumber)})
}

// TestEditingWorkflowEndToEnd walks the whole editing workflow through the
// real HTTP client against the fake service: create, edit, save, snapshot,
// restore, and verify the safety-net backup.
func TestEditingWorkflowEndToEnd(t *testing.T) {
	service := newFakeService()
	srv := httptest.NewServer(service.handler())
	defer srv.Close()

	client := api.New(srv.URL+"/api", 5*time.Second, nil)
	cacheStore := cache.New(nil)
	gate := confirm.NewGate()
	sess := New(client, cacheStore, gate, nil)
	coord := NewCoordinator(client, cacheStore, gate, sess, nil)
	ctx := context.Background()

	project, err := client.CreateProject(ctx, api.CreateProjectRequest{
		Title:        "Novel",
		IsOwnWriting: true,
	})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	chapter, err := client.CreateChapter(ctx, project.ID, api.CreateChapterRequest{
		ChapterNumber: 1,
		Content:       "<p>Once upon a time</p>",
	})
	if err != nil {
		t.Fatalf("CreateChapter() error = %v", err)
	}

	if _, err := sess.Select(ctx, chapter.ID); err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	// v1: first draft.
	v1num, err := coord.Snapshot(ctx, chapter.ID, "first draft")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if v1num != 1 {
		t.Fatalf("first version number = %d, want 1", v1num)
	}

	// Edit, save, and snapshot the second draft.
	farAway := "<p>Once upon a time, in a land far away</p>"
	if err := sess.SetContent(farAway); err != nil {
		t.Fatal(err)
	}
	saved, err := sess.Save(ctx)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.WordCount != 9 {
		t.Errorf("word_count = %d, want server-derived 9", saved.WordCount)
	}
	if _, err := coord.Snapshot(ctx, chapter.ID, "second draft"); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	// Restore v1: destructive-with-safety-net, gated by confirmation.
	versions, err := coord.Versions(ctx, chapter.ID)
	if err != nil {
		t.Fatal(err)
	}
	v1 := versions[len(versions)-1]
	if v1.VersionNumber != 1 {
		t.Fatalf("oldest version number = %d, want 1", v1.VersionNumber)
	}

	pending := coord.RequestRestore(chapter.ID, v1.ID)
	if err := coord.Restore(ctx, project.ID, chapter.ID, v1.ID, pending.Token); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	// The chapter holds the first draft again, in the session and on a
	// fresh fetch.
	content, _ := sess.Buffer()
	if content != "<p>Once upon a time</p>" {
		t.Errorf("session content = %q, want restored first draft", content)
	}
	fetched, err := client.GetChapter(ctx, chapter.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fetched.Content != "<p>Once upon a time</p>" {
		t.Errorf("server content = %q", fetched.Content)
	}

	// A new backup version (number 3) holds the far-away text.
	versions, err = coord.Versions(ctx, chapter.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 3 {
		t.Fatalf("len(versions) = %d, want 3", len(versions))
	}
	backup := versions[0]
	if backup.VersionNumber != 3 {
		t.Errorf("backup version number = %d, want 3", backup.VersionNumber)
	}
	full, err := coord.Content(ctx, backup.ID)
	if err != nil {
		t.Fatal(err)
	}
	if full.Content == nil || *full.Content != farAway {
		t.Errorf("backup content = %v, want pre-restore text", full.Content)
	}
}
