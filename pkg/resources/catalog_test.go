package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covergrid/docqa-console/pkg/upstream"
)

// fakePlatform is an in-memory document-QA platform backing the catalog
// tests. It tracks list-call counts so the tests can observe cache behavior.
type fakePlatform struct {
	mu        sync.Mutex
	companies []upstream.Company
	documents map[int64][]upstream.Document
	qaLogs    []upstream.QALogEntry
	nextID    int64

	companyListCalls int
	qaLogListCalls   int
}

type fakeSource struct{}

func (fakeSource) Tokens(context.Context) (string, string, error) { return "token", "refresh", nil }
func (fakeSource) StorePair(context.Context, string, string) error { return nil }
func (fakeSource) StoreAccess(context.Context, string) error       { return nil }
func (fakeSource) ClearTokens(context.Context) error               { return nil }

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		companies: []upstream.Company{{ID: 1, Name: "Acme Insurance"}},
		documents: map[int64][]upstream.Document{},
		nextID:    100,
	}
}

func (p *fakePlatform) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /admin/companies", func(w http.ResponseWriter, _ *http.Request) {
		p.mu.Lock()
		p.companyListCalls++
		out := append([]upstream.Company(nil), p.companies...)
		p.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
	})
	mux.HandleFunc("POST /admin/companies", func(w http.ResponseWriter, r *http.Request) {
		var params upstream.CompanyParams
		_ = json.NewDecoder(r.Body).Decode(&params)
		p.mu.Lock()
		p.nextID++
		created := upstream.Company{ID: p.nextID, Name: params.Name}
		p.companies = append(p.companies, created)
		p.mu.Unlock()
		writeJSON(w, http.StatusCreated, created)
	})
	mux.HandleFunc("DELETE /admin/companies/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /companies/{id}/pdfs", func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r, "id")
		p.mu.Lock()
		out := append([]upstream.Document(nil), p.documents[id]...)
		p.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
	})
	mux.HandleFunc("POST /companies/{id}/pdfs", func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r, "id")
		_, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		p.mu.Lock()
		p.nextID++
		doc := upstream.Document{ID: p.nextID, CompanyID: id, Filename: header.Filename}
		p.documents[id] = append(p.documents[id], doc)
		p.mu.Unlock()
		writeJSON(w, http.StatusCreated, doc)
	})

	mux.HandleFunc("POST /companies/{id}/ask", func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r, "id")
		var req struct {
			Question string `json:"question"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		p.mu.Lock()
		p.nextID++
		p.qaLogs = append(p.qaLogs, upstream.QALogEntry{ID: p.nextID, CompanyID: id, Question: req.Question, Answer: "42"})
		p.mu.Unlock()
		writeJSON(w, http.StatusOK, upstream.Answer{Answer: "42"})
	})

	mux.HandleFunc("GET /admin/qa-logs", func(w http.ResponseWriter, _ *http.Request) {
		p.mu.Lock()
		p.qaLogListCalls++
		out := append([]upstream.QALogEntry(nil), p.qaLogs...)
		p.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
	})

	mux.HandleFunc("GET /admin/agents/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, upstream.AgentsStatus{Agents: []upstream.AgentStatus{{CompanyID: 1, State: "ready"}}})
	})

	return mux
}

func pathID(r *http.Request, name string) int64 {
	var id int64
	_, _ = fmt.Sscanf(r.PathValue(name), "%d", &id)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestCatalog(t *testing.T) (*Catalog, *fakePlatform) {
	t.Helper()
	platform := newFakePlatform()
	srv := httptest.NewServer(platform.handler())
	t.Cleanup(srv.Close)

	client, err := upstream.NewClient(srv.URL, fakeSource{}, upstream.WithRefreshSkew(0))
	require.NoError(t, err)

	catalog := NewCatalog(client, Config{TTL: time.Minute, FetchRetries: -1})
	t.Cleanup(catalog.Close)
	return catalog, platform
}

func TestCompanies_ServedFromCache(t *testing.T) {
	catalog, platform := newTestCatalog(t)
	ctx := context.Background()

	first, err := catalog.Companies.Get(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = catalog.Companies.Get(ctx)
	require.NoError(t, err)

	platform.mu.Lock()
	calls := platform.companyListCalls
	platform.mu.Unlock()
	assert.Equal(t, 1, calls, "repeated reads within the TTL hit the cache")
}

func TestCreateCompany_InvalidatesList(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	before, err := catalog.Companies.Get(ctx)
	require.NoError(t, err)
	require.Len(t, before, 1)

	created, err := catalog.CreateCompany(ctx, upstream.CompanyParams{Name: "Globex Insurance"})
	require.NoError(t, err)
	assert.Equal(t, "Globex Insurance", created.Name)

	after, err := catalog.Companies.Get(ctx)
	require.NoError(t, err)
	require.Len(t, after, 2, "the list reflects the mutation on the next read")
	assert.Equal(t, "Globex Insurance", after[1].Name)
}

func TestUploadDocument_InvalidatesCompanyDocuments(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	docs, err := catalog.Documents.Get(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, docs)

	doc, err := catalog.UploadDocument(ctx, 1, "policy.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "policy.pdf", doc.Filename)

	docs, err = catalog.Documents.Get(ctx, "1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "policy.pdf", docs[0].Filename)
}

func TestAsk_InvalidatesQALogs(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	logs, err := catalog.QALogs.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, logs)

	answer, err := catalog.Ask(ctx, 1, "What is covered?", "")
	require.NoError(t, err)
	assert.Equal(t, "42", answer.Answer)

	logs, err = catalog.QALogs.Get(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "What is covered?", logs[0].Question)
}

func TestDeleteCompany_InvalidatesScopedViews(t *testing.T) {
	catalog, platform := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.Companies.Get(ctx)
	require.NoError(t, err)
	_, err = catalog.Documents.Get(ctx, "1")
	require.NoError(t, err)

	require.NoError(t, catalog.DeleteCompany(ctx, 1))

	platform.mu.Lock()
	callsBefore := platform.companyListCalls
	platform.mu.Unlock()

	_, err = catalog.Companies.Get(ctx)
	require.NoError(t, err)

	platform.mu.Lock()
	callsAfter := platform.companyListCalls
	platform.mu.Unlock()
	assert.Equal(t, callsBefore+1, callsAfter, "deletion forces a company refetch")
}
