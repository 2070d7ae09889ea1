package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mallguide-server-go/internal/domain/directory/aggregate"
	"mallguide-server-go/internal/domain/directory/artifact"
	"mallguide-server-go/internal/domain/directory/repository"
	"mallguide-server-go/internal/domain/directory/service"
	"mallguide-server-go/internal/domain/eventbus"
	"mallguide-server-go/internal/platform/config"
	httptransport "mallguide-server-go/internal/transport/http"
)

type openGate struct{}

func (openGate) Allow(context.Context, string) bool { return true }

type fixture struct {
	router *httptransport.Router
	events []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bus := eventbus.New()
	f := &fixture{}
	require.NoError(t, bus.Subscribe(eventbus.EventStoreCreated, func(d eventbus.StoreEventData) {
		f.events = append(f.events, "created:"+d.StoreID)
	}))
	require.NoError(t, bus.Subscribe(eventbus.EventStoreDeleted, func(d eventbus.StoreEventData) {
		f.events = append(f.events, "deleted:"+d.StoreID)
	}))

	gen := artifact.NewGenerator(aggregate.NewCatalog(), repository.NewMemoryArtifactRepository())
	dir, err := service.NewDirectoryService(service.Options{
		Records:   repository.NewMemoryStoreRepository(),
		Artifacts: gen,
		Events:    bus,
	})
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Web.StaticDir = ""
	router, err := httptransport.Build(httptransport.Options{Config: cfg, Gate: openGate{}})
	require.NoError(t, err)

	svc, err := NewService(dir, nil)
	require.NoError(t, err)
	svc.Register(context.Background(), router.Public, router.Secured)

	f.router = router
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.Engine.ServeHTTP(w, req)
	return w
}

const acme = `{"name":"Acme Tools","category":"DIY","description":"Hardware","phone":"555-0100"}`

func TestCreateThenGet(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/create-store", acme)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"Store created successfully","id":"Acme_Tools"}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/stores/Acme_Tools", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Store aggregate.Store `json:"store"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Acme Tools", got.Store.Name)
	assert.Equal(t, "Ground", got.Store.Floor)
	assert.Equal(t, "MapComponent", got.Store.MapLocation)

	w = f.do(t, http.MethodGet, "/get-stores", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Acme_Tools"`)

	assert.Equal(t, []string{"created:Acme_Tools"}, f.events)
}

func TestCreateAcceptsConsoleShape(t *testing.T) {
	f := newFixture(t)

	body := `{"storeName":"Wellness  Corner","storeData":{"id":"ignored","category":"Health and Wellness",` +
		`"floor":"Level 2","phone":"555-0199","description":"Spa","mapLocation":"MapComponent"}}`
	w := f.do(t, http.MethodPost, "/create-store", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"id":"Wellness_Corner"`)
}

func TestCreateErrors(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/create-store", `{"name":"Acme Tools","category":"DIY","phone":"555"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "description")

	w = f.do(t, http.MethodPost, "/create-store", `{"name":"X","category":"Garden","description":"d","phone":"1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/create-store", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Invalid request body"}`, w.Body.String())

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/create-store", acme).Code)
	w = f.do(t, http.MethodPost, "/create-store", acme)
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Equal(t, []string{"created:Acme_Tools"}, f.events)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/artifacts/X", "").Code)
}

func TestDeleteIsIdempotent(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/create-store", acme).Code)

	for i := 0; i < 2; i++ {
		w := f.do(t, http.MethodDelete, "/delete-store/Acme_Tools", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Store Acme_Tools deleted successfully"}`, w.Body.String())
	}

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/stores/Acme_Tools", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/artifacts/Acme_Tools", "").Code)
	assert.Equal(t, []string{"created:Acme_Tools", "deleted:Acme_Tools", "deleted:Acme_Tools"}, f.events)

	w := f.do(t, http.MethodDelete, "/delete-store/%20", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "deleted:", f.events[len(f.events)-1])
}

func TestArtifactETag(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/create-store", acme).Code)

	w := f.do(t, http.MethodGet, "/artifacts/Acme_Tools", "")
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	var a aggregate.Artifact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.Equal(t, "Acme_Tools", a.StoreID)
	assert.Equal(t, "diy", a.Bucket)
	assert.Equal(t, `"`+a.Digest+`"`, etag)

	w = f.do(t, http.MethodGet, "/artifacts/Acme_Tools", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())

	w = f.do(t, http.MethodGet, "/artifacts/Acme_Tools", "", "If-None-Match", `"stale"`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestArtifactsByCategory(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/create-store", acme).Code)

	w := f.do(t, http.MethodGet, "/artifacts?category=DIY", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Artifacts []aggregate.Artifact `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Artifacts, 1)
	assert.Equal(t, "Acme_Tools", body.Artifacts[0].StoreID)

	w = f.do(t, http.MethodGet, "/artifacts?category=Food", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"artifacts":[]}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/artifacts", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/artifacts?category=Garden", "").Code)
}

func TestCategories(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Food Court"`)
}
