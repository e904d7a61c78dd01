package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/cinchproject/jpm/pkg/catalog"
	"github.com/cinchproject/jpm/pkg/updatecenter"
)

func apiCatalog() *catalog.Catalog {
	return catalog.Build(map[string]updatecenter.Plugin{
		"git": {
			Name:    "git",
			Version: "5.2.0",
			Dependencies: []updatecenter.Dependency{
				{Name: "scm-api", Version: "1.0"},
			},
		},
		"scm-api": {Name: "scm-api", Version: "2.0"},
	})
}

func apiRouter() chi.Router {
	cat := apiCatalog()
	r := chi.NewRouter()
	r.Get("/api/plugins/{name}", pluginHandler(cat))
	r.Get("/api/depsolve/{name}", depsolveHandler(cat))
	return r
}

func TestPluginHandler(t *testing.T) {
	srv := httptest.NewServer(apiRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/plugins/git")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body pluginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Name != "git" || body.Version != "5.2.0" {
		t.Errorf("body = %+v", body)
	}
	if len(body.Dependencies) != 1 || body.Dependencies[0].Name != "scm-api" {
		t.Errorf("dependencies = %+v", body.Dependencies)
	}
}

func TestPluginHandlerNotFound(t *testing.T) {
	srv := httptest.NewServer(apiRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/plugins/ghost")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDepsolveHandler(t *testing.T) {
	srv := httptest.NewServer(apiRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/depsolve/git")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body depsolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Plugin != "git" {
		t.Errorf("plugin = %q, want git", body.Plugin)
	}
	if len(body.Closure) != 2 {
		t.Fatalf("closure = %+v, want 2 entries", body.Closure)
	}
	// scm-api declared at 1.0 but the catalog's latest is 2.0
	if body.Closure[1].Name != "scm-api" || body.Closure[1].Version != "2.0" {
		t.Errorf("closure[1] = %+v", body.Closure[1])
	}
}

func TestDepsolveHandlerNotFound(t *testing.T) {
	srv := httptest.NewServer(apiRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/depsolve/ghost")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
