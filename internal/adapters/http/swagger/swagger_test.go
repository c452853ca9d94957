package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tipping/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func serve(mux *http.ServeMux, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(method, path, http.NoBody))
	return w
}

func TestRegister(t *testing.T) {
	Convey("Given a mux with the docs routes", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)

		Convey("The OpenAPI document is served as YAML", func() {
			w := serve(mux, http.MethodGet, OpenAPIPath)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/yaml; charset=utf-8")
			So(w.Body.Bytes(), ShouldResemble, OpenAPI)
		})

		Convey("The docs page points ReDoc at the document", func() {
			w := serve(mux, http.MethodGet, DocsPath)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "text/html; charset=utf-8")
			So(w.Body.String(), ShouldContainSubstring, RedocURL)
			So(w.Body.String(), ShouldContainSubstring, "Redoc.init('/openapi.yaml'")
		})

		Convey("HEAD returns headers without a body", func() {
			w := serve(mux, http.MethodHead, OpenAPIPath)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/yaml")
			So(w.Body.Len(), ShouldEqual, 0)
		})

		Convey("Other methods are not found", func() {
			for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
				So(serve(mux, m, DocsPath).Code, ShouldEqual, http.StatusNotFound)
			}
		})
	})

	Convey("Given a nil mux", t, func() {
		So(func() { Register(context.Background(), nil) }, ShouldPanic)
	})
}

func TestOpenAPIDocumentsEveryRoute(t *testing.T) {
	Convey("Given the embedded OpenAPI document", t, func() {
		doc := string(OpenAPI)

		Convey("Every API route has a path entry", func() {
			for _, p := range []string{
				"/api/years", "/api/stops", "/api/evaluate", "/api/view",
				"/api/flips", "/api/series", "/stats", "/healthz",
			} {
				So(strings.Contains(doc, "\n  "+p+":"), ShouldBeTrue)
			}
		})
	})
}

func TestErrServe(t *testing.T) {
	Convey("ErrServe has a stable message", t, func() {
		So(ErrServe.Error(), ShouldEqual, "swagger serve failed")
	})
}
