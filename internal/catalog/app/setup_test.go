package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abgdnv/gocatalog/internal/catalog/config"
	"github.com/abgdnv/gocatalog/internal/catalog/service"
	"github.com/abgdnv/gocatalog/internal/catalog/store"
	"github.com/abgdnv/gocatalog/pkg/messaging"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// productURL is the base URL for the catalog API.
const productURL = "/api/v1/products"

// CatalogE2ESuite runs the real handler stack against a file-backed store in a temp directory.
type CatalogE2ESuite struct {
	suite.Suite
	path       string           // catalog file used by the current test
	server     *httptest.Server // HTTP server for the catalog application
	httpClient *http.Client     // HTTP client for making requests to the server
	logger     *slog.Logger
}

func (s *CatalogE2ESuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.path = filepath.Join(s.T().TempDir(), "productos.json")

	var cfg config.Config
	cfg.Catalog.Path = s.path
	cfg.Catalog.Indent = true

	deps := SetupDependencies(NewStore(cfg, s.logger), messaging.NoopPublisher{}, s.logger)
	s.server = httptest.NewServer(SetupHttpHandler(deps))
	s.httpClient = &http.Client{Timeout: 5 * time.Second}
}

func (s *CatalogE2ESuite) TearDownTest() {
	s.server.Close()
}

func TestCatalogE2ESuite(t *testing.T) {
	suite.Run(t, new(CatalogE2ESuite))
}

func (s *CatalogE2ESuite) do(method, path string, body any) *http.Response {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *CatalogE2ESuite) decode(resp *http.Response, v any) {
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func (s *CatalogE2ESuite) create(n int, code string) service.ProductDto {
	resp := s.do(http.MethodPost, productURL, service.ProductCreateDto{
		Title:       "Producto " + code,
		Description: "Descripcion " + code,
		Price:       float64(10 * n),
		Thumbnail:   "thumb.jpg",
		Code:        code,
		Stock:       int64(n),
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var created service.ProductDto
	s.decode(resp, &created)
	return created
}

func (s *CatalogE2ESuite) Test_CRUD_Flow() {
	// create three products
	for i, code := range []string{"ABC123", "DEF456", "GHI789"} {
		created := s.create(i+1, code)
		s.Equal(int64(i+1), created.ID)
	}

	// duplicate code is a conflict
	resp := s.do(http.MethodPost, productURL, service.ProductCreateDto{
		Title: "x", Description: "x", Price: 1, Thumbnail: "x", Code: "ABC123", Stock: 1,
	})
	s.Equal(http.StatusConflict, resp.StatusCode)

	// get 2 and 4
	resp = s.do(http.MethodGet, productURL+"/2", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var found service.ProductDto
	s.decode(resp, &found)
	s.Equal("DEF456", found.Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, productURL+"/4", nil).StatusCode)

	// whole-record replacement of 2
	resp = s.do(http.MethodPut, productURL+"/2", map[string]any{"title": "Nuevo Producto 2", "price": 25})
	s.Equal(http.StatusOK, resp.StatusCode)
	var updated service.ProductDto
	s.decode(resp, &updated)
	s.Equal(service.ProductDto{ID: 2, Title: "Nuevo Producto 2", Price: 25}, updated)

	// delete 3, twice
	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, productURL+"/3", nil).StatusCode)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, productURL+"/3", nil).StatusCode)

	// list reflects every change and matches the file
	resp = s.do(http.MethodGet, productURL, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var list []service.ProductDto
	s.decode(resp, &list)
	s.Require().Len(list, 2)
	s.Equal(int64(1), list[0].ID)
	s.Equal(int64(2), list[1].ID)

	data, err := os.ReadFile(s.path)
	s.Require().NoError(err)
	var persisted []store.Product
	s.Require().NoError(json.Unmarshal(data, &persisted))
	s.Len(persisted, 2)
	s.Equal("Nuevo Producto 2", persisted[1].Title)
}

func (s *CatalogE2ESuite) Test_EmptyCatalog() {
	resp := s.do(http.MethodGet, productURL, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.JSONEq("[]", string(body))
	s.NoFileExists(s.path)
}

func (s *CatalogE2ESuite) Test_Pagination() {
	for i, code := range []string{"A", "B", "C", "D"} {
		s.create(i+1, code)
	}

	resp := s.do(http.MethodGet, productURL+"?offset=1&limit=2", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var list []service.ProductDto
	s.decode(resp, &list)
	s.Require().Len(list, 2)
	s.Equal("B", list[0].Code)
	s.Equal("C", list[1].Code)
}

func (s *CatalogE2ESuite) Test_ValidationErrors() {
	resp := s.do(http.MethodPost, productURL, map[string]any{"title": "only a title"})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	var body struct {
		ValidationErrors map[string]string `json:"validation_errors"`
	}
	s.decode(resp, &body)
	s.Contains(body.ValidationErrors, "Code")
	s.Contains(body.ValidationErrors, "Price")
	s.NoFileExists(s.path)
}

func (s *CatalogE2ESuite) Test_MetricsAndHealth() {
	s.create(1, "ABC123")
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/healthz", nil).StatusCode)

	resp := s.do(http.MethodGet, "/metrics", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(body), `catalog_operations_total{operation="create",outcome="success"} 1`)
	s.Regexp(`http_requests_total\{method="POST",path="/api/v1/products/?",service="catalog",status="201"\} 1`, string(body))
	s.NotEmpty(resp.Header.Get("X-Request-Id"))
}

type staticVerifier struct {
	token string
}

func (v staticVerifier) Verify(_ context.Context, tokenString string) (jwt.Token, error) {
	if tokenString != v.token {
		return nil, errors.New("unknown token")
	}
	return jwt.NewBuilder().Subject("editor").Build()
}

func TestSetupHttpHandler_GuardsWritesWithVerifier(t *testing.T) {
	// given
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var cfg config.Config
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "productos.json")
	deps := SetupDependencies(NewStore(cfg, logger), messaging.NoopPublisher{}, logger)
	deps.Verifier = staticVerifier{token: "secret"}
	handler := SetupHttpHandler(deps)
	body := `{"title":"t","description":"d","price":1,"thumbnail":"x.jpg","code":"C1","stock":1}`

	post := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, productURL, strings.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// when / then
	assert.Equal(t, http.StatusUnauthorized, post(""))
	assert.Equal(t, http.StatusUnauthorized, post("wrong"))
	assert.Equal(t, http.StatusCreated, post("secret"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, productURL, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
