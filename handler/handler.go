// Package handler provides the HTTP handlers for the storefront server.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stevemurr/storefront-server/model"
	"github.com/stevemurr/storefront-server/schema"
	"github.com/stevemurr/storefront-server/store"
)

// maxBodyBytes caps request bodies, bulk inserts included.
const maxBodyBytes = 4 << 20

// Fetcher performs a blocking GET against a third-party JSON API.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (any, error)
}

// Pinger is implemented by stores backed by a database connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options are the dependencies of a Handler.
type Options struct {
	// Products backs /products. Required.
	Products store.Store
	// Users backs /users. Defaults to an empty in-memory store.
	Users store.Store
	// ProductModel validates product bodies. Defaults to model.Product.
	ProductModel map[string]any

	Upstream    Fetcher
	FoxURL      string
	ProductsURL string

	Logger logrus.FieldLogger
}

// Handler holds the server dependencies and registers routes.
type Handler struct {
	products     store.Store
	users        store.Store
	productModel map[string]any
	upstream     Fetcher
	foxURL       string
	productsURL  string
	log          logrus.FieldLogger
	mux          *http.ServeMux
}

// New creates a Handler and wires up all routes.
func New(opts Options) *Handler {
	h := &Handler{
		products:     opts.Products,
		users:        opts.Users,
		productModel: opts.ProductModel,
		upstream:     opts.Upstream,
		foxURL:       opts.FoxURL,
		productsURL:  opts.ProductsURL,
		log:          opts.Logger,
		mux:          http.NewServeMux(),
	}
	if h.users == nil {
		h.users = store.NewMemoryStore()
	}
	if h.productModel == nil {
		h.productModel = model.Product
	}
	if h.log == nil {
		h.log = logrus.StandardLogger()
	}
	h.routes()
	return h
}

// ServeHTTP makes Handler an http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	// Health / status
	h.mux.HandleFunc("GET /{$}", h.root)
	h.mux.HandleFunc("GET /health", h.health)

	h.mux.HandleFunc("GET /items/{item_id}", h.getItem)

	h.mux.HandleFunc("GET /users", h.listUsers)
	h.mux.HandleFunc("POST /users", h.createUser)

	h.mux.HandleFunc("GET /products", h.listProducts)
	h.mux.HandleFunc("POST /products", h.createProduct)
	h.mux.HandleFunc("POST /products/bulk", h.createProductsBulk)

	// --- Upstream proxies ---
	h.mux.HandleFunc("GET /fox", h.getFox)
	h.mux.HandleFunc("GET /fakestore/products", h.listFakeStoreProducts)

	// --- Model endpoints ---
	h.mux.HandleFunc("GET /schemas", h.listSchemas)
	h.mux.HandleFunc("GET /schemas/{name}", h.getSchema)
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func writeValidationError(w http.ResponseWriter, ve *schema.ValidationError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": ve.Errors})
}

// fail logs err and answers with a generic 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	loggerFrom(r.Context(), h.log).WithError(err).Error("request failed")
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// decodeBody reads the request body and decodes it against s. On failure
// the response has been written and ok is false.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, s map[string]any) (v any, ok bool) {
	var raw any
	if err := readJSON(w, r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return nil, false
	}
	v, err := schema.Decode(s, raw)
	if err != nil {
		var ve *schema.ValidationError
		if errors.As(err, &ve) {
			writeValidationError(w, ve)
			return nil, false
		}
		h.fail(w, r, err)
		return nil, false
	}
	return v, true
}

func arrayOf(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func toRecords(v any) []map[string]any {
	list, _ := v.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, e := range list {
		if doc, ok := e.(map[string]any); ok {
			out = append(out, doc)
		}
	}
	return out
}

// ---------- status endpoints ----------

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"Hello": "World"})
}

// health pings the product store when it holds a database connection.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.products.(Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			loggerFrom(r.Context(), h.log).WithError(err).Warn("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ---------- items ----------

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("item_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("item_id: %q is not a valid integer", raw))
		return
	}
	var color any
	if q := r.URL.Query(); q.Has("color") {
		color = q.Get("color")
	}
	item := map[string]any{"item_id": id, "color": color}
	if err := schema.Validate(model.Item, item); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// ---------- users ----------

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	docs, err := h.users.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := schema.ProjectAll(model.UserPublic, docs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.users, model.User)
}

// ---------- products ----------

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	docs, err := h.products.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.products, h.productModel)
}

func (h *Handler) createProductsBulk(w http.ResponseWriter, r *http.Request) {
	v, ok := h.decodeBody(w, r, arrayOf(h.productModel))
	if !ok {
		return
	}
	n, err := h.products.AppendMany(r.Context(), toRecords(v))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"inserted": n})
}

// create validates the body against s, appends it and echoes the record.
func (h *Handler) create(w http.ResponseWriter, r *http.Request, st store.Store, s map[string]any) {
	v, ok := h.decodeBody(w, r, s)
	if !ok {
		return
	}
	doc, isObject := v.(map[string]any)
	if !isObject {
		writeValidationError(w, &schema.ValidationError{Errors: []schema.FieldError{
			{Path: "$", Message: "expected an object"},
		}})
		return
	}
	created, err := st.Append(r.Context(), doc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := schema.Project(s, created)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// ---------- upstream proxies ----------

// proxy fetches url and decodes the payload against s. Any failure,
// including a payload that does not match, is a server error.
func (h *Handler) proxy(w http.ResponseWriter, r *http.Request, url string, s map[string]any) {
	if h.upstream == nil || url == "" {
		h.fail(w, r, errors.New("upstream not configured"))
		return
	}
	raw, err := h.upstream.Fetch(r.Context(), url)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := schema.Decode(s, raw)
	if err != nil {
		h.fail(w, r, fmt.Errorf("upstream %s: %w", url, err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getFox(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, h.foxURL, model.Fox)
}

func (h *Handler) listFakeStoreProducts(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, h.productsURL, arrayOf(model.Product))
}

// ---------- model endpoints ----------

func (h *Handler) listSchemas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Registry)
}

func (h *Handler) getSchema(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s, ok := model.Registry[name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no model named %q (known: %s)", name, strings.Join(model.Names(), ", ")))
		return
	}
	writeJSON(w, http.StatusOK, s)
}
