package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bookworm/backend/internal/models"
	"github.com/bookworm/backend/internal/services"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := services.NewMemoryItemStore(nil)
	require.NoError(t, err)
	return setupServerWithStore(t, store)
}

func setupServerWithStore(t *testing.T, store services.ItemStore) *httptest.Server {
	t.Helper()
	handler := NewItemsHandler(services.NewItemService(store), 0)
	server := httptest.NewServer(NewRouter(handler, RouterOptions{EnableMetrics: true}))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createItem(t *testing.T, server *httptest.Server, body map[string]any) primitive.ObjectID {
	t.Helper()
	resp := doJSON(t, http.MethodPost, server.URL+"/items", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ack := decode[models.InsertAck](t, resp)
	require.True(t, ack.Acknowledged)
	return ack.InsertedID
}

func TestRoot(t *testing.T) {
	server := setupTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, LivenessMessage, string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestHealth(t *testing.T) {
	server := setupTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

type downStore struct{ services.ItemStore }

func (downStore) Ping(ctx context.Context) error { return errors.New("server selection timeout") }

func (downStore) Find(ctx context.Context, q models.ItemQuery) ([]models.Item, error) {
	return nil, errors.New("server selection timeout")
}

func TestStoreFailures(t *testing.T) {
	server := setupServerWithStore(t, downStore{})

	resp := doJSON(t, http.MethodGet, server.URL+"/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/items", nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	msg := decode[models.MessageResponse](t, resp)
	assert.Equal(t, "Failed to list items", msg.Message)
}

func TestCreateAndGetItem(t *testing.T) {
	server := setupTestServer(t)

	id := createItem(t, server, map[string]any{
		"name":        "Atlas",
		"description": "Maps",
		"imageUrl":    "http://x/a.png",
		"price":       12.5,
	})

	resp := doJSON(t, http.MethodGet, server.URL+"/items/"+id.Hex(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, id.Hex(), raw["_id"])
	assert.Equal(t, "Atlas", raw["name"])
	assert.Equal(t, "Maps", raw["description"])
	assert.Equal(t, "http://x/a.png", raw["imageUrl"])
	assert.Equal(t, "", raw["category"])
	assert.Equal(t, 12.5, raw["price"])
	assert.NotEmpty(t, raw["createdAt"])
}

func TestCreateItemStringPrice(t *testing.T) {
	server := setupTestServer(t)

	id := createItem(t, server, map[string]any{
		"name":        "Dune",
		"description": "Desert planet",
		"imageUrl":    "http://x/d.png",
		"category":    "scifi",
		"price":       "9.99",
	})

	resp := doJSON(t, http.MethodGet, server.URL+"/items/"+id.Hex(), nil)
	item := decode[models.Item](t, resp)
	assert.Equal(t, 9.99, item.Price)
	assert.Equal(t, "scifi", item.Category)
}

func TestCreateItemValidation(t *testing.T) {
	server := setupTestServer(t)

	bodies := []any{
		map[string]any{"description": "d", "imageUrl": "http://x", "price": 1},
		map[string]any{"name": "n", "imageUrl": "http://x", "price": 1},
		map[string]any{"name": "n", "description": "d", "price": 1},
		map[string]any{"name": "n", "description": "d", "imageUrl": "http://x"},
		map[string]any{"name": "n", "description": "d", "imageUrl": "http://x", "price": -5},
		map[string]any{"name": "n", "description": "d", "imageUrl": "http://x", "price": "ten"},
		map[string]any{"name": "", "description": "d", "imageUrl": "http://x", "price": 3},
		nil,
	}

	for _, body := range bodies {
		resp := doJSON(t, http.MethodPost, server.URL+"/items", body)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %v", body)
		msg := decode[models.MessageResponse](t, resp)
		assert.Equal(t, models.MissingFieldsMessage, msg.Message)
	}

	resp := doJSON(t, http.MethodGet, server.URL+"/items", nil)
	items := decode[[]models.Item](t, resp)
	assert.Empty(t, items)
}

func TestCreateItemMalformedBody(t *testing.T) {
	server := setupTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/items", `{"name": `)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	msg := decode[models.MessageResponse](t, resp)
	assert.Equal(t, "Invalid request body", msg.Message)
}

func TestCreateItemNonStringField(t *testing.T) {
	server := setupTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/items",
		`{"name": 123, "description": "d", "imageUrl": "http://x", "price": 1}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	msg := decode[models.MessageResponse](t, resp)
	assert.Equal(t, models.MissingFieldsMessage, msg.Message)
	assert.Contains(t, msg.Errors, "name")
}

func TestGetItemInvalidAndMissing(t *testing.T) {
	server := setupTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/items/not-an-object-id", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	msg := decode[models.MessageResponse](t, resp)
	assert.Equal(t, "Invalid item id", msg.Message)

	resp = doJSON(t, http.MethodGet, server.URL+"/items/"+primitive.NewObjectID().Hex(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "null", strings.TrimSpace(string(body)))
}

func TestListItemsFiltersAndSorts(t *testing.T) {
	server := setupTestServer(t)

	fixtures := []map[string]any{
		{"name": "Wizard's Tome", "description": "Spells", "imageUrl": "http://x/1", "category": "fantasy", "price": 30},
		{"name": "Dragon", "description": "A dragon story", "imageUrl": "http://x/2", "category": "fantasy", "price": 12},
		{"name": "Cookbook", "description": "wizardly recipes", "imageUrl": "http://x/3", "category": "food", "price": 8},
		{"name": "Physics", "description": "Mechanics", "imageUrl": "http://x/4", "category": "science", "price": 45},
	}
	for _, f := range fixtures {
		createItem(t, server, f)
	}

	list := func(query string) []models.Item {
		resp := doJSON(t, http.MethodGet, server.URL+"/items"+query, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decode[[]models.Item](t, resp)
	}

	t.Run("search", func(t *testing.T) {
		items := list("?search=WIZARD")
		var names []string
		for _, it := range items {
			names = append(names, it.Name)
		}
		assert.ElementsMatch(t, []string{"Wizard's Tome", "Cookbook"}, names)
	})

	t.Run("category", func(t *testing.T) {
		items := list("?category=fantasy")
		require.Len(t, items, 2)
		for _, it := range items {
			assert.Equal(t, "fantasy", it.Category)
		}
	})

	t.Run("search and category", func(t *testing.T) {
		items := list("?search=wizard&category=fantasy")
		require.Len(t, items, 1)
		assert.Equal(t, "Wizard's Tome", items[0].Name)
	})

	t.Run("price_low", func(t *testing.T) {
		items := list("?sort=price_low")
		require.Len(t, items, 4)
		for i := 1; i < len(items); i++ {
			assert.LessOrEqual(t, items[i-1].Price, items[i].Price)
		}
	})

	t.Run("price_high", func(t *testing.T) {
		items := list("?sort=price_high")
		for i := 1; i < len(items); i++ {
			assert.GreaterOrEqual(t, items[i-1].Price, items[i].Price)
		}
	})

	t.Run("newest", func(t *testing.T) {
		items := list("")
		require.Len(t, items, 4)
		for i := 1; i < len(items); i++ {
			assert.False(t, items[i].CreatedAt.After(items[i-1].CreatedAt))
		}
	})

	t.Run("no match", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, server.URL+"/items?search=zzz", nil)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "[]", strings.TrimSpace(string(body)))
	})
}

func TestUpdateItem(t *testing.T) {
	server := setupTestServer(t)
	id := createItem(t, server, map[string]any{
		"name":        "Atlas",
		"description": "Maps",
		"imageUrl":    "http://x/a.png",
		"category":    "travel",
		"price":       12.5,
	})
	itemURL := server.URL + "/items/" + id.Hex()

	resp := doJSON(t, http.MethodPatch, itemURL, map[string]any{"description": "World maps", "price": "15"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ack := decode[models.UpdateAck](t, resp)
	assert.True(t, ack.Acknowledged)
	assert.Equal(t, int64(1), ack.MatchedCount)
	assert.Equal(t, int64(1), ack.ModifiedCount)

	item := decode[models.Item](t, doJSON(t, http.MethodGet, itemURL, nil))
	assert.Equal(t, "Atlas", item.Name)
	assert.Equal(t, "World maps", item.Description)
	assert.Equal(t, "travel", item.Category)
	assert.Equal(t, 15.0, item.Price)
}

func TestUpdateItemZeroPriceIsNotApplied(t *testing.T) {
	server := setupTestServer(t)
	id := createItem(t, server, map[string]any{
		"name":        "Atlas",
		"description": "Maps",
		"imageUrl":    "http://x/a.png",
		"price":       12.5,
	})
	itemURL := server.URL + "/items/" + id.Hex()

	resp := doJSON(t, http.MethodPatch, itemURL, map[string]any{"price": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	msg := decode[models.MessageResponse](t, resp)
	assert.Equal(t, "Nothing to update", msg.Message)

	item := decode[models.Item](t, doJSON(t, http.MethodGet, itemURL, nil))
	assert.Equal(t, 12.5, item.Price)
}

func TestUpdateItemErrors(t *testing.T) {
	server := setupTestServer(t)
	id := createItem(t, server, map[string]any{
		"name":        "Atlas",
		"description": "Maps",
		"imageUrl":    "http://x/a.png",
		"price":       12.5,
	})
	itemURL := server.URL + "/items/" + id.Hex()

	t.Run("invalid price", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, itemURL, map[string]any{"price": -1})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		msg := decode[models.MessageResponse](t, resp)
		assert.Equal(t, models.InvalidPriceMessage, msg.Message)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, server.URL+"/items/xyz", map[string]any{"name": "B"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty body", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, itemURL, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		msg := decode[models.MessageResponse](t, resp)
		assert.Equal(t, "Nothing to update", msg.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, itemURL, `[1,2`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	item := decode[models.Item](t, doJSON(t, http.MethodGet, itemURL, nil))
	assert.Equal(t, "Atlas", item.Name)
	assert.Equal(t, 12.5, item.Price)
}

func TestCORSPreflightAllowsPatch(t *testing.T) {
	server := setupTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/items/"+primitive.NewObjectID().Hex(), nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestCORSAllowedOrigins(t *testing.T) {
	store, err := services.NewMemoryItemStore(nil)
	require.NoError(t, err)
	handler := NewItemsHandler(services.NewItemService(store), 0)
	server := httptest.NewServer(NewRouter(handler, RouterOptions{
		AllowedOrigins: []string{"https://bookworm.example.com"},
	}))
	t.Cleanup(server.Close)

	preflight := func(origin string) *http.Response {
		req, err := http.NewRequest(http.MethodOptions, server.URL+"/items", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := preflight("https://bookworm.example.com")
	assert.Equal(t, "https://bookworm.example.com", resp.Header.Get("Access-Control-Allow-Origin"))

	resp = preflight("https://elsewhere.example.com")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	server := setupTestServer(t)
	doJSON(t, http.MethodGet, server.URL+"/items", nil)

	resp := doJSON(t, http.MethodGet, server.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "http_requests_total")
}
