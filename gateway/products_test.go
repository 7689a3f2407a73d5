package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/example/eshop/pkg/models"
	"github.com/example/eshop/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeProducts struct {
	categories *fakeCategories
	items      map[primitive.ObjectID]*models.Product
	gets       int
}

func (f *fakeProducts) populate(p *models.Product) models.PopulatedProduct {
	return models.PopulatedProduct{Product: p, Category: f.categories.items[p.Category]}
}

func (f *fakeProducts) ListProducts(_ context.Context, categories []primitive.ObjectID) ([]models.PopulatedProduct, error) {
	out := []models.PopulatedProduct{}
	for _, p := range f.items {
		if len(categories) > 0 && !containsID(categories, p.Category) {
			continue
		}
		out = append(out, f.populate(p))
	}
	return out, nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (f *fakeProducts) GetProduct(_ context.Context, id primitive.ObjectID) (*models.PopulatedProduct, error) {
	f.gets++
	p, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	populated := f.populate(p)
	return &populated, nil
}

func (f *fakeProducts) CreateProduct(_ context.Context, p *models.Product) error {
	p.ID = primitive.NewObjectID()
	f.items[p.ID] = p
	return nil
}

func (f *fakeProducts) UpdateProduct(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if v, ok := set["name"].(string); ok {
		p.Name = v
	}
	if v, ok := set["image"].(string); ok {
		p.Image = v
	}
	if v, ok := set["images"].([]string); ok {
		p.Images = v
	}
	if v, ok := set["category"].(primitive.ObjectID); ok {
		p.Category = v
	}
	return p, nil
}

func (f *fakeProducts) DeleteProduct(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(f.items, id)
	return p, nil
}

func (f *fakeProducts) CountProducts(context.Context) (int64, error) {
	return int64(len(f.items)), nil
}

func (f *fakeProducts) FeaturedProducts(_ context.Context, limit int64) ([]models.Product, error) {
	out := []models.Product{}
	for _, p := range f.items {
		if limit > 0 && int64(len(out)) == limit {
			break
		}
		if p.IsFeatured {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeCache struct {
	items       map[string]*models.PopulatedProduct
	hits        int
	invalidated []string
}

func (f *fakeCache) CacheProduct(_ context.Context, p *models.PopulatedProduct) error {
	f.items[p.ID.Hex()] = p
	return nil
}

func (f *fakeCache) CachedProduct(_ context.Context, id string) (*models.PopulatedProduct, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	f.hits++
	return p, nil
}

func (f *fakeCache) InvalidateProduct(_ context.Context, id string) error {
	delete(f.items, id)
	f.invalidated = append(f.invalidated, id)
	return nil
}

type formFile struct {
	field       string
	name        string
	contentType string
}

func (ts *testServer) multipart(t *testing.T, method, path, token string, fields map[string]string, files ...formFile) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.gw.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) seedCategory(name string) primitive.ObjectID {
	c := &models.Category{ID: primitive.NewObjectID(), Name: name, Icon: "icon", Color: "#000"}
	ts.categories.items[c.ID] = c
	return c.ID
}

func (ts *testServer) seedProduct(name string, category primitive.ObjectID) primitive.ObjectID {
	p := &models.Product{ID: primitive.NewObjectID(), Name: name, Description: "desc", Price: 10, Category: category}
	ts.products.items[p.ID] = p
	return p.ID
}

func productFields(category string) map[string]string {
	return map[string]string{
		"name":         "Red Shoe",
		"description":  "A red shoe",
		"price":        "49.5",
		"category":     category,
		"countInStock": "12",
	}
}

func TestCreateProduct(t *testing.T) {
	image := formFile{field: "image", name: "red shoe.png", contentType: "image/png"}

	t.Run("stores image and product", func(t *testing.T) {
		ts := newTestServer(t)
		category := ts.seedCategory("Shoes")

		rec := ts.multipart(t, http.MethodPost, "/api/v1/products", ts.token(t, "admin", true),
			productFields(category.Hex()), image)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decode(t, rec)
		assert.Equal(t, "Red Shoe", body["name"])
		assert.Equal(t, 49.5, body["price"])
		assert.True(t, strings.HasPrefix(body["image"].(string), "http://example.com/public/uploads/red-shoe.png-"))
		assert.True(t, strings.HasSuffix(body["image"].(string), ".png"))
		assert.Len(t, ts.products.items, 1)
	})

	t.Run("unknown category", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.multipart(t, http.MethodPost, "/api/v1/products", ts.token(t, "admin", true),
			productFields(primitive.NewObjectID().Hex()), image)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid Category", decode(t, rec)["message"])
		assert.Empty(t, ts.products.items)
	})

	t.Run("malformed category", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.multipart(t, http.MethodPost, "/api/v1/products", ts.token(t, "admin", true),
			productFields("shoes"), image)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid Category", decode(t, rec)["message"])
	})

	t.Run("missing image", func(t *testing.T) {
		ts := newTestServer(t)
		category := ts.seedCategory("Shoes")
		rec := ts.multipart(t, http.MethodPost, "/api/v1/products", ts.token(t, "admin", true),
			productFields(category.Hex()))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No image in the request", decode(t, rec)["message"])
		assert.Empty(t, ts.products.items)
	})

	t.Run("non-image upload", func(t *testing.T) {
		ts := newTestServer(t)
		category := ts.seedCategory("Shoes")
		rec := ts.multipart(t, http.MethodPost, "/api/v1/products", ts.token(t, "admin", true),
			productFields(category.Hex()), formFile{field: "image", name: "notes.txt", contentType: "text/plain"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid Image Type", decode(t, rec)["message"])
		assert.Empty(t, ts.products.items)
	})

	t.Run("missing required field", func(t *testing.T) {
		ts := newTestServer(t)
		category := ts.seedCategory("Shoes")
		fields := productFields(category.Hex())
		delete(fields, "name")
		rec := ts.multipart(t, http.MethodPost, "/api/v1/products", ts.token(t, "admin", true), fields, image)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requires admin", func(t *testing.T) {
		ts := newTestServer(t)
		category := ts.seedCategory("Shoes")
		rec := ts.multipart(t, http.MethodPost, "/api/v1/products", ts.token(t, "user", false),
			productFields(category.Hex()), image)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestGetProduct_ReadThroughCache(t *testing.T) {
	ts := newTestServer(t)
	category := ts.seedCategory("Shoes")
	id := ts.seedProduct("Red Shoe", category)
	path := "/api/v1/products/" + id.Hex()

	rec := ts.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Red Shoe", body["name"])
	assert.Equal(t, "Shoes", body["category"].(map[string]interface{})["name"])
	assert.Equal(t, 1, ts.products.gets)
	assert.Contains(t, ts.cache.items, id.Hex())

	rec = ts.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Red Shoe", decode(t, rec)["name"])
	assert.Equal(t, 1, ts.products.gets)
	assert.Equal(t, 1, ts.cache.hits)

	rec = ts.do(t, http.MethodGet, "/api/v1/products/"+primitive.NewObjectID().Hex(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/products/nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductWritesInvalidateCache(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.token(t, "admin", true)
	category := ts.seedCategory("Shoes")
	id := ts.seedProduct("Red Shoe", category)
	path := "/api/v1/products/" + id.Hex()

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, path, "", nil).Code)
	require.Contains(t, ts.cache.items, id.Hex())

	fields := productFields(category.Hex())
	fields["name"] = "Blue Shoe"
	rec := ts.multipart(t, http.MethodPut, path, admin, fields)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Blue Shoe", decode(t, rec)["name"])
	assert.NotContains(t, ts.cache.items, id.Hex())
	assert.Equal(t, []string{id.Hex()}, ts.cache.invalidated)

	rec = ts.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Blue Shoe", decode(t, rec)["name"])

	rec = ts.do(t, http.MethodDelete, path, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])
	assert.NotContains(t, ts.cache.items, id.Hex())
	assert.Equal(t, []string{id.Hex(), id.Hex()}, ts.cache.invalidated)

	rec = ts.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateGallery(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.token(t, "admin", true)
	id := ts.seedProduct("Red Shoe", ts.seedCategory("Shoes"))
	path := "/api/v1/products/gallery-images/" + id.Hex()

	img := func(name string) formFile {
		return formFile{field: "images", name: name, contentType: "image/jpeg"}
	}

	rec := ts.multipart(t, http.MethodPut, path, admin, nil, img("a.jpg"), img("b.jpg"), img("c.jpg"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "At most 2 images are allowed", decode(t, rec)["message"])
	assert.Empty(t, ts.products.items[id].Images)

	rec = ts.multipart(t, http.MethodPut, path, admin, nil, img("a.jpg"), img("b.jpg"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, ts.products.items[id].Images, 2)
	assert.Contains(t, ts.cache.invalidated, id.Hex())

	rec = ts.multipart(t, http.MethodPut, path, admin, nil, formFile{field: "images", name: "a.gif", contentType: "image/gif"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid Image Type", decode(t, rec)["message"])
}

func TestListProducts_CategoryFilter(t *testing.T) {
	ts := newTestServer(t)
	shoes := ts.seedCategory("Shoes")
	hats := ts.seedCategory("Hats")
	ts.seedProduct("Red Shoe", shoes)
	ts.seedProduct("Blue Shoe", shoes)
	ts.seedProduct("Cap", hats)

	rec := ts.do(t, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 3)

	rec = ts.do(t, http.MethodGet, "/api/v1/products?categories="+hats.Hex(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var filtered []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filtered))
	require.Len(t, filtered, 1)
	assert.Equal(t, "Cap", filtered[0]["name"])

	rec = ts.do(t, http.MethodGet, "/api/v1/products?categories=hats", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductCountAndFeatured(t *testing.T) {
	ts := newTestServer(t)
	shoes := ts.seedCategory("Shoes")
	ts.seedProduct("Red Shoe", shoes)
	featured := ts.seedProduct("Blue Shoe", shoes)
	ts.products.items[featured].IsFeatured = true

	rec := ts.do(t, http.MethodGet, "/api/v1/products/get/count", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, decode(t, rec)["productCount"])

	rec = ts.do(t, http.MethodGet, "/api/v1/products/get/featured/5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var products []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Blue Shoe", products[0]["name"])
}

func TestCategoryWritesInvalidateCachedProducts(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.token(t, "admin", true)
	shoes := ts.seedCategory("Shoes")
	hats := ts.seedCategory("Hats")
	red := ts.seedProduct("Red Shoe", shoes)
	blue := ts.seedProduct("Blue Shoe", shoes)
	hat := ts.seedProduct("Cap", hats)

	for _, id := range []primitive.ObjectID{red, blue, hat} {
		require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/v1/products/"+id.Hex(), "", nil).Code)
	}
	require.Len(t, ts.cache.items, 3)

	rec := ts.do(t, http.MethodPut, "/api/v1/categories/"+shoes.Hex(), admin,
		map[string]string{"name": "Sneakers", "icon": "shoe", "color": "#fff"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.ElementsMatch(t, []string{red.Hex(), blue.Hex()}, ts.cache.invalidated)
	assert.Contains(t, ts.cache.items, hat.Hex())

	rec = ts.do(t, http.MethodGet, "/api/v1/products/"+red.Hex(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sneakers", decode(t, rec)["category"].(map[string]interface{})["name"])

	ts.cache.invalidated = nil
	rec = ts.do(t, http.MethodDelete, "/api/v1/categories/"+hats.Hex(), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{hat.Hex()}, ts.cache.invalidated)
	assert.NotContains(t, ts.cache.items, hat.Hex())
}
