package templates

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/threedrepo/repo-backend/internal/api/http/response"
	"github.com/threedrepo/repo-backend/internal/auth/middleware"
	"github.com/threedrepo/repo-backend/internal/permissions"
	"github.com/threedrepo/repo-backend/internal/storage/mongodb/mongodbtest"
	"github.com/threedrepo/repo-backend/internal/users"
)

func newRouter(mt *mtest.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := permissions.NewTemplateService(users.NewRepo(mongodbtest.NewStore(mt)), nil)

	r := gin.New()
	g := r.Group("/:account/permission-templates", func(c *gin.Context) {
		if c.GetHeader("X-Admin") == "yes" {
			c.Set(middleware.CtxTeamspacePermissions, []string{permissions.PermTeamspaceAdmin})
		}
	})
	New(svc).Register(g)
	return r
}

func call(r http.Handler, method, path string, admin bool, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("X-Admin", "yes")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func teamspace(templates ...bson.D) bson.D {
	list := bson.A{}
	for _, t := range templates {
		list = append(list, t)
	}
	return mtest.CreateCursorResponse(0, "admin.users", mtest.FirstBatch, bson.D{
		{Key: "_id", Value: "acme"},
		{Key: "permissionTemplates", Value: list},
	})
}

func template(id string, perms ...string) bson.D {
	p := bson.A{}
	for _, s := range perms {
		p = append(p, s)
	}
	return bson.D{{Key: "_id", Value: id}, {Key: "permissions", Value: p}}
}

func code(t *testing.T, w *httptest.ResponseRecorder) response.Code {
	t.Helper()
	var c response.Code
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	return c
}

func TestTemplates(t *testing.T) {
	mt := mtest.New(t, mongodbtest.MockOptions())

	mt.Run("list", func(mt *mtest.T) {
		r := newRouter(mt)
		mt.AddMockResponses(teamspace(template("viewer", "view_model"), template("collaborator", "view_model", "upload_files")))

		w := call(r, http.MethodGet, "/acme/permission-templates", false, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list []permissions.Template
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		assert.Len(t, list, 2)
	})

	mt.Run("create", func(mt *mtest.T) {
		r := newRouter(mt)
		mt.AddMockResponses(
			teamspace(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		w := call(r, http.MethodPost, "/acme/permission-templates", true,
			permissions.Template{ID: "viewer", Permissions: []string{"view_model"}})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		r := newRouter(mt)
		mt.AddMockResponses(teamspace(template("viewer", "view_model")))

		w := call(r, http.MethodPost, "/acme/permission-templates", true,
			permissions.Template{ID: "viewer", Permissions: []string{"view_issue"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, response.DupPermTemplate, code(t, w))
	})

	mt.Run("create with unknown permission", func(mt *mtest.T) {
		r := newRouter(mt)

		w := call(r, http.MethodPost, "/acme/permission-templates", true,
			permissions.Template{ID: "viewer", Permissions: []string{"fly"}})
		assert.Equal(t, response.InvalidPerm, code(t, w))
	})

	mt.Run("create needs teamspace admin", func(mt *mtest.T) {
		r := newRouter(mt)

		w := call(r, http.MethodPost, "/acme/permission-templates", false,
			permissions.Template{ID: "viewer", Permissions: []string{"view_model"}})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		r := newRouter(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}))

		w := call(r, http.MethodDelete, "/acme/permission-templates/viewer", true, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, response.PermNotFound, code(t, w))
	})
}
