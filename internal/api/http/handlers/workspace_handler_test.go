package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceEndpoints_RequireAuth(t *testing.T) {
	app := newTestApp(t)

	for _, tc := range []struct{ method, path string }{
		{fiber.MethodPost, "/workspaces"},
		{fiber.MethodGet, "/workspaces"},
		{fiber.MethodGet, "/workspaces/my-team"},
	} {
		resp := doRequest(t, app, tc.method, tc.path, nil)
		require.Equal(t, http.StatusUnauthorized, resp.status, "%s %s", tc.method, tc.path)
		require.Equal(t, false, resp.parsed["success"])
	}
}

func TestWorkspaceCreateEndpoint(t *testing.T) {
	app := newTestApp(t)
	token, _ := registerUser(t, app, "jdoe", "jane@example.com")

	resp := doRequest(t, app, fiber.MethodPost, "/workspaces", map[string]string{
		"name":        "Design Team!",
		"description": "where the designers live",
	}, withBearer(token))
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))

	ws := resp.parsed["data"].(map[string]any)["workspace"].(map[string]any)
	require.Equal(t, "Design Team!", ws["name"])
	require.Equal(t, "design-team", ws["slug"])
	require.Equal(t, "user-1", ws["ownerId"])
	require.Equal(t, false, ws["isArchived"])

	members := ws["members"].([]any)
	require.Len(t, members, 1)
	owner := members[0].(map[string]any)
	require.Equal(t, "user-1", owner["userId"])
	require.Equal(t, "owner", owner["role"])
}

func TestWorkspaceCreateEndpoint_Validation(t *testing.T) {
	app := newTestApp(t)
	token, _ := registerUser(t, app, "jdoe", "jane@example.com")

	short := doRequest(t, app, fiber.MethodPost, "/workspaces", map[string]string{
		"name": "ab",
	}, withBearer(token))
	require.Equal(t, http.StatusBadRequest, short.status)
	require.Equal(t, "workspace name must be at least 3 characters", short.parsed["message"])

	missing := doRequest(t, app, fiber.MethodPost, "/workspaces", map[string]string{}, withBearer(token))
	require.Equal(t, http.StatusBadRequest, missing.status)
	require.Equal(t, "workspace name is required", missing.parsed["message"])
}

func TestWorkspaceCreateEndpoint_SlugConflict(t *testing.T) {
	app := newTestApp(t)
	token, _ := registerUser(t, app, "jdoe", "jane@example.com")
	otherToken, _ := registerUser(t, app, "other", "other@example.com")

	first := doRequest(t, app, fiber.MethodPost, "/workspaces", map[string]string{
		"name": "My Team!!",
	}, withBearer(token))
	require.Equal(t, http.StatusCreated, first.status)

	// Another user, different punctuation, same derived slug.
	second := doRequest(t, app, fiber.MethodPost, "/workspaces", map[string]string{
		"name": "my team",
	}, withBearer(otherToken))
	require.Equal(t, http.StatusConflict, second.status)
	require.Equal(t, "workspace with this name already exists", second.parsed["message"])
}

func TestWorkspaceListEndpoint(t *testing.T) {
	app := newTestApp(t)
	token, _ := registerUser(t, app, "jdoe", "jane@example.com")
	otherToken, _ := registerUser(t, app, "other", "other@example.com")

	for _, name := range []string{"Alpha Team", "Beta Team"} {
		resp := doRequest(t, app, fiber.MethodPost, "/workspaces", map[string]string{"name": name}, withBearer(token))
		require.Equal(t, http.StatusCreated, resp.status)
	}
	resp := doRequest(t, app, fiber.MethodPost, "/workspaces", map[string]string{"name": "Other Team"}, withBearer(otherToken))
	require.Equal(t, http.StatusCreated, resp.status)

	list := doRequest(t, app, fiber.MethodGet, "/workspaces", nil, withBearer(token))
	require.Equal(t, http.StatusOK, list.status, string(list.body))

	workspaces := list.parsed["data"].(map[string]any)["workspaces"].([]any)
	require.Len(t, workspaces, 2)
	require.Equal(t, "beta-team", workspaces[0].(map[string]any)["slug"])
	require.Equal(t, "alpha-team", workspaces[1].(map[string]any)["slug"])

	empty := doRequest(t, app, fiber.MethodGet, "/workspaces", nil, withBearer(otherToken))
	require.Equal(t, http.StatusOK, empty.status)
	require.Len(t, empty.parsed["data"].(map[string]any)["workspaces"].([]any), 1)
}

func TestWorkspaceGetEndpoint_AccessIsolation(t *testing.T) {
	app := newTestApp(t)
	token, _ := registerUser(t, app, "jdoe", "jane@example.com")
	outsiderToken, _ := registerUser(t, app, "outsider", "outsider@example.com")

	created := doRequest(t, app, fiber.MethodPost, "/workspaces", map[string]string{"name": "Secret Club"}, withBearer(token))
	require.Equal(t, http.StatusCreated, created.status)

	member := doRequest(t, app, fiber.MethodGet, "/workspaces/secret-club", nil, withBearer(token))
	require.Equal(t, http.StatusOK, member.status, string(member.body))
	ws := member.parsed["data"].(map[string]any)["workspace"].(map[string]any)
	require.Equal(t, "secret-club", ws["slug"])

	// A non-member gets the same response as for a slug that does not
	// exist, so the endpoint leaks nothing about the workspace.
	denied := doRequest(t, app, fiber.MethodGet, "/workspaces/secret-club", nil, withBearer(outsiderToken))
	missing := doRequest(t, app, fiber.MethodGet, "/workspaces/no-such-team", nil, withBearer(outsiderToken))
	require.Equal(t, http.StatusNotFound, denied.status)
	require.Equal(t, http.StatusNotFound, missing.status)
	require.Equal(t, string(denied.body), string(missing.body))
	require.Equal(t, "workspace not found", denied.parsed["message"])
}
