package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const jwtTestSecret = "grading-secret"

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtTestSecret))
	require.NoError(t, err)
	return signed
}

func newJWTApp() *fiber.App {
	app := fiber.New()
	app.Use(JWTProtected(jwtTestSecret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		graderID, _ := c.Locals("grader_id").(string)
		role, _ := c.Locals("user_role").(string)
		return c.JSON(fiber.Map{"grader_id": graderID, "role": role})
	})
	return app
}

func TestJWTProtectedBindsGraderClaims(t *testing.T) {
	app := newJWTApp()

	token := signedToken(t, jwt.MapClaims{"grader_id": "essay-model-v2", "role": "ml"})
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var body struct {
		GraderID string `json:"grader_id"`
		Role     string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(data, &body))
	require.Equal(t, "essay-model-v2", body.GraderID)
	require.Equal(t, "ml", body.Role)
}

func TestJWTProtectedRejectsMissingHeader(t *testing.T) {
	app := newJWTApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedRejectsBadSignature(t *testing.T) {
	app := newJWTApp()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"grader_id": "peer-1"})
	signed, err := token.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestExtractGraderIDFromClaims(t *testing.T) {
	require.Equal(t, "essay-model-v2", extractGraderIDFromClaims(jwt.MapClaims{"grader_id": "essay-model-v2"}))
	require.Equal(t, "42", extractGraderIDFromClaims(jwt.MapClaims{"sub": float64(42)}))
	require.Equal(t, "", extractGraderIDFromClaims(jwt.MapClaims{}))
}
