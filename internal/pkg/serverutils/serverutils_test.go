package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"ai-casebrief-be/internal/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Validation("op", "bad"), 400},
		{apperr.NotFound("op", apperr.ErrCaseNotFound), 404},
		{apperr.Conflict("op", apperr.ErrDuplicateAction), 200},
		{apperr.TurnBudget("op", 6), 202},
		{apperr.Transient("op", apperr.ErrBriefInFlight), 503},
		{apperr.Fatal("op", apperr.ErrStorageUnavailable), 503},
		{errors.New("boom"), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

type sample struct {
	Name string `json:"name" validate:"required"`
	Size int    `json:"size" validate:"min=1"`
}

func TestValidateRequest(t *testing.T) {
	err := ValidateRequest(sample{})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "Name failed required")
	assert.Contains(t, err.Error(), "Size failed min=1")

	assert.NoError(t, ValidateRequest(sample{Name: "x", Size: 2}))
}

func TestErrorHandlerAndOutcomes(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/bad", func(c *fiber.Ctx) error { return apperr.Validation("op", "nope") })
	app.Get("/dup", func(c *fiber.Ctx) error {
		data := map[string]string{"status": "duplicate"}
		return RespondOutcome(c, "ok", &data, apperr.Conflict("op", apperr.ErrDuplicateAction))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/bad", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/dup", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	var out BaseResponse[map[string]string]
	require.NoError(t, json.Unmarshal(body, &out))
	assert.False(t, out.Success)
	assert.Equal(t, "duplicate", out.Data["status"])
}

func TestJwtMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(NewJwtMiddleware("s3cret"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(c.Locals("service").(string)) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "chat-transport",
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "chat-transport", string(body))
}
