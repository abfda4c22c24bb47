package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

type registerUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	UserType  string `json:"user_type"`
}

// RegisterUser creates a user with a bcrypt-hashed password.
// POST /v1/users
func (h *Handler) RegisterUser(c echo.Context) error {
	var req registerUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "username and password are required"})
	}
	if req.UserType == "" {
		req.UserType = "user"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return h.errorJSON(c, err)
	}

	userID, err := h.store.AddUser(c.Request().Context(), req.FirstName, req.LastName, req.Username, string(hash), req.UserType)
	if err != nil {
		return h.errorJSON(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]string{"user_id": userID})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks the credentials and returns the user identity. There are no
// tokens; callers pass the user id with every request and the store verifies
// ownership on each operation.
// POST /v1/login
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	user, err := h.store.GetUserByUsername(c.Request().Context(), req.Username)
	if err != nil {
		return h.errorJSON(c, err)
	}
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	return c.JSON(http.StatusOK, user)
}
