package httpserver

import (
	"net/http"

	"imchat/internal/service"
)

type skillRegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
	SkillKey string `json:"skill_key"`
}

type registerResponse struct {
	UserID int64 `json:"user_id"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expires_in"`
	User      userResponse `json:"user"`
}

// @Summary      Register a user with a skill key
// @Description  The only open registration path. The skill key must match the server's SKILL_REGISTER_KEY.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body skillRegisterRequest true "Register input"
// @Success      200  {object}  envelope{data=registerResponse}
// @Failure      403  {object}  envelope
// @Failure      409  {object}  envelope
// @Failure      422  {object}  envelope
// @Router       /skills/register [post]
func handleSkillRegister(authSvc *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req skillRegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		user, err := authSvc.Register(r.Context(), service.RegisterInput{
			Username: req.Username,
			Password: req.Password,
			Nickname: req.Nickname,
			SkillKey: req.SkillKey,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, registerResponse{UserID: user.ID})
	}
}

// @Summary      Closed registration endpoint
// @Tags         auth
// @Produce      json
// @Failure      403  {object}  envelope
// @Router       /auth/register [post]
func handleRegisterClosed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeFail(w, http.StatusForbidden, "registration via skill only")
	}
}

// @Summary      Log in
// @Description  Exchanges credentials for a bearer token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body loginRequest true "Credentials"
// @Success      200  {object}  envelope{data=loginResponse}
// @Failure      401  {object}  envelope
// @Failure      422  {object}  envelope
// @Router       /auth/login [post]
func handleLogin(authSvc *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		res, err := authSvc.Login(r.Context(), service.LoginInput{
			Username: req.Username,
			Password: req.Password,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeOK(w, loginResponse{
			Token:     res.Token,
			ExpiresIn: int64(res.ExpiresIn.Seconds()),
			User: userResponse{
				ID:       res.User.ID,
				Username: res.User.Username,
				Nickname: res.User.Nickname,
			},
		})
	}
}
