package httpserver

import (
	"net/http"
)

// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope{data=userResponse}
// @Failure      401  {object}  envelope
// @Router       /auth/me [get]
func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeFail(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeOK(w, userResponse{
			ID:       user.ID,
			Username: user.Username,
			Nickname: user.Nickname,
		})
	}
}
