package handlers

import (
	"net/http"

	"github.com/nkiryanov/foodrhapsody/internal/handlers/middleware"
	"github.com/nkiryanov/foodrhapsody/internal/logger"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	userService userService,
	challengeService challengeService,
	foodnoteService foodnoteService,
	logger logger.Logger,
	version string,
) http.Handler {
	withAuth := middleware.AuthMiddleware(userService, logger)

	adminCheck := handleMeAdmin(userService, logger)
	withAdmin := middleware.AdminMiddleware(adminCheck)

	mux := http.NewServeMux()

	mux.Handle("POST /users", handleCreateUser(userService, logger))
	mux.Handle("GET /me", handleMe(userService, logger))
	mux.Handle("GET "+middleware.AdminCheckPath, adminCheck)
	mux.Handle("POST /me/token", handleRotateTokens(userService, logger))

	mux.Handle("GET /challenges", handleListChallenges(challengeService, logger))
	mux.Handle("POST /challenges", withAdmin(handleCreateChallenge(challengeService, logger)))
	mux.Handle("PUT /challenges", withAdmin(handleUpdateChallenge(challengeService, logger)))

	mux.Handle("GET /foodnotes", withAuth(handleListFoodnotes(foodnoteService, logger)))
	mux.Handle("POST /foodnotes", withAuth(handleCreateFoodnote(foodnoteService, logger)))
	mux.Handle("GET /foodnotes/{id}", withAuth(handleGetFoodnote(foodnoteService, logger)))

	mux.Handle("GET /health", handleHealth())
	mux.Handle("GET /version", handleVersion(version))

	handler := chain(mux,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}
