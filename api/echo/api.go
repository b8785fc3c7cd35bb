//nolint:varnamelen
package echo

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"go.pilab.hu/connections/api"
	"go.pilab.hu/connections/cache"
	"go.pilab.hu/connections/connect"
	"go.pilab.hu/connections/domain"
	"go.pilab.hu/connections/dto"
	"go.pilab.hu/connections/signin"
)

// StateCookieName carries the state of an authorization round trip to its callback.
const StateCookieName = "connreg_oauth_state"

const stateCookieMaxAge = 10 * 60

// ConnectionsAPI exposes the connection registry and provider sign-in over HTTP.
type ConnectionsAPI struct {
	users   domain.UsersConnectionRepository
	locator *connect.Locator
	signin  *signin.Service
	now     func() time.Time
}

// NewConnectionsAPI returns the API over the registry, the provider locator and the sign-in
// service.
func NewConnectionsAPI(users domain.UsersConnectionRepository, locator *connect.Locator, svc *signin.Service) *ConnectionsAPI {
	return &ConnectionsAPI{
		users:   users,
		locator: locator,
		signin:  svc,
		now:     time.Now,
	}
}

// RegisterRoutes registers the connection routes.
func (ca *ConnectionsAPI) RegisterRoutes(e *echo.Echo) {
	users := e.Group("/users/:userID")
	users.GET("/connections", ca.ListConnectionsHandler)
	users.GET("/connections/:providerID", ca.ProviderConnectionsHandler)
	users.GET("/connections/:providerID/primary", ca.PrimaryConnectionHandler)
	users.DELETE("/connections/:providerID", ca.RemoveConnectionsHandler)
	users.DELETE("/connections/:providerID/:providerUserID", ca.RemoveConnectionHandler)
	users.GET("/connect/:providerID", ca.ConnectHandler)
	users.GET("/connect/:providerID/callback", ca.ConnectCallbackHandler)

	e.GET("/signin/:providerID", ca.SignInHandler)
	e.GET("/signin/:providerID/callback", ca.SignInCallbackHandler)
	e.POST("/signin/complete", ca.CompleteSignUpHandler)
}

func (ca *ConnectionsAPI) repository(c echo.Context) (*connect.Repository, error) {
	repo, err := ca.users.ConnectionRepository(c.Request().Context(), c.Param("userID"))
	if err != nil {
		return nil, err
	}
	return connect.NewRepository(repo, ca.locator), nil
}

// ListConnectionsHandler lists the user's connections to every registered provider, with an
// empty list for providers the user is not connected to.
func (ca *ConnectionsAPI) ListConnectionsHandler(c echo.Context) error {
	repo, err := ca.repository(c)
	if err != nil {
		return ca.fail(c, err)
	}

	all, err := repo.FindAllConnections(c.Request().Context())
	if err != nil {
		return ca.fail(c, err)
	}

	now := ca.now()
	resp := dto.UserConnectionsResponse{
		UserID:      c.Param("userID"),
		Connections: make(map[string][]dto.ConnectionResponse, len(all)),
	}
	for providerID, conns := range all {
		resp.Connections[providerID] = connectionViews(conns, now)
	}
	return c.JSON(http.StatusOK, resp)
}

// ProviderConnectionsHandler lists the user's connections to one provider in rank order.
func (ca *ConnectionsAPI) ProviderConnectionsHandler(c echo.Context) error {
	repo, err := ca.repository(c)
	if err != nil {
		return ca.fail(c, err)
	}

	conns, err := repo.FindConnections(c.Request().Context(), c.Param("providerID"))
	if err != nil {
		return ca.fail(c, err)
	}
	return c.JSON(http.StatusOK, connectionViews(conns, ca.now()))
}

func (ca *ConnectionsAPI) PrimaryConnectionHandler(c echo.Context) error {
	repo, err := ca.repository(c)
	if err != nil {
		return ca.fail(c, err)
	}

	conn, err := repo.GetPrimaryConnection(c.Request().Context(), c.Param("providerID"))
	if err != nil {
		return ca.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto.ToConnectionResponse(conn.Record(), ca.now()))
}

func (ca *ConnectionsAPI) RemoveConnectionHandler(c echo.Context) error {
	repo, err := ca.repository(c)
	if err != nil {
		return ca.fail(c, err)
	}

	key := domain.NewConnectionKey(c.Param("providerID"), c.Param("providerUserID"))
	if err := repo.RemoveConnection(c.Request().Context(), key); err != nil {
		return ca.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (ca *ConnectionsAPI) RemoveConnectionsHandler(c echo.Context) error {
	repo, err := ca.repository(c)
	if err != nil {
		return ca.fail(c, err)
	}

	if err := repo.RemoveConnections(c.Request().Context(), c.Param("providerID")); err != nil {
		return ca.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SignInHandler redirects to the provider to start a sign-in.
func (ca *ConnectionsAPI) SignInHandler(c echo.Context) error {
	return ca.redirectToProvider(c)
}

// SignInCallbackHandler completes the provider authorization and resolves the connection to
// local users. An unmatched connection answers with an attempt token for CompleteSignUpHandler.
func (ca *ConnectionsAPI) SignInCallbackHandler(c echo.Context) error {
	record, err := ca.completeAuthorization(c)
	if err != nil {
		return ca.fail(c, err)
	}

	res, err := ca.signin.Resolve(c.Request().Context(), record)
	if err != nil {
		return ca.fail(c, err)
	}

	view := dto.ToConnectionResponse(record, ca.now())
	resp := dto.SignInResponse{
		Outcome:    string(res.Outcome),
		UserIDs:    res.UserIDs,
		Connection: &view,
	}
	if res.AttemptToken != "" {
		resp.AttemptToken = res.AttemptToken
		resp.AttemptExpiresAt = &res.AttemptExpiresAt
	}
	return c.JSON(http.StatusOK, resp)
}

// CompleteSignUpHandler links the connection of a pending sign-in attempt to a new user.
func (ca *ConnectionsAPI) CompleteSignUpHandler(c echo.Context) error {
	var req dto.CompleteSignUpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, api.NewInvalidRequest("malformed request body"))
	}
	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, api.NewInvalidRequest("token is required"))
	}

	record, rank, err := ca.signin.CompleteSignUp(c.Request().Context(), req.Token, req.UserID)
	if err != nil {
		return ca.fail(c, err)
	}

	return c.JSON(http.StatusCreated, dto.LinkResponse{
		UserID:     req.UserID,
		Rank:       rank,
		Connection: dto.ToConnectionResponse(record, ca.now()),
	})
}

// ConnectHandler redirects a signed-in user to the provider to link another account.
func (ca *ConnectionsAPI) ConnectHandler(c echo.Context) error {
	if err := domain.RequireID("userID", c.Param("userID")); err != nil {
		return ca.fail(c, err)
	}
	return ca.redirectToProvider(c)
}

func (ca *ConnectionsAPI) ConnectCallbackHandler(c echo.Context) error {
	record, err := ca.completeAuthorization(c)
	if err != nil {
		return ca.fail(c, err)
	}

	userID := c.Param("userID")
	rank, err := ca.signin.Link(c.Request().Context(), userID, record)
	if err != nil {
		return ca.fail(c, err)
	}

	return c.JSON(http.StatusCreated, dto.LinkResponse{
		UserID:     userID,
		Rank:       rank,
		Connection: dto.ToConnectionResponse(record, ca.now()),
	})
}

func (ca *ConnectionsAPI) redirectToProvider(c echo.Context) error {
	authorizer, err := ca.locator.Authorizer(c.Param("providerID"))
	if err != nil {
		return ca.fail(c, err)
	}

	state := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   stateCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.Redirect(http.StatusFound, authorizer.AuthCodeURL(state))
}

// completeAuthorization checks the state cookie and exchanges the authorization code.
func (ca *ConnectionsAPI) completeAuthorization(c echo.Context) (*domain.ConnectionRecord, error) {
	authorizer, err := ca.locator.Authorizer(c.Param("providerID"))
	if err != nil {
		return nil, err
	}

	if providerErr := c.QueryParam("error"); providerErr != "" {
		return nil, &api.ErrorResponse{Code: api.ProviderError, Description: providerErr}
	}

	cookie, err := c.Cookie(StateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != c.QueryParam("state") {
		return nil, api.NewInvalidState()
	}
	c.SetCookie(&http.Cookie{Name: StateCookieName, Path: "/", MaxAge: -1})

	return authorizer.CompleteAuthorization(c.Request().Context(), c.QueryParam("code"))
}

func connectionViews(conns []*connect.Connection, now time.Time) []dto.ConnectionResponse {
	out := make([]dto.ConnectionResponse, 0, len(conns))
	for _, conn := range conns {
		out = append(out, dto.ToConnectionResponse(conn.Record(), now))
	}
	return out
}

// fail maps err to a status code and an ErrorResponse.
func (ca *ConnectionsAPI) fail(c echo.Context, err error) error {
	var apiErr *api.ErrorResponse
	var retrieveErr *oauth2.RetrieveError
	switch {
	case errors.As(err, &apiErr):
		status := http.StatusBadRequest
		if apiErr.Code == api.ProviderError {
			status = http.StatusBadGateway
		}
		return c.JSON(status, apiErr)
	case errors.Is(err, domain.ErrInvalidArgument):
		return c.JSON(http.StatusBadRequest, api.NewInvalidRequest(err.Error()))
	case errors.Is(err, connect.ErrUnknownProvider):
		return c.JSON(http.StatusNotFound, &api.ErrorResponse{Code: api.UnknownProvider, Description: err.Error()})
	case errors.Is(err, domain.ErrNotConnected),
		errors.Is(err, domain.ErrNoSuchConnection),
		errors.Is(err, cache.ErrAttemptNotFound):
		return c.JSON(http.StatusNotFound, api.NewNotFound(err.Error()))
	case errors.Is(err, domain.ErrDuplicateConnection),
		errors.Is(err, signin.ErrAccountAlreadyLinked):
		return c.JSON(http.StatusConflict, &api.ErrorResponse{Code: api.Conflict, Description: err.Error()})
	case errors.Is(err, connect.ErrFetchProfileFailed), errors.As(err, &retrieveErr):
		return c.JSON(http.StatusBadGateway, &api.ErrorResponse{Code: api.ProviderError, Description: err.Error()})
	}

	log.Ctx(c.Request().Context()).Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, api.NewServerError("internal error"))
}
