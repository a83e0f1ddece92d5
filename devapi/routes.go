package devapi

import "net/http"

// Route path constants
const (
	RouteAuthRegister = "/api/auth/register"
	RouteAuthLogin    = "/api/auth/login"
	RouteAuthRefresh  = "/api/auth/refresh"
	RouteAuthLogout   = "/api/auth/logout"

	RouteUsers  = "/api/users"
	RouteUser   = "/api/users/{id}"
	RouteUserMe = "/api/users/me"

	RouteTasks         = "/api/tasks"
	RouteTask          = "/api/tasks/{id}"
	RouteTaskRespond   = "/api/tasks/{id}/respond"
	RouteTasksAssigned = "/api/tasks/assigned"
	RouteTasksAssign   = "/api/tasks/assign"
	RouteAdminTasks    = "/api/tasks/admin/all"
	RouteAdminTask     = "/api/tasks/admin/{id}"
)

func (s *Server) initRoutes() {
	// Auth
	s.RegisterRouteHandler("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// Own profile
	s.RegisterRouteHandler("GET "+RouteUserMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PUT "+RouteUserMe, ChainMiddleware(s.UpdateMeHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+RouteUserMe, ChainMiddleware(s.DeleteMeHandler(), s.APIMiddleware(s.RequireAuth())...))

	// User management
	s.RegisterRouteHandler("GET "+RouteUsers, ChainMiddleware(s.ListUsersHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireAdmin())...))
	s.RegisterRouteHandler("POST "+RouteUsers, ChainMiddleware(s.CreateUserHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireAdmin())...))
	s.RegisterRouteHandler("PUT "+RouteUser, ChainMiddleware(s.UpdateUserHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireAdmin())...))
	s.RegisterRouteHandler("DELETE "+RouteUser, ChainMiddleware(s.DeleteUserHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireAdmin())...))

	// Own tasks
	s.RegisterRouteHandler("GET "+RouteTasks, ChainMiddleware(s.ListTasksHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteTasks, ChainMiddleware(s.CreateTaskHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PUT "+RouteTask, ChainMiddleware(s.UpdateTaskHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+RouteTask, ChainMiddleware(s.DeleteTaskHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteTasksAssigned, ChainMiddleware(s.AssignedTasksHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PATCH "+RouteTaskRespond, ChainMiddleware(s.RespondTaskHandler(), s.APIMiddleware(s.RequireAuth())...))

	// Task administration
	s.RegisterRouteHandler("GET "+RouteAdminTasks, ChainMiddleware(s.AdminListTasksHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireAdmin())...))
	s.RegisterRouteHandler("PUT "+RouteAdminTask, ChainMiddleware(s.AdminUpdateTaskHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireAdmin())...))
	s.RegisterRouteHandler("DELETE "+RouteAdminTask, ChainMiddleware(s.AdminDeleteTaskHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireAdmin())...))
	s.RegisterRouteHandler("POST "+RouteTasksAssign, ChainMiddleware(s.AssignTaskHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireAdmin())...))

	// CORS preflight for every API path
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(func(http.ResponseWriter, *http.Request) {}, s.APIMiddleware()...))
}
