package rest

const (
	// api
	RouteApiV1 = "/api/v1"

	// auth
	RouteAuth     = RouteApiV1 + "/auth"
	RouteRegister = RouteAuth + "/register"
	RouteLogin    = RouteAuth + "/login"
	RouteMe       = RouteAuth + "/me"

	// users
	RouteUsers        = RouteApiV1 + "/users"
	RouteUser         = RouteUsers + "/:user_id"
	RouteUserProfile  = RouteUsers + "/profile"
	RouteUserPassword = RouteUsers + "/password"

	// files
	RouteFiles        = RouteApiV1 + "/files"
	RouteFile         = RouteFiles + "/:file_id"
	RouteFileDownload = RouteFile + "/download"
	RouteFileKey      = RouteFile + "/key"
	RouteFileQR       = RouteFile + "/qr"

	// shares
	RouteShares         = RouteApiV1 + "/shares"
	RouteSharesSent     = RouteShares + "/sent"
	RouteSharesReceived = RouteShares + "/received"
	RouteShare          = RouteShares + "/:share_id"

	// ops
	RouteHealth  = RouteApiV1 + "/healthz"
	RouteMetrics = RouteApiV1 + "/metrics"
)
