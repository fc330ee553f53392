package response

// 信封里的 status：1 成功，0 失败
const (
	StatusFailure = 0
	StatusSuccess = 1
)

// 对外文案沿用原服务，客户端可能按字符串匹配
const (
	MsgWelcome        = "Welcome to home page"
	MsgUserCreated    = "New user successfully created."
	MsgUserExistsFmt  = "User already exists with the email: %s"
	MsgCreateFailed   = "Could not create new User."
	MsgCheckFailed    = "Could not check for existing use."
	MsgLoggedIn       = "You have successfully logged in."
	MsgUserNotExist   = "User does not exist with this email address."
	MsgWrongPassword  = "Password is not correct."
	MsgLookupFailed   = "Could not look for the given email in the db."
	MsgTokenValid     = "Authentification Token is valid."
	MsgTokenInvalid   = "Invalid Authentification Token."
	MsgTokenRequired  = "Please provide an authentification Token."
	MsgBadRequest     = "Invalid request."
	MsgBodyTooLarge   = "Request body too large."
	MsgInternal       = "Internal server error."
	MsgNotFound       = "Not Found"
	MsgServerBusy     = "Server busy."
	MsgRequestTimeout = "Request timed out."
)
