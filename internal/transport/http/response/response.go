package response

// Resp 所有接口统一的信封 {status, message, ...}
type Resp struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func OK(msg string) Resp { return Resp{Status: StatusSuccess, Message: msg} }

func Fail(msg string) Resp { return Resp{Status: StatusFailure, Message: msg} }

func (r Resp) WithToken(tok string) Resp {
	r.Token = tok
	return r
}

func (r Resp) WithData(data any) Resp {
	r.Data = data
	return r
}
