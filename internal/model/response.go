package model

// Response 通用API响应结构，用于错误和管理接口
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SuccessResponse 创建成功响应
func SuccessResponse(data interface{}) Response {
	return Response{
		Code:    200,
		Message: "操作成功",
		Data:    data,
	}
}

// ErrorResponse 创建错误响应
func ErrorResponse(code int, message string) Response {
	if code == 0 {
		code = 500
	}
	return Response{
		Code:    code,
		Message: message,
	}
}
