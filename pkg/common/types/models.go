package types

import "github.com/turtacn/eventflow/pkg/common/errors"

// APIResponse 通用API响应结构体
// APIResponse generic API response structure.
type APIResponse struct {
	Success bool         `json:"success"`         // 操作是否成功 Indicates if the operation was successful
	Code    string       `json:"code"`            // 业务状态码 Business status code (can be "OK" or an error code string)
	Message string       `json:"message"`         // 提示信息 Message
	Data    interface{}  `json:"data"`            // 响应数据 Response data
	Error   *ErrorDetail `json:"error,omitempty"` // 错误详情 (仅在 Success 为 false 时出现) Error details (only when Success is false)
}

// ErrorDetail API错误响应中的错误详情
// ErrorDetail provides detailed error information in API responses.
type ErrorDetail struct {
	Code    errors.ErrorCode `json:"code"`              // 具体的错误码 Specific error code
	Message string           `json:"message"`           // 错误信息 Error message
	Details interface{}      `json:"details,omitempty"` // 更详细的错误信息 More detailed error information
}

// NewSuccessAPIResponse 创建一个成功的API响应
// NewSuccessAPIResponse creates a successful API response.
func NewSuccessAPIResponse(data interface{}) *APIResponse {
	return &APIResponse{
		Success: true,
		Code:    "OK",
		Message: "Operation successful",
		Data:    data,
	}
}

// NewErrorAPIResponse 创建一个失败的API响应
// NewErrorAPIResponse creates a failed API response.
func NewErrorAPIResponse(appErr *errors.AppError, details ...interface{}) *APIResponse {
	errDetail := &ErrorDetail{
		Code:    appErr.Code,
		Message: appErr.Message,
	}
	if len(details) > 0 {
		errDetail.Details = details[0]
	}

	return &APIResponse{
		Success: false,
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Data:    nil,
		Error:   errDetail,
	}
}
