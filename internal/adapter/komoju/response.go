package komoju

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/yourorg/komoju-gateway/internal/adapter"
	"github.com/yourorg/komoju-gateway/internal/monitor"
)

const successMessage = "Success"

// decodeBody parses a JSON object body. Anything other than an object is
// rejected so callers can rely on a non-nil map.
func decodeBody(raw []byte) (map[string]any, error) {
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, errors.New("komoju: response body is not a JSON object")
	}
	return params, nil
}

// remoteError extracts {error: {code, message}} from a parsed body.
// code is empty when the body carries no usable error code.
func remoteError(params map[string]any) (code, message string) {
	switch e := params["error"].(type) {
	case map[string]any:
		code, _ = e["code"].(string)
		message, _ = e["message"].(string)
	case string:
		message = e
	}
	return code, message
}

// hasRemoteError reports whether the body carries an error object or message.
// A null or empty error field does not fail the operation.
func hasRemoteError(params map[string]any) bool {
	switch e := params["error"].(type) {
	case map[string]any:
		return e != nil
	case string:
		return e != ""
	}
	return false
}

// testFlag reports the remote mode when the body carries one, otherwise the
// configured test flag.
func (a *KomojuAdapter) testFlag(params map[string]any) bool {
	switch params["mode"] {
	case "test":
		return true
	case "live":
		return false
	}
	return a.test
}

func (a *KomojuAdapter) parseSuccess(raw []byte) adapter.Response {
	params, err := decodeBody(raw)
	if err != nil {
		return adapter.Response{
			Success:   false,
			Message:   "Invalid JSON response received from Komoju",
			ErrorCode: adapter.ErrorCodeProcessingError,
			Test:      a.test,
		}
	}

	if hasRemoteError(params) {
		code, message := remoteError(params)
		if code == "" {
			code = adapter.ErrorCodeProcessingError
		}
		if message == "" {
			message = code
		}
		return adapter.Response{
			Success:   false,
			Params:    params,
			Message:   message,
			ErrorCode: code,
			Test:      a.testFlag(params),
		}
	}

	a.checkContract(raw)

	id, _ := params["id"].(string)
	message := successMessage
	if m, ok := params["message"].(string); ok && m != "" {
		message = m
	}
	return adapter.Response{
		Success:       true,
		Authorization: id,
		Params:        params,
		Message:       message,
		Test:          a.testFlag(params),
	}
}

// parseFailure classifies a transport failure: a remote error code wins,
// then HTTP 504 maps to gateway_timeout, anything else is processing_error.
func (a *KomojuAdapter) parseFailure(err error) adapter.Response {
	var tErr *adapter.TransportError
	if !errors.As(err, &tErr) {
		return adapter.Response{
			Success:   false,
			Message:   fmt.Sprintf("Unable to reach Komoju: %v", err),
			ErrorCode: adapter.ErrorCodeProcessingError,
			Test:      a.test,
		}
	}

	var params map[string]any
	if len(tErr.Body) > 0 {
		params, _ = decodeBody(tErr.Body)
	}
	code, message := remoteError(params)

	resp := adapter.Response{
		Success:    false,
		Params:     params,
		Test:       a.testFlag(params),
		HTTPStatus: tErr.StatusCode,
	}
	switch {
	case code != "":
		resp.ErrorCode = code
		resp.Message = message
		if resp.Message == "" {
			resp.Message = code
		}
	case tErr.StatusCode == http.StatusGatewayTimeout:
		resp.ErrorCode = adapter.ErrorCodeGatewayTimeout
		resp.Message = fmt.Sprintf("Gateway timeout (HTTP %d)", tErr.StatusCode)
	default:
		resp.ErrorCode = adapter.ErrorCodeProcessingError
		resp.Message = message
		if resp.Message == "" {
			if tErr.StatusCode == 0 && tErr.Err != nil {
				resp.Message = fmt.Sprintf("Unable to reach Komoju: %v", tErr.Err)
			} else {
				resp.Message = fmt.Sprintf("Unable to read error message from Komoju (HTTP %d)", tErr.StatusCode)
			}
		}
	}
	return resp
}

func (a *KomojuAdapter) checkContract(raw []byte) {
	if a.contract == nil {
		return
	}
	valid, violations, err := a.contract.Validate(raw)
	if err != nil {
		a.log.Warn("Resource contract check failed", zap.Error(err))
		return
	}
	if !valid {
		a.log.Warn("Response does not match resource contract", zap.String("violations", monitor.FormatErrors(violations)))
	}
}
