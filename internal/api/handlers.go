package api

import (
	"encoding/json"
	"net/http"
	"time"

	"facelink-core/internal/command"
	"facelink-core/internal/utils"

	"github.com/gorilla/mux"
)

// commandRequest 命令请求体。fields为操作特有字段，原样透传给设备
type commandRequest struct {
	Pass           string                 `json:"pass"`
	TimeoutSeconds int                    `json:"timeout_seconds,omitempty"`
	Fields         map[string]interface{} `json:"fields,omitempty"`
}

// statusResponse 统一响应体
type statusResponse struct {
	Status      string      `json:"status"`
	Description string      `json:"description,omitempty"`
	Response    interface{} `json:"response,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"devices": s.devices.Snapshot(),
	})
}

// handleCommand 同步调度一条设备命令并按结果映射HTTP状态：
// ok→200 device_error→400 device_offline→404 timeout→408 device_busy→503
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deviceID := vars["device_id"]
	requestType := vars["request_type"]

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{
			Status:      "error",
			Description: "invalid request body: " + err.Error(),
		})
		return
	}
	if req.Fields == nil {
		req.Fields = map[string]interface{}{}
	}

	timeout := time.Duration(req.TimeoutSeconds) * time.Second

	outcome, err := s.commands.Do(r.Context(), deviceID, req.Pass, requestType, req.Fields, timeout)
	if err != nil {
		// 调用方用法错误：未知命令或缺少必填字段
		writeJSON(w, http.StatusBadRequest, statusResponse{
			Status:      "error",
			Description: err.Error(),
		})
		return
	}

	writeOutcome(w, outcome)
}

func writeOutcome(w http.ResponseWriter, outcome command.Outcome) {
	switch outcome.Status {
	case command.StatusOk:
		writeJSON(w, http.StatusOK, statusResponse{
			Status:   "ok",
			Response: outcome.Reply,
		})
	case command.StatusDeviceError:
		writeJSON(w, http.StatusBadRequest, statusResponse{
			Status:      "error",
			Description: outcome.Description,
			Response:    outcome.Reply,
		})
	case command.StatusDeviceOffline:
		writeJSON(w, http.StatusNotFound, statusResponse{
			Status:      "error",
			Description: "device offline",
		})
	case command.StatusTimeout:
		writeJSON(w, http.StatusRequestTimeout, statusResponse{
			Status:      "error",
			Description: "device did not reply before deadline",
		})
	case command.StatusDeviceBusy:
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{
			Status:      "error",
			Description: "device busy",
		})
	case command.StatusCancelled:
		writeJSON(w, http.StatusRequestTimeout, statusResponse{
			Status:      "error",
			Description: "request cancelled",
		})
	default:
		writeJSON(w, http.StatusInternalServerError, statusResponse{
			Status:      "error",
			Description: "unexpected outcome",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		utils.Errorf("Failed to encode API response: %v", err)
	}
}
