package utils

import (
	"fmt"

	"facelink-core/internal/constants"
)

// 永远不允许明文出现在日志中的字段
var redactedFields = map[string]struct{}{
	constants.FieldPass:         {},
	constants.FieldImageContent: {},
}

// RedactFields 返回适合打日志的字段副本：敏感字段与超长字段被掩盖
func RedactFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}

	out := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		if _, sensitive := redactedFields[key]; sensitive {
			out[key] = redactValue(value)
			continue
		}
		if s, ok := value.(string); ok && len(s) > constants.RedactLimit {
			out[key] = fmt.Sprintf("<%d bytes>", len(s))
			continue
		}
		out[key] = value
	}
	return out
}

func redactValue(value interface{}) string {
	if s, ok := value.(string); ok {
		return fmt.Sprintf("<redacted %d bytes>", len(s))
	}
	return "<redacted>"
}
