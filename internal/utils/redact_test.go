package utils

import (
	"strings"
	"testing"
)

func TestRedactFields(t *testing.T) {
	fields := map[string]interface{}{
		"device_id":     "d1",
		"pass":          "secret-digest",
		"image_content": strings.Repeat("A", 4096),
		"user_info":     strings.Repeat("B", 2048),
		"code":          0,
	}

	out := RedactFields(fields)

	if out["device_id"] != "d1" {
		t.Errorf("plain field touched: %v", out["device_id"])
	}
	if out["code"] != 0 {
		t.Errorf("non-string field touched: %v", out["code"])
	}
	if out["pass"] == "secret-digest" {
		t.Error("pass not redacted")
	}
	if s, ok := out["image_content"].(string); !ok || strings.Contains(s, "AAAA") {
		t.Errorf("image_content not redacted: %v", out["image_content"])
	}
	// 超长字段只保留长度信息
	if s, ok := out["user_info"].(string); !ok || strings.Contains(s, "BBBB") {
		t.Errorf("oversized field not truncated: %v", out["user_info"])
	}

	// 原始map不受影响
	if fields["pass"] != "secret-digest" {
		t.Error("redaction mutated the input map")
	}
}

func TestRedactFields_Nil(t *testing.T) {
	if out := RedactFields(nil); out != nil {
		t.Errorf("expected nil, got %v", out)
	}
}

func TestRandomRequestID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := RandomRequestID(4)
		if len(id) != 4 {
			t.Fatalf("expected length 4, got %q", id)
		}
		for _, c := range id {
			if !strings.ContainsRune(requestIDCharset, c) {
				t.Fatalf("unexpected character %q in %q", c, id)
			}
		}
		seen[id] = struct{}{}
	}
	// 36^4个可能值，100次采样撞满属于异常
	if len(seen) < 50 {
		t.Errorf("suspiciously low id diversity: %d unique of 100", len(seen))
	}
}
