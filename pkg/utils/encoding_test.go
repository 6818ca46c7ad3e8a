package utils

import (
	"testing"
)

type testInvalidationEvent struct {
	Keys      []string `json:"keys"`
	Pattern   string   `json:"pattern"`
	RequestID string   `json:"request_id"`
}

func TestMarshalUnmarshalEvent(t *testing.T) {
	event := &testInvalidationEvent{
		Keys:      []string{"hero:home", "pricing:plans"},
		Pattern:   "sections:*",
		RequestID: "req-123",
	}

	data, err := MarshalEvent(event)
	if err != nil {
		t.Fatalf("MarshalEvent() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("MarshalEvent() returned empty data")
	}

	var decoded testInvalidationEvent
	if err := UnmarshalEvent(data, &decoded); err != nil {
		t.Fatalf("UnmarshalEvent() error = %v", err)
	}

	if len(decoded.Keys) != len(event.Keys) {
		t.Errorf("Keys length = %d, want %d", len(decoded.Keys), len(event.Keys))
	}
	if decoded.Pattern != event.Pattern {
		t.Errorf("Pattern = %v, want %v", decoded.Pattern, event.Pattern)
	}
	if decoded.RequestID != event.RequestID {
		t.Errorf("RequestID = %v, want %v", decoded.RequestID, event.RequestID)
	}
}

func TestMarshalEvent_Nil(t *testing.T) {
	_, err := MarshalEvent(nil)
	if err == nil {
		t.Error("MarshalEvent(nil) should return error")
	}
}

func TestUnmarshalEvent_Nil(t *testing.T) {
	err := UnmarshalEvent([]byte("{}"), nil)
	if err == nil {
		t.Error("UnmarshalEvent() with nil pointer should return error")
	}
}

func TestUnmarshalEvent_Empty(t *testing.T) {
	var event testInvalidationEvent
	err := UnmarshalEvent([]byte{}, &event)
	if err == nil {
		t.Error("UnmarshalEvent(empty) should return error")
	}
}

func TestMarshalUnmarshalJSON(t *testing.T) {
	data := map[string]interface{}{
		"name":  "test",
		"count": 42,
		"tags":  []string{"tag1", "tag2"},
	}

	encoded, err := MarshalJSON(data)
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := UnmarshalJSON(encoded, &decoded); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}

	if decoded["name"] != data["name"] {
		t.Errorf("name = %v, want %v", decoded["name"], data["name"])
	}
	if decoded["count"].(float64) != float64(data["count"].(int)) {
		t.Errorf("count = %v, want %v", decoded["count"], data["count"])
	}
}

func TestUnmarshalJSON_Empty(t *testing.T) {
	var v interface{}
	if err := UnmarshalJSON([]byte{}, &v); err == nil {
		t.Error("UnmarshalJSON(empty) should return error")
	}
}

func TestCompactJSON(t *testing.T) {
	pretty := []byte(`{
  "name": "test",
  "count": 42
}`)

	compacted, err := CompactJSON(pretty)
	if err != nil {
		t.Fatalf("CompactJSON() error = %v", err)
	}

	expected := `{"name":"test","count":42}`
	if string(compacted) != expected {
		t.Errorf("CompactJSON() = %s, want %s", string(compacted), expected)
	}
}

func TestCompactJSON_Invalid(t *testing.T) {
	_, err := CompactJSON([]byte("invalid json"))
	if err == nil {
		t.Error("CompactJSON(invalid) should return error")
	}
}

func TestPrettyJSON(t *testing.T) {
	compact := []byte(`{"name":"test","count":42}`)

	pretty, err := PrettyJSON(compact)
	if err != nil {
		t.Fatalf("PrettyJSON() error = %v", err)
	}

	if len(pretty) <= len(compact) {
		t.Error("PrettyJSON() should produce larger output with formatting")
	}

	var v interface{}
	if err := UnmarshalJSON(pretty, &v); err != nil {
		t.Errorf("PrettyJSON() produced invalid JSON: %v", err)
	}
}

func TestPrettyJSON_Invalid(t *testing.T) {
	_, err := PrettyJSON([]byte("invalid json"))
	if err == nil {
		t.Error("PrettyJSON(invalid) should return error")
	}
}

func TestEstimateEncodedSize(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  int
	}{
		{"empty map", map[string]string{}, 2},
		{"small string", "hello", 7},
		{"number", 42, 2},
		{"array", []int{1, 2, 3}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size := EstimateEncodedSize(tt.value)
			if size < tt.want-2 || size > tt.want+10 {
				t.Errorf("EstimateEncodedSize() = %d, want ~%d", size, tt.want)
			}
		})
	}
}

func TestEstimateEncodedSize_Invalid(t *testing.T) {
	ch := make(chan int)
	size := EstimateEncodedSize(ch)
	if size != 0 {
		t.Errorf("EstimateEncodedSize(unmarshalable) = %d, want 0", size)
	}
}

func BenchmarkMarshalEvent(b *testing.B) {
	event := &testInvalidationEvent{
		Keys:      []string{"hero:home", "pricing:plans", "upsell:cart"},
		RequestID: "req-123",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MarshalEvent(event)
	}
}
