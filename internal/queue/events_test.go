package queue

import "testing"

func TestParseImageEvent(t *testing.T) {
	values, err := NewImageDiscardedEvent("posts/abc.png", 9).ToMap()
	if err != nil {
		t.Fatalf("ToMap: %v", err)
	}
	if values["type"] != EventImageDiscarded {
		t.Errorf("type field = %v, want %s", values["type"], EventImageDiscarded)
	}

	event, err := ParseImageEvent(values)
	if err != nil {
		t.Fatalf("ParseImageEvent: %v", err)
	}
	if event.Key != "posts/abc.png" || event.PostID != 9 {
		t.Errorf("event = %+v", event)
	}

	bad := []map[string]interface{}{
		{},
		{"data": 42},
		{"data": "{not json"},
		{"data": `{"type":"image_discarded"}`},
	}
	for _, v := range bad {
		if _, err := ParseImageEvent(v); err == nil {
			t.Errorf("ParseImageEvent(%v) succeeded, want error", v)
		}
	}
}
