package storage

import "testing"

func TestObjectKey(t *testing.T) {
	if got := ObjectKey("1234567890123456789"); got != "attachments/1234567890123456789" {
		t.Errorf("ObjectKey = %q", got)
	}
}
