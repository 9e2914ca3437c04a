package translator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestW3CErrorMessage(t *testing.T) {
	err := errNoElement("abc123")
	if err.Error() != "no such element: element abc123 not found" {
		t.Errorf("unexpected Error() string: %q", err.Error())
	}
	if err.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", err.Status)
	}
}

func TestWriteW3CValueEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeW3CValue(rec, http.StatusOK, map[string]string{"foo": "bar"})

	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	value, ok := decoded["value"].(map[string]any)
	if !ok {
		t.Fatalf("expected a \"value\" object, got %v", decoded)
	}
	if value["foo"] != "bar" {
		t.Errorf("expected value.foo = bar, got %v", value["foo"])
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestWriteW3CErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeW3CError(rec, errNoSession())

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}

	var decoded struct {
		Value struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		} `json:"value"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.Value.Error != "invalid session id" {
		t.Errorf("expected error kind 'invalid session id', got %q", decoded.Value.Error)
	}
}

func TestWriteW3CErrorWrapsPlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeW3CError(rec, errPlain("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected a non-W3CError to map to status 500, got %d", rec.Code)
	}
}

type errPlain string

func (e errPlain) Error() string { return string(e) }
