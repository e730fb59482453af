package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestExitCodeFor(t *testing.T) {
	cases := []struct {
		code Code
		want ExitCode
	}{
		{CodeCfgNotFound, ExitConfig},
		{CodeCfgInvalid, ExitConfig},
		{CodeSecretNotFound, ExitConfig},
		{CodeStoreUnsupported, ExitConfig},
		{CodeSSHDialFailed, ExitConnect},
		{CodeSSHAuthFailed, ExitConnect},
		{CodeSSHHostKeyMismatch, ExitConnect},
		{CodeStoreConnectFailed, ExitConnect},
		{CodeAccountNotFound, ExitNotFound},
		{CodeStoreReadFailed, ExitStore},
		{CodeStoreWriteFailed, ExitStore},
		{CodeStoreCorrupt, ExitStore},
		{CodeStoreNotLoaded, ExitInternal},
		{CodeInternal, ExitInternal},
		{Code("UNKNOWN_CODE"), ExitInternal}, // unknown code
	}
	for _, tc := range cases {
		if got := ExitCodeFor(tc.code); got != tc.want {
			t.Errorf("ExitCodeFor(%s)=%d want %d", tc.code, got, tc.want)
		}
	}
}

func TestXError_Error(t *testing.T) {
	// Without cause
	xe := New(CodeCfgInvalid, "test message", nil)
	expected := "XACCT_CFG_INVALID: test message"
	if xe.Error() != expected {
		t.Errorf("Error()=%q, want %q", xe.Error(), expected)
	}

	// With cause
	cause := stderrors.New("disk full")
	xe = Wrap(CodeStoreWriteFailed, "persist failed", nil, cause)
	expected = "XACCT_STORE_WRITE_FAILED: persist failed: disk full"
	if xe.Error() != expected {
		t.Errorf("Error()=%q, want %q", xe.Error(), expected)
	}

	// Nil error
	var nilErr *XError
	if nilErr.Error() != "" {
		t.Errorf("nil XError.Error() should return empty string")
	}
}

func TestXError_Unwrap(t *testing.T) {
	cause := stderrors.New("cause")
	xe := Wrap(CodeStoreReadFailed, "msg", nil, cause)
	if xe.Unwrap() != cause {
		t.Error("Unwrap should return cause")
	}
	if !stderrors.Is(xe, cause) {
		t.Error("errors.Is should see through XError")
	}

	xe2 := New(CodeCfgInvalid, "msg", nil)
	if xe2.Unwrap() != nil {
		t.Error("Unwrap should return nil when no cause")
	}
}

func TestXError_Details(t *testing.T) {
	details := map[string]any{"id": "abc", "count": 42}
	xe := New(CodeAccountNotFound, "msg", details)
	if xe.Details["id"] != "abc" {
		t.Error("Details should contain id")
	}
	if xe.Details["count"] != 42 {
		t.Error("Details should contain count")
	}
}

func TestAs(t *testing.T) {
	xe := New(CodeCfgInvalid, "test", nil)
	got, ok := As(xe)
	if !ok || got != xe {
		t.Error("As should return XError")
	}

	// Wrapped error
	wrapped := stderrors.Join(stderrors.New("prefix"), xe)
	got, ok = As(wrapped)
	if !ok || got != xe {
		t.Error("As should unwrap to find XError")
	}

	// Non-XError
	_, ok = As(stderrors.New("plain error"))
	if ok {
		t.Error("As should return false for non-XError")
	}
}

func TestAsOrWrap(t *testing.T) {
	xe := New(CodeStoreCorrupt, "bad json", nil)
	if got := AsOrWrap(xe); got != xe {
		t.Error("AsOrWrap should return the XError unchanged")
	}

	plain := stderrors.New("boom")
	got := AsOrWrap(plain)
	if got.Code != CodeInternal {
		t.Errorf("AsOrWrap code=%s want %s", got.Code, CodeInternal)
	}
	if got.Message != "boom" {
		t.Errorf("AsOrWrap message=%q want %q", got.Message, "boom")
	}

	if got := AsOrWrap(nil); got == nil || got.Code != CodeInternal {
		t.Errorf("AsOrWrap(nil)=%v want %s", got, CodeInternal)
	}
}

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("open: %w", New(CodeStoreConnectFailed, "dial", nil))
	if !HasCode(wrapped, CodeStoreConnectFailed) {
		t.Error("HasCode should see XError through fmt wrapping")
	}
	if HasCode(wrapped, CodeStoreReadFailed) {
		t.Error("HasCode matched the wrong code")
	}
	if HasCode(stderrors.New("plain"), CodeInternal) || HasCode(nil, CodeInternal) {
		t.Error("HasCode should be false without an XError")
	}
}

func TestAllCodes(t *testing.T) {
	codes := AllCodes()
	if len(codes) != 14 {
		t.Errorf("AllCodes() should return 14 codes, got %d", len(codes))
	}

	// Check for duplicates
	seen := make(map[Code]bool)
	for _, c := range codes {
		if seen[c] {
			t.Errorf("Duplicate code: %s", c)
		}
		seen[c] = true
	}
}
