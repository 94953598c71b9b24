package mcp

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

func TestClientLookupWrapsUnavailable(t *testing.T) {
	sm := NewServerManager()

	_, err := sm.Client("calculator")
	if err == nil {
		t.Fatal("expected an error for an unknown server")
	}
	if !errors.Is(err, ErrServerUnavailable) {
		t.Errorf("lookup failure must wrap ErrServerUnavailable, got %v", err)
	}
	if !IsUnavailable(fmt.Errorf("tool call failed: %w", err)) {
		t.Errorf("unavailability must survive further wrapping")
	}
}

func TestIsUnavailable(t *testing.T) {
	if IsUnavailable(nil) {
		t.Error("nil is not unavailable")
	}
	if IsUnavailable(errors.New("some tool error")) {
		t.Error("unrelated errors are not unavailable")
	}
	if !IsUnavailable(ErrServerUnavailable) {
		t.Error("the sentinel itself must match")
	}
}

func TestServerNamesKeepRegistrationOrder(t *testing.T) {
	sm := NewServerManager()
	seedServer(sm, "calculator", mcptypes.Tool{Name: "add"})
	seedServer(sm, "weather", mcptypes.Tool{Name: "forecast"})
	seedServer(sm, "files", mcptypes.Tool{Name: "read"})

	want := []string{"calculator", "weather", "files"}
	if got := sm.ServerNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	// The returned slice is a copy.
	names := sm.ServerNames()
	names[0] = "mutated"
	if sm.ServerNames()[0] != "calculator" {
		t.Error("ServerNames must return a copy")
	}
}

func TestStopServerRemovesFromDiscovery(t *testing.T) {
	sm := NewServerManager()
	seedServer(sm, "calculator", mcptypes.Tool{Name: "add"})
	seedServer(sm, "weather", mcptypes.Tool{Name: "forecast"})

	if err := sm.StopServer(context.Background(), "calculator"); err != nil {
		t.Fatalf("StopServer: %v", err)
	}
	if got := sm.ServerNames(); !reflect.DeepEqual(got, []string{"weather"}) {
		t.Errorf("stopped server must leave discovery order, got %v", got)
	}
	if _, err := sm.Tools("calculator"); !IsUnavailable(err) {
		t.Errorf("stopped server must be unavailable, got %v", err)
	}
}

func TestStopServerUnknown(t *testing.T) {
	sm := NewServerManager()
	if err := sm.StopServer(context.Background(), "ghost"); err == nil {
		t.Fatal("expected an error for an unknown server")
	}
}
