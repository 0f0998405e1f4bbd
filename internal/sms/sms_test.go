package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{AccountSID: "AC123"}, testLogger())
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
}

func TestSendPostsFormToProvider(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotBody string
	var gotUser, gotPass string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		_ = r.ParseForm()
		gotTo = r.FormValue("To")
		gotFrom = r.FormValue("From")
		gotBody = r.FormValue("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client, err := NewClient(Config{
		AccountSID: "AC123",
		AuthToken:  "token",
		From:       "+15550001111",
		BaseURL:    srv.URL,
	}, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if err := client.Send(context.Background(), "1234567890", "Reminder: Tech Talk"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotPath != "/2010-04-01/Accounts/AC123/Messages.json" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotUser != "AC123" || gotPass != "token" {
		t.Fatalf("unexpected basic auth: %s/%s", gotUser, gotPass)
	}
	if gotTo != "1234567890" || gotFrom != "+15550001111" {
		t.Fatalf("unexpected recipients: to=%s from=%s", gotTo, gotFrom)
	}
	if gotBody != "Reminder: Tech Talk" {
		t.Fatalf("unexpected body: %s", gotBody)
	}
}

func TestSendReturnsErrorOnProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"authentication failed"}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{
		AccountSID: "AC123",
		AuthToken:  "bad",
		From:       "+15550001111",
		BaseURL:    srv.URL,
	}, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	err = client.Send(context.Background(), "1234567890", "hello")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status code in error, got: %v", err)
	}
}
