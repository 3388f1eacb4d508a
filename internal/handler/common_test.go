package handler

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
)

func newTestContext(t *testing.T) echo.Context {
    t.Helper()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestGetUserIDAcceptsCommonTypes(t *testing.T) {
    cases := []struct {
        name string
        val  interface{}
        want uint64
    }{
        {"uint64", uint64(7), 7},
        {"int", int(8), 8},
        {"int64", int64(9), 9},
        {"float64", float64(10), 10},
        {"string", "11", 11},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            c := newTestContext(t)
            c.Set("user_id", tc.val)
            got, err := getUserID(c)
            if err != nil {
                t.Fatalf("getUserID: %v", err)
            }
            if got != tc.want {
                t.Fatalf("got %d, want %d", got, tc.want)
            }
        })
    }
}

func TestGetUserIDRejectsMissingOrBad(t *testing.T) {
    c := newTestContext(t)
    if _, err := getUserID(c); err == nil {
        t.Fatal("expected error for missing user_id")
    }
    c.Set("user_id", "not-a-number")
    if _, err := getUserID(c); err == nil {
        t.Fatal("expected error for non-numeric string")
    }
}

func TestPathID(t *testing.T) {
    c := newTestContext(t)
    c.SetParamNames("id")
    c.SetParamValues("123")
    id, err := pathID(c)
    if err != nil || id != 123 {
        t.Fatalf("pathID = %d, %v; want 123, nil", id, err)
    }

    for _, bad := range []string{"", "0", "-1", "abc"} {
        c := newTestContext(t)
        c.SetParamNames("id")
        c.SetParamValues(bad)
        if _, err := pathID(c); err == nil {
            t.Fatalf("pathID accepted %q", bad)
        }
    }
}
