package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/and161185/linstor-dashboard/internal/server/testutils"
	"github.com/and161185/linstor-dashboard/model"
)

func ExampleServer_DashboardHandler() {
	srv, _ := testutils.NewTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	w := httptest.NewRecorder()
	srv.DashboardHandler(w, req)

	var view model.DashboardView
	_ = json.Unmarshal(w.Body.Bytes(), &view)

	fmt.Println(w.Code, view.State)
	// Output: 200 awaiting_data
}

func ExampleServer_PingHandler() {
	srv, _ := testutils.NewTestServer()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	srv.PingHandler(w, req)

	fmt.Println(w.Code)
	// Output: 200
}
