package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"course-market/internal/apiserver/auth"
	"course-market/internal/shared/model"
	paymentsvc "course-market/internal/shared/payment"
	"course-market/internal/shared/storage"
)

func newTestEnv(t *testing.T) (*storage.MemStore, *paymentsvc.MockProvider, *http.ServeMux) {
	t.Helper()
	store := storage.NewMemStore()
	provider := paymentsvc.NewMockProvider()
	mux := http.NewServeMux()
	NewHandler(store, provider).RegisterRoutes(mux)

	ctx := context.Background()
	now := time.Now()
	err := store.CreateClass(ctx, &model.Class{
		ID: "class-1", Name: "Spanish 101", Price: 49.99, AvailableSeats: 10,
		Status: model.ClassStatusApproved, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed class: %v", err)
	}
	err = store.CreateSelection(ctx, &model.Selection{
		ID: "sel-1", StudentEmail: "alice@example.com", ClassID: "class-1",
		ClassName: "Spanish 101", Price: 49.99, SelectedAt: now,
	})
	if err != nil {
		t.Fatalf("seed selection: %v", err)
	}
	return store, provider, mux
}

func asUser(req *http.Request, email string) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{Email: email}))
}

// TestCreateIntent 测试支付意图创建
func TestCreateIntent(t *testing.T) {
	_, provider, mux := newTestEnv(t)

	post := func(body string) *httptest.ResponseRecorder {
		req := asUser(httptest.NewRequest("POST", "/api/v1/payments/intent", strings.NewReader(body)), "alice@example.com")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`{"class_id":"class-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("intent status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["client_secret"] == "" {
		t.Error("response missing client_secret")
	}
	// 金额以服务端价格为准：49.99 -> 4999 美分
	if len(provider.Created) != 1 || provider.Created[0] != 4999 {
		t.Errorf("provider amounts = %v, want [4999]", provider.Created)
	}

	if rec := post(`{"class_id":"class-missing"}`); rec.Code != http.StatusNotFound {
		t.Errorf("missing class status = %d, want 404", rec.Code)
	}
	if rec := post(`{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty body status = %d, want 400", rec.Code)
	}

	// 服务商故障 -> 502
	provider.FailWith = errors.New("stripe down")
	if rec := post(`{"class_id":"class-1"}`); rec.Code != http.StatusBadGateway {
		t.Errorf("provider failure status = %d, want 502", rec.Code)
	}
}

// TestCreatePayment 测试付款落账：写付款、删选课
func TestCreatePayment(t *testing.T) {
	store, _, mux := newTestEnv(t)

	post := func(email, body string) *httptest.ResponseRecorder {
		req := asUser(httptest.NewRequest("POST", "/api/v1/payments", strings.NewReader(body)), email)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	// 他人选课不能代付
	if rec := post("mallory@example.com", `{"selection_id":"sel-1","transaction_id":"tx-1"}`); rec.Code != http.StatusForbidden {
		t.Errorf("cross-user payment status = %d, want 403", rec.Code)
	}

	// 缺 transaction_id
	if rec := post("alice@example.com", `{"selection_id":"sel-1"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing transaction_id status = %d, want 400", rec.Code)
	}

	rec := post("alice@example.com", `{"selection_id":"sel-1","transaction_id":"tx-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("payment status = %d, body %s", rec.Code, rec.Body.String())
	}

	ctx := context.Background()

	// 选课已删除
	if sel, _ := store.GetSelection(ctx, "sel-1"); sel != nil {
		t.Error("selection must be deleted after payment")
	}

	// 恰好一条付款，金额 = 49.99 × 100
	payments, err := store.ListPaymentsByStudent(ctx, "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(payments))
	}
	p := payments[0]
	if p.Amount != 4999 || p.Currency != "usd" || p.TransactionID != "tx-1" || p.ClassID != "class-1" {
		t.Errorf("payment record wrong: %+v", p)
	}

	// 选课已不存在
	if rec := post("alice@example.com", `{"selection_id":"sel-1","transaction_id":"tx-2"}`); rec.Code != http.StatusNotFound {
		t.Errorf("paid selection status = %d, want 404", rec.Code)
	}
}

// TestListPayments 测试付款历史（仅本人）
func TestListPayments(t *testing.T) {
	store, _, mux := newTestEnv(t)
	err := store.CompletePayment(context.Background(), &model.Payment{
		ID: "pay-1", StudentEmail: "alice@example.com", Amount: 4999, Currency: "usd",
		ClassID: "class-1", Date: time.Now(),
	}, "sel-1")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		query      string
		caller     string
		wantStatus int
	}{
		{"本人历史", "?email=alice@example.com", "alice@example.com", http.StatusOK},
		{"越权历史", "?email=alice@example.com", "mallory@example.com", http.StatusForbidden},
		{"缺参数", "", "alice@example.com", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asUser(httptest.NewRequest("GET", "/api/v1/payments"+tt.query, nil), tt.caller)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusForbidden && strings.Contains(rec.Body.String(), "pay-1") {
				t.Errorf("403 response leaked payment data")
			}
		})
	}
}
