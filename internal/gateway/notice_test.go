package gateway

import "testing"

func TestParsePaystackNotice(t *testing.T) {
	body := []byte(`{
		"event": "charge.success",
		"data": {
			"id": 4099260516,
			"status": "success",
			"reference": "FYW-1756720000000-a1b2c3d4",
			"amount": 6000000,
			"paid_at": "2026-02-10T12:30:45.000Z"
		}
	}`)

	n, err := ParsePaystackNotice(body)
	if err != nil {
		t.Fatalf("ParsePaystackNotice() error = %v", err)
	}
	if n.EventID != "4099260516-charge.success" {
		t.Errorf("EventID = %q, want %q", n.EventID, "4099260516-charge.success")
	}
	if n.Reference != "FYW-1756720000000-a1b2c3d4" {
		t.Errorf("Reference = %q", n.Reference)
	}
	if !n.Success {
		t.Error("Success = false, want true")
	}
	if n.AmountKobo != 6000000 {
		t.Errorf("AmountKobo = %d, want 6000000", n.AmountKobo)
	}
	if n.PaidAt.Year() != 2026 {
		t.Errorf("PaidAt = %v, want year 2026", n.PaidAt)
	}
}

func TestParsePaystackNoticeStableEventID(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"id":77,"reference":"FYW-1-aa","amount":100}}`)

	first, err := ParsePaystackNotice(body)
	if err != nil {
		t.Fatalf("ParsePaystackNotice() error = %v", err)
	}
	second, err := ParsePaystackNotice(body)
	if err != nil {
		t.Fatalf("ParsePaystackNotice() error = %v", err)
	}
	if first.EventID != second.EventID {
		t.Errorf("redelivered event produced different IDs: %q vs %q", first.EventID, second.EventID)
	}
}

func TestParsePaystackNoticeNonSuccessEvent(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFailed bool
	}{
		{"charge.failed is terminal", `{"event":"charge.failed","data":{"id":5,"reference":"FYW-2-bb","amount":100}}`, true},
		{"dispute carries no outcome", `{"event":"charge.dispute.create","data":{"id":6,"reference":"FYW-2-bb","amount":100}}`, false},
		{"transfer carries no outcome", `{"event":"transfer.success","data":{"id":7,"reference":"FYW-2-bb","amount":100}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParsePaystackNotice([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParsePaystackNotice() error = %v", err)
			}
			if n.Success {
				t.Error("Success = true for non-success event")
			}
			if n.Failed != tt.wantFailed {
				t.Errorf("Failed = %v, want %v", n.Failed, tt.wantFailed)
			}
		})
	}
}

func TestParsePaystackNoticeMalformed(t *testing.T) {
	if _, err := ParsePaystackNotice([]byte(`{not json`)); err == nil {
		t.Error("expected error for malformed body")
	}
}

func TestParseFlutterwaveNotice(t *testing.T) {
	body := []byte(`{
		"event": "charge.completed",
		"data": {
			"id": 285959875,
			"tx_ref": "FYW-1756720000000-e5f6a7b8",
			"status": "successful",
			"amount": 60000,
			"created_at": "2026-02-10T12:30:45.000Z"
		}
	}`)

	n, err := ParseFlutterwaveNotice(body)
	if err != nil {
		t.Fatalf("ParseFlutterwaveNotice() error = %v", err)
	}
	if n.EventID != "285959875-charge.completed" {
		t.Errorf("EventID = %q", n.EventID)
	}
	if n.Reference != "FYW-1756720000000-e5f6a7b8" {
		t.Errorf("Reference = %q", n.Reference)
	}
	if !n.Success {
		t.Error("Success = false, want true")
	}
	if n.AmountKobo != 6000000 {
		t.Errorf("AmountKobo = %d, want 6000000 (major units times 100)", n.AmountKobo)
	}
}

func TestParseFlutterwaveNoticeNonSuccessful(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFailed bool
	}{
		{"failed status", `{"event":"charge.completed","data":{"id":1,"tx_ref":"FYW-3-cc","status":"failed","amount":100}}`, true},
		{"other event", `{"event":"transfer.completed","data":{"id":2,"tx_ref":"FYW-4-dd","status":"successful","amount":100}}`, false},
		{"pending status", `{"event":"charge.completed","data":{"id":3,"tx_ref":"FYW-5-ee","status":"pending","amount":100}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseFlutterwaveNotice([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseFlutterwaveNotice() error = %v", err)
			}
			if n.Success {
				t.Error("Success = true, want false")
			}
			if n.Failed != tt.wantFailed {
				t.Errorf("Failed = %v, want %v", n.Failed, tt.wantFailed)
			}
		})
	}
}

func TestNormalizePaystackStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"success", StatusSuccess},
		{"failed", StatusFailed},
		{"abandoned", StatusFailed},
		{"reversed", StatusFailed},
		{"ongoing", StatusPending},
		{"pending", StatusPending},
		{"queued", StatusPending},
		{"", StatusPending},
	}

	for _, tt := range tests {
		if got := normalizePaystackStatus(tt.in); got != tt.want {
			t.Errorf("normalizePaystackStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMajorToKobo(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{60000, 6000000},
		{300.5, 30050},
		{0.1, 10},
		{0, 0},
	}

	for _, tt := range tests {
		if got := majorToKobo(tt.in); got != tt.want {
			t.Errorf("majorToKobo(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
