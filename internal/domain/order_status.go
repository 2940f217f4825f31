package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// statusLabels is the only place where the Turkish tracking labels live.
// The first label of each entry is the one shown on the timeline, the rest
// are accepted aliases seen in older records.
var statusLabels = []struct {
	status OrderStatus
	labels []string
}{
	{OrderStatusPending, []string{"Beklemede", "Sipariş Alındı"}},
	{OrderStatusProcessing, []string{"Hazırlanıyor", "İşleme Alındı"}},
	{OrderStatusShipped, []string{"Kargoya Verildi", "Kargoda"}},
	{OrderStatusDelivered, []string{"Teslim Edildi"}},
	{OrderStatusCancelled, []string{"İptal Edildi", "İptal"}},
}

// foldEqual compares case-insensitively under both Turkish rules (for the
// labels, where "İ" and "I" fold differently) and plain Unicode rules (for
// the English values, where "I" must fold to "i").
func foldEqual(a, b string) bool {
	tr := cases.Lower(language.Turkish)
	if tr.String(a) == tr.String(b) {
		return true
	}
	return strings.EqualFold(a, b)
}

// ParseOrderStatus accepts the canonical English value or any Turkish label,
// case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, error) {
	key := strings.TrimSpace(s)
	for _, entry := range statusLabels {
		if foldEqual(key, string(entry.status)) {
			return entry.status, nil
		}
		for _, l := range entry.labels {
			if foldEqual(key, l) {
				return entry.status, nil
			}
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Label returns the Turkish label used by the tracking view.
func (s OrderStatus) Label() string {
	for _, entry := range statusLabels {
		if entry.status == s {
			return entry.labels[0]
		}
	}
	return string(s)
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

// UnmarshalJSON normalizes whichever vocabulary the backend sent.
// Unknown values are kept verbatim so a listing never fails on one bad row.
func (s *OrderStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == "" {
		*s = ""
		return nil
	}
	parsed, err := ParseOrderStatus(raw)
	if err != nil {
		*s = OrderStatus(raw)
		return nil
	}
	*s = parsed
	return nil
}

// TimelineStep is one entry of the order tracking timeline.
type TimelineStep struct {
	Status OrderStatus `json:"status"`
	Label  string      `json:"label"`
	Done   bool        `json:"done"`
	Active bool        `json:"active"`
}

var timelineOrder = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// Timeline renders the progress of s. A cancelled order shows the first
// step followed by the cancellation.
func Timeline(s OrderStatus) []TimelineStep {
	if s == OrderStatusCancelled {
		return []TimelineStep{
			{Status: OrderStatusPending, Label: OrderStatusPending.Label(), Done: true},
			{Status: OrderStatusCancelled, Label: OrderStatusCancelled.Label(), Done: true, Active: true},
		}
	}
	current := 0
	for i, st := range timelineOrder {
		if st == s {
			current = i
		}
	}
	steps := make([]TimelineStep, len(timelineOrder))
	for i, st := range timelineOrder {
		steps[i] = TimelineStep{
			Status: st,
			Label:  st.Label(),
			Done:   i <= current,
			Active: i == current,
		}
	}
	return steps
}
