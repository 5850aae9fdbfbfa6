package mercadopago

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
)

// Notification topics this handler understands.
const (
	TopicPayment       = "payment"
	TopicMerchantOrder = "merchant_order"
)

// Notification is a normalized provider callback: which resource changed.
type Notification struct {
	Topic string
	ID    int64
}

type notificationBody struct {
	Type     string `json:"type"`
	Topic    string `json:"topic"`
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Data     struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ParseNotification extracts the topic and resource id from the query string
// and/or JSON body. MercadoPago uses several shapes depending on the
// notification channel, so every known field is probed.
func ParseNotification(query url.Values, body []byte) (*Notification, error) {
	var parsed notificationBody
	if len(body) > 0 {
		// Body failures are not fatal; IPN notifications put everything in
		// the query string.
		_ = json.Unmarshal(body, &parsed)
	}

	topic := firstNonEmpty(
		query.Get("topic"),
		query.Get("type"),
		parsed.Topic,
		parsed.Type,
	)
	topic = normalizeTopic(topic)
	if topic == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported notification topic")
	}

	rawID := firstNonEmpty(
		query.Get("data.id"),
		query.Get("id"),
		parsed.Data.ID,
		idFromResource(parsed.Resource),
	)
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification id missing")
	}

	return &Notification{Topic: topic, ID: id}, nil
}

func normalizeTopic(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "payment", "payment.created", "payment.updated":
		return TopicPayment
	case "merchant_order", "topic_merchant_order_wh":
		return TopicMerchantOrder
	default:
		return ""
	}
}

// idFromResource pulls the trailing id out of an IPN resource URL such as
// https://api.mercadolibre.com/merchant_orders/123456.
func idFromResource(resource string) string {
	resource = strings.TrimRight(strings.TrimSpace(resource), "/")
	if resource == "" {
		return ""
	}
	if idx := strings.LastIndex(resource, "/"); idx >= 0 {
		return resource[idx+1:]
	}
	return resource
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
