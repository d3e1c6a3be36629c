package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kijani/sentinel/internal/config"
)

// Webhook event names.
const (
	EventThreatAlert      = "threat_alert"
	EventAnalysisFallback = "analysis_fallback"
)

// blockedCIDRs lists special-use ranges that must never receive webhooks.
var blockedCIDRs = func() []*net.IPNet {
	cidrs := []string{
		"0.0.0.0/8",
		"10.0.0.0/8",
		"100.64.0.0/10",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"172.16.0.0/12",
		"192.0.0.0/24",
		"192.168.0.0/16",
		"198.18.0.0/15",
		"224.0.0.0/4",
		"240.0.0.0/4",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	}
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err == nil {
			nets = append(nets, ipnet)
		}
	}
	return nets
}()

func isBlockedIP(ip net.IP) bool {
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	for _, cidr := range blockedCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// safeDialContext validates the resolved IP before connecting, so a hostname
// cannot be rebound to a private address after URL validation.
func safeDialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("DNS resolution failed for %q: %w", host, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no addresses for %q", host)
	}
	for _, ip := range ips {
		if isBlockedIP(ip.IP) {
			return nil, fmt.Errorf("blocked: %s resolves to %s (private/reserved range)", host, ip.IP)
		}
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0].IP.String(), port))
}

// validateWebhookURL performs pre-DNS validation; safeDialContext repeats
// the IP check at connection time.
func validateWebhookURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return errors.New("webhook URL must use http or https")
	}
	host := u.Hostname()
	if host == "" {
		return errors.New("webhook URL has no host")
	}
	if isAllDigits(host) || strings.HasPrefix(strings.ToLower(host), "0x") {
		return errors.New("webhook URL contains alternative IP encoding")
	}
	if ip := net.ParseIP(host); ip != nil && isBlockedIP(ip) {
		return errors.New("webhook URL points to a blocked IP range")
	}
	return nil
}

func isAllDigits(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// AlertEvent is the payload sent to webhook endpoints.
type AlertEvent struct {
	Event      string `json:"event"`
	RequestID  string `json:"request_id,omitempty"`
	Device     string `json:"device,omitempty"`
	LogTrigger string `json:"log_trigger,omitempty"`
	Score      int    `json:"score"`
	Action     string `json:"action"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

// WebhookNotifier posts alert events to configured webhooks. The webhook
// list can be swapped while serving.
type WebhookNotifier struct {
	mu       sync.RWMutex
	webhooks []config.Webhook
	client   *http.Client
	logger   *slog.Logger
}

// NewWebhookNotifier creates a notifier. Invalid URLs are logged and skipped.
func NewWebhookNotifier(webhooks []config.Webhook, logger *slog.Logger) *WebhookNotifier {
	n := &WebhookNotifier{
		client: &http.Client{
			Timeout:   5 * time.Second,
			Transport: &http.Transport{DialContext: safeDialContext},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 2 {
					return errors.New("too many redirects")
				}
				if err := validateWebhookURL(req.URL.String()); err != nil {
					return fmt.Errorf("redirect to blocked URL: %w", err)
				}
				return nil
			},
		},
		logger: logger,
	}
	n.SetWebhooks(webhooks)
	return n
}

// SetWebhooks replaces the configured webhooks.
func (n *WebhookNotifier) SetWebhooks(webhooks []config.Webhook) {
	var valid []config.Webhook
	for _, wh := range webhooks {
		if err := validateWebhookURL(wh.URL); err != nil {
			n.logger.Warn("skipping invalid webhook URL", "url", wh.URL, "error", err)
			continue
		}
		valid = append(valid, wh)
	}

	n.mu.Lock()
	n.webhooks = valid
	n.mu.Unlock()
}

// Count returns the number of active webhooks.
func (n *WebhookNotifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.webhooks)
}

// Notify sends the event to all matching webhooks (fire-and-forget).
func (n *WebhookNotifier) Notify(event AlertEvent) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, wh := range n.webhooks {
		if !matchesEvent(wh.Events, event.Event) {
			continue
		}
		go n.send(wh.URL, event)
	}
}

func (n *WebhookNotifier) send(url string, event AlertEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("webhook marshal failed", "error", err)
		return
	}

	resp, err := n.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		webhookDeliveriesTotal.WithLabelValues("error").Inc()
		n.logger.Warn("webhook delivery failed", "url", url, "error", err)
		return
	}
	_ = resp.Body.Close()

	if resp.StatusCode >= 400 {
		webhookDeliveriesTotal.WithLabelValues("rejected").Inc()
		n.logger.Warn("webhook returned error", "url", url, "status", resp.StatusCode)
		return
	}
	webhookDeliveriesTotal.WithLabelValues("delivered").Inc()
}

func matchesEvent(configured []string, event string) bool {
	if len(configured) == 0 {
		return true // no filter = all events
	}
	for _, e := range configured {
		if e == event {
			return true
		}
	}
	return false
}
