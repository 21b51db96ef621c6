package verification

import (
	"context"
	"net/url"
	"time"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/veridianlabs/trustlens/pkg/models"
)

// DNSChecker gathers weak supplementary evidence about the audited domain
// itself: whether it resolves and carries mail and TXT records. Failures are
// recorded, never fatal.
type DNSChecker struct {
	resolver string
	client   *dns.Client
	logger   *logrus.Logger
}

func NewDNSChecker(resolver string, logger *logrus.Logger) *DNSChecker {
	if logger == nil {
		logger = logrus.New()
	}
	if resolver == "" {
		resolver = "8.8.8.8:53"
	}
	return &DNSChecker{
		resolver: resolver,
		client:   &dns.Client{Timeout: 5 * time.Second},
		logger:   logger,
	}
}

func (c *DNSChecker) Check(ctx context.Context, rawURL string) models.DomainEvidence {
	evidence := models.DomainEvidence{}

	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		evidence.Error = "no hostname to check"
		return evidence
	}
	evidence.Domain = u.Hostname()
	fqdn := dns.Fqdn(evidence.Domain)

	evidence.Resolves = c.hasRecords(ctx, fqdn, dns.TypeA) || c.hasRecords(ctx, fqdn, dns.TypeAAAA)
	if !evidence.Resolves {
		evidence.Error = "domain does not resolve"
		return evidence
	}
	evidence.HasMX = c.hasRecords(ctx, fqdn, dns.TypeMX)
	evidence.HasTXT = c.hasRecords(ctx, fqdn, dns.TypeTXT)
	return evidence
}

func (c *DNSChecker) hasRecords(ctx context.Context, fqdn string, qtype uint16) bool {
	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, qtype)
	msg.RecursionDesired = true

	resp, _, err := c.client.ExchangeContext(ctx, msg, c.resolver)
	if err != nil {
		c.logger.WithError(err).Debugf("dns lookup failed for %s type %d", fqdn, qtype)
		return false
	}
	return resp.Rcode == dns.RcodeSuccess && len(resp.Answer) > 0
}
