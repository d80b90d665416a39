// Package salesforce provides JWT-authenticated, read-only REST API access to
// Salesforce objects.
package salesforce

import (
	"context"
	"strings"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the Salesforce API operations used to read enquiries.
type Client interface {
	Query(ctx context.Context, soql string, out any) error
	DescribeSObject(ctx context.Context, name string) (*SObjectDescription, error)
}

// SObjectField describes a single field on a Salesforce SObject.
type SObjectField struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	Type       string `json:"type"`
	Length     int    `json:"length"`
	Updateable bool   `json:"updateable"`
}

// SObjectDescription holds metadata about a Salesforce SObject.
type SObjectDescription struct {
	Name   string         `json:"name"`
	Label  string         `json:"label"`
	Fields []SObjectField `json:"fields"`
}

// Creds holds the JWT bearer-flow credentials for Init.
type Creds struct {
	LoginURL   string
	Username   string
	ClientID   string
	PrivateKey string // PEM-encoded RSA key
}

// ClientOption configures the Salesforce client.
type ClientOption func(*sfClient)

// WithRateLimit caps API calls per second so a large Lead export stays
// inside the org's API allowance. The burst is the integer part of rps.
func WithRateLimit(rps float64) ClientOption {
	return func(c *sfClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// sfClient wraps the go-salesforce/v3 Salesforce struct. go-salesforce
// calls take no context, so ctx bounds only the rate-limit wait and is
// checked once more before each call.
type sfClient struct {
	sf      *salesforce.Salesforce
	limiter *rate.Limiter
}

// NewClient creates a new Salesforce Client wrapping the given go-salesforce instance.
func NewClient(sf *salesforce.Salesforce, opts ...ClientOption) Client {
	c := &sfClient{sf: sf}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// defaultLoginURL is used when Creds.LoginURL is empty.
const defaultLoginURL = "https://login.salesforce.com"

// Init authenticates with the JWT bearer flow and returns a Client.
func Init(creds Creds, opts ...ClientOption) (Client, error) {
	var missing []string
	if creds.ClientID == "" {
		missing = append(missing, "client id")
	}
	if creds.Username == "" {
		missing = append(missing, "username")
	}
	if creds.PrivateKey == "" {
		missing = append(missing, "private key")
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("sf: missing credentials: %s", strings.Join(missing, ", "))
	}
	if creds.LoginURL == "" {
		creds.LoginURL = defaultLoginURL
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         creds.LoginURL,
		Username:       creds.Username,
		ConsumerKey:    creds.ClientID,
		ConsumerRSAPem: creds.PrivateKey,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "sf: init for %s", creds.Username)
	}
	return NewClient(sf, opts...), nil
}

// wait blocks until the rate limiter allows one call, then reports whether
// ctx is still live.
func (c *sfClient) wait(ctx context.Context) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "sf: rate limit")
		}
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "sf: cancelled")
	}
	return nil
}

func (c *sfClient) Query(ctx context.Context, soql string, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	if err := c.sf.Query(soql, out); err != nil {
		return eris.Wrap(err, "sf: query")
	}
	return nil
}

func (c *sfClient) DescribeSObject(ctx context.Context, name string) (*SObjectDescription, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.sf.DoRequest("GET", "/sobjects/"+name+"/describe", nil)
	if err != nil {
		return nil, eris.Wrapf(err, "sf: describe %s", name)
	}
	defer resp.Body.Close() //nolint:errcheck

	return decodeDescribe(resp.Body, name)
}
