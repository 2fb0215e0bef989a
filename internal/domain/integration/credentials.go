package integration

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

const (
	schemeHTTPS = "https://"
	schemeHTTP  = "http://"
)

// NormalizeSiteURL canonicalizes a store's site URL: surrounding whitespace is trimmed,
// https:// is prepended when no http(s) scheme is present and trailing slashes are removed.
// NormalizeSiteURL(NormalizeSiteURL(x)) == NormalizeSiteURL(x).
func NormalizeSiteURL(raw string) string {
	u := strings.TrimRightFunc(strings.TrimSpace(raw), isSlashOrSpace)
	if u == "" {
		return ""
	}
	if !hasHTTPScheme(u) {
		u = schemeHTTPS + u
	}
	return u
}

func isSlashOrSpace(r rune) bool {
	return r == '/' || unicode.IsSpace(r)
}

// StripProtocol removes a leading http:// or https:// from a URL.
func StripProtocol(u string) string {
	lower := strings.ToLower(u)
	switch {
	case strings.HasPrefix(lower, schemeHTTPS):
		return u[len(schemeHTTPS):]
	case strings.HasPrefix(lower, schemeHTTP):
		return u[len(schemeHTTP):]
	default:
		return u
	}
}

// ValidateSiteHost rejects a canonical site URL that has no usable host,
// such as the result of normalizing "/" or a bare "https://".
func ValidateSiteHost(canonical string) error {
	u, err := url.Parse(canonical)
	if err != nil || u.Hostname() == "" || strings.HasSuffix(u.Host, ":") {
		return fmt.Errorf("%w: site_url has no host", ErrCredential)
	}
	return nil
}

// IsHTTPS reports whether a URL uses the https scheme.
func IsHTTPS(u string) bool {
	return strings.HasPrefix(strings.ToLower(u), schemeHTTPS)
}

func hasHTTPScheme(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasPrefix(lower, schemeHTTPS) || strings.HasPrefix(lower, schemeHTTP)
}

// NormalizeShopDomain canonicalizes a Shopify shop domain (no scheme, no trailing slash, lower case).
func NormalizeShopDomain(raw string) string {
	d := strings.TrimSpace(raw)
	d = StripProtocol(d)
	return strings.ToLower(strings.TrimRight(d, "/"))
}

// ValidateWooCredentials checks that all three WooCommerce connection fields are present.
func ValidateWooCredentials(siteURL, consumerKey, consumerSecret string) error {
	var missing []string
	if strings.TrimSpace(siteURL) == "" {
		missing = append(missing, "site_url")
	}
	if strings.TrimSpace(consumerKey) == "" {
		missing = append(missing, "consumer_key")
	}
	if strings.TrimSpace(consumerSecret) == "" {
		missing = append(missing, "consumer_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrCredential, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateShopifyCredentials checks a Shopify connection. Only the shop domain is required
// here; the access token is obtained out-of-band through the OAuth exchange.
func ValidateShopifyCredentials(shopDomain string) error {
	if strings.TrimSpace(shopDomain) == "" {
		return fmt.Errorf("%w: missing shop_domain", ErrCredential)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Typed credential variants
// ---------------------------------------------------------------------------

// Credentials is the typed api_credentials blob of a Store.
// Exactly one variant is set, matching the store type.
type Credentials struct {
	Woo     *WooCredentials
	Shopify *ShopifyCredentials
}

// WooCredentials are the REST API credentials of a WooCommerce store.
type WooCredentials struct {
	SiteURL        string `json:"site_url"`
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
}

// Complete reports whether every field is present.
func (c WooCredentials) Complete() bool {
	return ValidateWooCredentials(c.SiteURL, c.ConsumerKey, c.ConsumerSecret) == nil
}

// ShopifyCredentials are the Admin API credentials of a Shopify store.
type ShopifyCredentials struct {
	ShopDomain  string `json:"shop_domain"`
	AccessToken string `json:"access_token"`
}

// Complete reports whether both the shop domain and an access token are present.
func (c ShopifyCredentials) Complete() bool {
	return strings.TrimSpace(c.ShopDomain) != "" && strings.TrimSpace(c.AccessToken) != ""
}
